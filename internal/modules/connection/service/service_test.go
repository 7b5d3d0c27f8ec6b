package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"linkupserver/internal/entity"
	connRepo "linkupserver/internal/modules/connection/repository"
	"linkupserver/pkg/apperror"
)

// fakePairStore mimics the transactional pair repository: mutations run on
// deep copies and only commit when the mutator succeeds.
type fakePairStore struct {
	users map[string]*entity.User
}

func newFakePairStore(uids ...string) *fakePairStore {
	s := &fakePairStore{users: make(map[string]*entity.User)}
	for _, uid := range uids {
		s.users[uid] = &entity.User{UID: uid, Name: "name-" + uid, Job: "job-" + uid}
	}
	return s
}

func (s *fakePairStore) Get(_ context.Context, uid string) (*entity.User, error) {
	u, ok := s.users[uid]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, uid)
	}
	cp := cloneUser(u)
	return cp, nil
}

func (s *fakePairStore) UpdatePair(_ context.Context, callerUID, otherUID string, mutate connRepo.PairMutator) (*entity.User, error) {
	caller, ok := s.users[callerUID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, callerUID)
	}
	other, ok := s.users[otherUID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, otherUID)
	}

	callerCopy, otherCopy := cloneUser(caller), cloneUser(other)
	if err := mutate(callerCopy, otherCopy); err != nil {
		return nil, err
	}

	s.users[callerUID] = callerCopy
	s.users[otherUID] = otherCopy
	return cloneUser(callerCopy), nil
}

func cloneUser(u *entity.User) *entity.User {
	raw, _ := json.Marshal(u)
	var cp entity.User
	_ = json.Unmarshal(raw, &cp)
	return &cp
}

type recordedNotice struct {
	recipient string
	notice    entity.Notice
}

type fakeNotifier struct {
	sent []recordedNotice
	fail bool
}

func (f *fakeNotifier) Notify(_ context.Context, recipientUID string, n entity.Notice) error {
	if f.fail {
		return errors.New("sink unavailable")
	}
	f.sent = append(f.sent, recordedNotice{recipient: recipientUID, notice: n})
	return nil
}

func (f *fakeNotifier) List(_ context.Context, _ string) ([]entity.Notice, error) {
	return nil, nil
}

func newTestService(store *fakePairStore, notifier *fakeNotifier) (*connectionService, *int64) {
	clock := int64(1000)
	svc := &connectionService{
		repo:    store,
		notices: notifier,
		now:     func() time.Time { return time.Unix(clock, 0) },
	}
	return svc, &clock
}

func TestRequestCreatesMirroredPendingEdge(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	notifier := &fakeNotifier{}
	svc, _ := newTestService(store, notifier)

	view, err := svc.Request(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	if len(view.Sent) != 1 || view.Sent[0].UID != "bob" {
		t.Fatalf("caller sent = %v, want [bob]", view.Sent)
	}
	if view.Sent[0].CreateTime != 1000 {
		t.Fatalf("create_time = %d, want 1000", view.Sent[0].CreateTime)
	}

	bob := store.users["bob"]
	entry, ok := bob.Connections.Received["alice"]
	if !ok {
		t.Fatal("bob has no received entry for alice")
	}
	if entry.Name != "name-alice" || entry.CreateTime != 1000 {
		t.Fatalf("received snapshot = %+v", entry)
	}

	if len(notifier.sent) != 1 || notifier.sent[0].recipient != "bob" {
		t.Fatalf("notices = %+v, want one for bob", notifier.sent)
	}
	if notifier.sent[0].notice.Type != entity.NoticeTypeConnect {
		t.Fatalf("notice type = %s", notifier.sent[0].notice.Type)
	}
}

func TestRequestToSelfRejected(t *testing.T) {
	store := newFakePairStore("alice")
	svc, _ := newTestService(store, &fakeNotifier{})

	if _, err := svc.Request(context.Background(), "alice", "alice"); !errors.Is(err, apperror.ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
}

func TestDuplicateRequestConflictLeavesStateUnchanged(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{})

	if _, err := svc.Request(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("first Request: %v", err)
	}
	before, _ := json.Marshal(store.users)

	_, err := svc.Request(context.Background(), "alice", "bob")
	if !errors.Is(err, apperror.ErrAlreadyRequested) {
		t.Fatalf("err = %v, want ErrAlreadyRequested", err)
	}

	after, _ := json.Marshal(store.users)
	if string(before) != string(after) {
		t.Fatal("rejected request modified stored state")
	}
}

func TestRequestWhileReverseRequestPending(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{})

	if _, err := svc.Request(context.Background(), "bob", "alice"); err != nil {
		t.Fatalf("bob's Request: %v", err)
	}

	_, err := svc.Request(context.Background(), "alice", "bob")
	if !errors.Is(err, apperror.ErrRequestPending) {
		t.Fatalf("err = %v, want ErrRequestPending", err)
	}
}

func TestAcceptPromotesBothSidesWithSharedTime(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	notifier := &fakeNotifier{}
	svc, clock := newTestService(store, notifier)

	if _, err := svc.Request(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	*clock = 2000
	view, err := svc.Accept(context.Background(), "bob", "alice")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if len(view.Connected) != 1 || view.Connected[0].UID != "alice" {
		t.Fatalf("bob connected = %v, want [alice]", view.Connected)
	}

	alice, bob := store.users["alice"], store.users["bob"]
	if len(alice.Connections.Sent) != 0 || len(bob.Connections.Received) != 0 {
		t.Fatal("pending entries not cleared on accept")
	}

	aliceEntry := alice.Connections.Connected["bob"]
	bobEntry := bob.Connections.Connected["alice"]
	if aliceEntry.ConnectedTime != 2000 || bobEntry.ConnectedTime != 2000 {
		t.Fatalf("connected_time = %d / %d, want shared 2000", aliceEntry.ConnectedTime, bobEntry.ConnectedTime)
	}
	// Snapshots carry over from the pending entry instead of being refetched.
	if aliceEntry.CreateTime != 1000 || bobEntry.CreateTime != 1000 {
		t.Fatalf("create_time = %d / %d, want original 1000", aliceEntry.CreateTime, bobEntry.CreateTime)
	}

	var accepted *recordedNotice
	for i := range notifier.sent {
		if notifier.sent[i].notice.Type == entity.NoticeTypeConnectAccept {
			accepted = &notifier.sent[i]
		}
	}
	if accepted == nil || accepted.recipient != "alice" {
		t.Fatalf("no accept notice for alice in %+v", notifier.sent)
	}
}

func TestAcceptWithoutPendingRequest(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{})

	if _, err := svc.Accept(context.Background(), "bob", "alice"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWithdrawClearsBothSides(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{})

	if _, err := svc.Request(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	view, err := svc.Withdraw(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	if len(view.Sent) != 0 {
		t.Fatalf("sent = %v, want empty", view.Sent)
	}
	if len(store.users["bob"].Connections.Received) != 0 {
		t.Fatal("bob still has the received entry")
	}
}

func TestRefuseClearsBothSides(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{})

	if _, err := svc.Request(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := svc.Refuse(context.Background(), "bob", "alice"); err != nil {
		t.Fatalf("Refuse: %v", err)
	}

	if len(store.users["alice"].Connections.Sent) != 0 {
		t.Fatal("alice still has the sent entry")
	}
	// Refusal is silent: no accept notice, only the original request one.
	if _, err := svc.Request(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("re-request after refuse: %v", err)
	}
}

func TestWithdrawDetectsAsymmetricEdge(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{})

	// Simulate a past partial failure: sent entry without its mirror.
	store.users["alice"].Connections.Sent = map[string]entity.ConnectionEntry{
		"bob": {UID: "bob", CreateTime: 1},
	}

	_, err := svc.Withdraw(context.Background(), "alice", "bob")
	if !errors.Is(err, apperror.ErrInconsistentState) {
		t.Fatalf("err = %v, want ErrInconsistentState", err)
	}
}

func TestRemoveConnection(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{})

	if _, err := svc.Request(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := svc.Accept(context.Background(), "bob", "alice"); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	view, err := svc.Remove(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(view.Connected) != 0 {
		t.Fatalf("connected = %v, want empty", view.Connected)
	}
	if len(store.users["bob"].Connections.Connected) != 0 {
		t.Fatal("bob still connected to alice")
	}
}

func TestRemoveRepairsAsymmetricEdge(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{})

	// Only alice holds a connected entry.
	store.users["alice"].Connections.Connected = map[string]entity.ConnectionEntry{
		"bob": {UID: "bob", CreateTime: 1, ConnectedTime: 2},
	}

	view, err := svc.Remove(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(view.Connected) != 0 {
		t.Fatalf("connected = %v, want empty after repair", view.Connected)
	}
}

func TestRemoveWhenNotConnected(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{})

	if _, err := svc.Remove(context.Background(), "alice", "bob"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestNoticeFailureDoesNotFailRequest(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{fail: true})

	if _, err := svc.Request(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("Request with failing sink: %v", err)
	}
	if _, ok := store.users["bob"].Connections.Received["alice"]; !ok {
		t.Fatal("edge not written despite notice failure")
	}
}

func TestSnapshotCountFrozenAtTransition(t *testing.T) {
	store := newFakePairStore("alice", "bob", "carol")
	svc, _ := newTestService(store, &fakeNotifier{})

	// bob gains a connection first so his count is 1 when alice requests.
	if _, err := svc.Request(context.Background(), "carol", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := svc.Accept(context.Background(), "bob", "carol"); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if _, err := svc.Request(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	entry := store.users["alice"].Connections.Sent["bob"]
	if entry.ConnectionsQty != 1 {
		t.Fatalf("snapshot connections_qty = %d, want 1", entry.ConnectionsQty)
	}

	// bob loses that connection; alice's snapshot must not change.
	if _, err := svc.Remove(context.Background(), "bob", "carol"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	entry = store.users["alice"].Connections.Sent["bob"]
	if entry.ConnectionsQty != 1 {
		t.Fatalf("snapshot recomputed to %d, want frozen 1", entry.ConnectionsQty)
	}
}

func TestOverview(t *testing.T) {
	store := newFakePairStore("alice", "bob")
	svc, _ := newTestService(store, &fakeNotifier{})

	if _, err := svc.Request(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	view, err := svc.Overview(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(view.Received) != 1 || view.Received[0].UID != "alice" {
		t.Fatalf("received = %v, want [alice]", view.Received)
	}
}
