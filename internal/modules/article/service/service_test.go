package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"linkupserver/internal/entity"
	articleDto "linkupserver/internal/modules/article/dto"
	"linkupserver/pkg/apperror"
)

func articleDtoCreate(content string) articleDto.CreateArticleInput {
	return articleDto.CreateArticleInput{Content: content}
}

type fakeArticleStore struct {
	articles map[string]*entity.Article
}

func newFakeArticleStore() *fakeArticleStore {
	return &fakeArticleStore{articles: make(map[string]*entity.Article)}
}

func (s *fakeArticleStore) Create(_ context.Context, article *entity.Article) error {
	cp := *article
	s.articles[article.ID] = &cp
	return nil
}

func (s *fakeArticleStore) FindByID(_ context.Context, id string) (*entity.Article, error) {
	a, ok := s.articles[id]
	if !ok {
		return nil, fmt.Errorf("%w: article %s", apperror.ErrNotFound, id)
	}
	cp := *a
	return &cp, nil
}

func (s *fakeArticleStore) Delete(_ context.Context, id string) error {
	if _, ok := s.articles[id]; !ok {
		return fmt.Errorf("%w: article %s", apperror.ErrNotFound, id)
	}
	delete(s.articles, id)
	return nil
}

func (s *fakeArticleStore) ListByUser(_ context.Context, uid string) ([]entity.Article, error) {
	var out []entity.Article
	for _, a := range s.articles {
		if a.UID == uid {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeArticleStore) AddLike(ctx context.Context, articleID string, like entity.LikeEntry) error {
	a, ok := s.articles[articleID]
	if !ok {
		return fmt.Errorf("%w: article %s", apperror.ErrNotFound, articleID)
	}
	if _, exists := a.Likes[like.UID]; exists {
		return apperror.ErrAlreadyLiked
	}
	if a.Likes == nil {
		a.Likes = make(entity.LikeMap)
	}
	a.Likes[like.UID] = like
	return nil
}

func (s *fakeArticleStore) RemoveLike(_ context.Context, articleID, uid string) error {
	a, ok := s.articles[articleID]
	if !ok {
		return fmt.Errorf("%w: article %s", apperror.ErrNotFound, articleID)
	}
	if _, exists := a.Likes[uid]; !exists {
		return apperror.ErrNotLiked
	}
	delete(a.Likes, uid)
	return nil
}

func (s *fakeArticleStore) AddFavorite(_ context.Context, articleID, uid string) error {
	a, ok := s.articles[articleID]
	if !ok {
		return fmt.Errorf("%w: article %s", apperror.ErrNotFound, articleID)
	}
	if _, exists := a.Favorites[uid]; exists {
		return apperror.ErrAlreadyFavorited
	}
	if a.Favorites == nil {
		a.Favorites = make(entity.FavoriteMap)
	}
	a.Favorites[uid] = uid
	return nil
}

func (s *fakeArticleStore) RemoveFavorite(_ context.Context, articleID, uid string) error {
	a, ok := s.articles[articleID]
	if !ok {
		return fmt.Errorf("%w: article %s", apperror.ErrNotFound, articleID)
	}
	if _, exists := a.Favorites[uid]; !exists {
		return apperror.ErrNotFavorited
	}
	delete(a.Favorites, uid)
	return nil
}

func (s *fakeArticleStore) AddComment(_ context.Context, articleID string, comment entity.CommentEntry) error {
	a, ok := s.articles[articleID]
	if !ok {
		return fmt.Errorf("%w: article %s", apperror.ErrNotFound, articleID)
	}
	if a.Comments == nil {
		a.Comments = make(entity.CommentMap)
	}
	a.Comments[comment.ID] = comment
	return nil
}

func (s *fakeArticleStore) RemoveComment(_ context.Context, articleID, commentID string) error {
	a, ok := s.articles[articleID]
	if !ok {
		return fmt.Errorf("%w: article %s", apperror.ErrNotFound, articleID)
	}
	if _, exists := a.Comments[commentID]; !exists {
		return fmt.Errorf("%w: comment %s", apperror.ErrNotFound, commentID)
	}
	delete(a.Comments, commentID)
	return nil
}

type fakeUserStore struct {
	users map[string]*entity.User
}

func newFakeUserStore(uids ...string) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*entity.User)}
	for _, uid := range uids {
		s.users[uid] = &entity.User{UID: uid, Name: "name-" + uid, Job: "job-" + uid}
	}
	return s
}

func (s *fakeUserStore) Create(_ context.Context, user *entity.User) error {
	s.users[user.UID] = user
	return nil
}

func (s *fakeUserStore) FindByUID(_ context.Context, uid string) (*entity.User, error) {
	u, ok := s.users[uid]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, uid)
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: user not exist", apperror.ErrNotFound)
}

func (s *fakeUserStore) UpdateFields(_ context.Context, uid string, _ map[string]any) error {
	if _, ok := s.users[uid]; !ok {
		return fmt.Errorf("%w: user %s", apperror.ErrNotFound, uid)
	}
	return nil
}

func (s *fakeUserStore) RecordView(_ context.Context, profileUID string, _ *entity.ProfileView) error {
	if _, ok := s.users[profileUID]; !ok {
		return fmt.Errorf("%w: user %s", apperror.ErrNotFound, profileUID)
	}
	return nil
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

func newTestService(articles *fakeArticleStore, users *fakeUserStore, notifier *fakeNotifier) (*articleService, *int64, *int) {
	clock := int64(1000)
	seq := 0
	svc := &articleService{
		repo:          articles,
		users:         users,
		notices:       notifier,
		contentPolicy: bluemonday.UGCPolicy(),
		commentPolicy: bluemonday.StrictPolicy(),
		newID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
		now: func() time.Time { return time.Unix(clock, 0) },
	}
	return svc, &clock, &seq
}

func TestCreateSnapshotsAuthor(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice")
	svc, _, _ := newTestService(articles, users, &fakeNotifier{})

	res, err := svc.Create(context.Background(), "alice", articleDtoCreate("hello world"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if res.Name != "name-alice" || res.Job != "job-alice" {
		t.Fatalf("author snapshot = %q/%q", res.Name, res.Job)
	}
	if res.CreateTime != 1000 {
		t.Fatalf("create_time = %d, want 1000", res.CreateTime)
	}
	if len(res.Likes) != 0 || len(res.Comments) != 0 || len(res.Favorites) != 0 {
		t.Fatal("new article has non-empty engagement")
	}
}

func TestCreateStripsScriptTags(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice")
	svc, _, _ := newTestService(articles, users, &fakeNotifier{})

	res, err := svc.Create(context.Background(), "alice", articleDtoCreate(`hi<script>alert(1)</script>`))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Content != "hi" {
		t.Fatalf("content = %q, want script stripped", res.Content)
	}
}

func TestLikeRoundTrip(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice", "bob")
	notifier := &fakeNotifier{}
	svc, _, _ := newTestService(articles, users, notifier)

	art, err := svc.Create(context.Background(), "alice", articleDtoCreate("post"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	likes, err := svc.Like(context.Background(), art.ID, "bob")
	if err != nil {
		t.Fatalf("Like: %v", err)
	}
	if len(likes) != 1 || likes[0].UID != "bob" || likes[0].Name != "name-bob" {
		t.Fatalf("likes = %+v", likes)
	}

	// Owner gets a like notice from a non-owner actor.
	if len(notifier.sent) != 1 || notifier.sent[0].recipient != "alice" ||
		notifier.sent[0].notice.Type != entity.NoticeTypeLike ||
		notifier.sent[0].notice.ArticleID != art.ID {
		t.Fatalf("notices = %+v", notifier.sent)
	}

	likes, err = svc.Unlike(context.Background(), art.ID, "bob")
	if err != nil {
		t.Fatalf("Unlike: %v", err)
	}
	if len(likes) != 0 {
		t.Fatalf("likes after unlike = %+v, want empty", likes)
	}
}

func TestDuplicateLikeConflict(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice", "bob")
	svc, _, _ := newTestService(articles, users, &fakeNotifier{})

	art, _ := svc.Create(context.Background(), "alice", articleDtoCreate("post"))
	if _, err := svc.Like(context.Background(), art.ID, "bob"); err != nil {
		t.Fatalf("first Like: %v", err)
	}

	_, err := svc.Like(context.Background(), art.ID, "bob")
	if !errors.Is(err, apperror.ErrAlreadyLiked) {
		t.Fatalf("err = %v, want ErrAlreadyLiked", err)
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("ErrAlreadyLiked must classify as conflict, got %v", err)
	}

	stored := articles.articles[art.ID]
	if len(stored.Likes) != 1 {
		t.Fatalf("likes count = %d after rejected duplicate, want 1", len(stored.Likes))
	}
}

func TestUnlikeWithoutLike(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice", "bob")
	svc, _, _ := newTestService(articles, users, &fakeNotifier{})

	art, _ := svc.Create(context.Background(), "alice", articleDtoCreate("post"))
	_, err := svc.Unlike(context.Background(), art.ID, "bob")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSelfLikeSkipsNotice(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice")
	notifier := &fakeNotifier{}
	svc, _, _ := newTestService(articles, users, notifier)

	art, _ := svc.Create(context.Background(), "alice", articleDtoCreate("post"))
	if _, err := svc.Like(context.Background(), art.ID, "alice"); err != nil {
		t.Fatalf("Like: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("self-like produced notices: %+v", notifier.sent)
	}
}

func TestFavoriteRoundTrip(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice", "bob")
	notifier := &fakeNotifier{}
	svc, _, _ := newTestService(articles, users, notifier)

	art, _ := svc.Create(context.Background(), "alice", articleDtoCreate("post"))

	favs, err := svc.Favorite(context.Background(), art.ID, "bob")
	if err != nil {
		t.Fatalf("Favorite: %v", err)
	}
	if len(favs) != 1 || favs[0].UID != "bob" {
		t.Fatalf("favorites = %+v", favs)
	}
	// Favorites are silent: no notice fan-out.
	if len(notifier.sent) != 0 {
		t.Fatalf("favorite produced notices: %+v", notifier.sent)
	}

	if _, err := svc.Favorite(context.Background(), art.ID, "bob"); !errors.Is(err, apperror.ErrAlreadyFavorited) {
		t.Fatalf("duplicate favorite err = %v", err)
	}

	favs, err = svc.Unfavorite(context.Background(), art.ID, "bob")
	if err != nil {
		t.Fatalf("Unfavorite: %v", err)
	}
	if len(favs) != 0 {
		t.Fatalf("favorites after unfavorite = %+v", favs)
	}
}

func TestCommentsOrderedByCreation(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice", "bob", "carol")
	svc, clock, _ := newTestService(articles, users, &fakeNotifier{})

	art, _ := svc.Create(context.Background(), "alice", articleDtoCreate("post"))

	*clock = 2000
	if _, err := svc.AddComment(context.Background(), art.ID, "bob", "first"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	*clock = 3000
	if _, err := svc.AddComment(context.Background(), art.ID, "carol", "second"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	*clock = 4000
	comments, err := svc.AddComment(context.Background(), art.ID, "bob", "third")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(comments) != len(want) {
		t.Fatalf("got %d comments, want %d", len(comments), len(want))
	}
	for i, text := range want {
		if comments[i].Comment != text {
			t.Fatalf("comments[%d] = %q, want %q", i, comments[i].Comment, text)
		}
	}
}

func TestDeleteCommentOwnership(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice", "bob", "carol")
	svc, _, _ := newTestService(articles, users, &fakeNotifier{})

	art, _ := svc.Create(context.Background(), "alice", articleDtoCreate("post"))
	comments, err := svc.AddComment(context.Background(), art.ID, "bob", "mine")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	commentID := comments[0].ID

	// Someone else's delete is forbidden and leaves the thread unchanged.
	if _, err := svc.DeleteComment(context.Background(), art.ID, commentID, "carol"); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	remaining, _ := svc.Comments(context.Background(), art.ID)
	if len(remaining) != 1 {
		t.Fatalf("thread changed by forbidden delete: %+v", remaining)
	}

	// The author can delete.
	remaining, err = svc.DeleteComment(context.Background(), art.ID, commentID, "bob")
	if err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("comments after delete = %+v", remaining)
	}
}

func TestDeleteUnknownComment(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice")
	svc, _, _ := newTestService(articles, users, &fakeNotifier{})

	art, _ := svc.Create(context.Background(), "alice", articleDtoCreate("post"))
	if _, err := svc.DeleteComment(context.Background(), art.ID, "nope", "alice"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCommentNoticeFanOut(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice", "bob")
	notifier := &fakeNotifier{}
	svc, _, _ := newTestService(articles, users, notifier)

	art, _ := svc.Create(context.Background(), "alice", articleDtoCreate("post"))
	if _, err := svc.AddComment(context.Background(), art.ID, "bob", "nice"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0].recipient != "alice" ||
		notifier.sent[0].notice.Type != entity.NoticeTypeComment {
		t.Fatalf("notices = %+v", notifier.sent)
	}
}

func TestNoticeFailureDoesNotFailLike(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice", "bob")
	svc, _, _ := newTestService(articles, users, &fakeNotifier{fail: true})

	art, _ := svc.Create(context.Background(), "alice", articleDtoCreate("post"))
	likes, err := svc.Like(context.Background(), art.ID, "bob")
	if err != nil {
		t.Fatalf("Like with failing sink: %v", err)
	}
	if len(likes) != 1 {
		t.Fatalf("likes = %+v", likes)
	}
}

func TestDeleteArticleOwnership(t *testing.T) {
	articles := newFakeArticleStore()
	users := newFakeUserStore("alice", "bob")
	svc, _, _ := newTestService(articles, users, &fakeNotifier{})

	art, _ := svc.Create(context.Background(), "alice", articleDtoCreate("post"))

	if err := svc.Delete(context.Background(), art.ID, "bob"); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(context.Background(), art.ID, "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), art.ID, "alice"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}
