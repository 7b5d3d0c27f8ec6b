package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"linkupserver/internal/entity"
	"linkupserver/internal/format"
	connRepo "linkupserver/internal/modules/connection/repository"
	notifService "linkupserver/internal/modules/notification/service"
	"linkupserver/pkg/apperror"
)

// ConnectionService enforces the per-pair connection state machine:
// NONE -> PENDING(initiator) -> CONNECTED, with PENDING collapsible back to
// NONE via refuse/withdraw and CONNECTED collapsible via remove. Every
// mutation rewrites both endpoints' denormalized maps inside one transaction
// and returns the caller's refreshed connection view.
type ConnectionService interface {
	Request(ctx context.Context, actorUID, targetUID string) (*format.ConnectionsView, error)
	Withdraw(ctx context.Context, actorUID, targetUID string) (*format.ConnectionsView, error)
	Accept(ctx context.Context, actorUID, requesterUID string) (*format.ConnectionsView, error)
	Refuse(ctx context.Context, actorUID, requesterUID string) (*format.ConnectionsView, error)
	Remove(ctx context.Context, actorUID, otherUID string) (*format.ConnectionsView, error)
	Overview(ctx context.Context, actorUID string) (*format.ConnectionsView, error)
}

type connectionService struct {
	repo    connRepo.ConnectionRepository
	notices notifService.NotificationService
	now     func() time.Time
}

func NewConnectionService(repo connRepo.ConnectionRepository, notices notifService.NotificationService) ConnectionService {
	return &connectionService{
		repo:    repo,
		notices: notices,
		now:     time.Now,
	}
}

// snapshotOf captures the other user's display attributes plus their
// connected count at this moment. The count is intentionally never
// recomputed on later reads.
func snapshotOf(u *entity.User, createTime int64) entity.ConnectionEntry {
	return entity.ConnectionEntry{
		UID:            u.UID,
		Name:           u.Name,
		Job:            u.Job,
		Photo:          u.Photo,
		ConnectionsQty: len(u.Connections.Connected),
		CreateTime:     createTime,
	}
}

func setEntry(m *map[string]entity.ConnectionEntry, e entity.ConnectionEntry) {
	if *m == nil {
		*m = make(map[string]entity.ConnectionEntry)
	}
	(*m)[e.UID] = e
}

func (s *connectionService) Request(ctx context.Context, actorUID, targetUID string) (*format.ConnectionsView, error) {
	if actorUID == targetUID {
		return nil, fmt.Errorf("%w: cannot connect to yourself", apperror.ErrBadRequest)
	}

	var actorName string
	caller, err := s.repo.UpdatePair(ctx, actorUID, targetUID, func(a, b *entity.User) error {
		if _, ok := a.Connections.Sent[targetUID]; ok {
			return apperror.ErrAlreadyRequested
		}
		if _, ok := a.Connections.Connected[targetUID]; ok {
			return apperror.ErrAlreadyConnected
		}
		if _, ok := a.Connections.Received[targetUID]; ok {
			return apperror.ErrRequestPending
		}

		now := s.now().Unix()
		setEntry(&a.Connections.Sent, snapshotOf(b, now))
		setEntry(&b.Connections.Received, snapshotOf(a, now))
		actorName = a.Name
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, targetUID, entity.Notice{
		Type: entity.NoticeTypeConnect,
		UID:  actorUID,
		Name: actorName,
	})

	view := format.Connections(caller.Connections)
	return &view, nil
}

func (s *connectionService) Withdraw(ctx context.Context, actorUID, targetUID string) (*format.ConnectionsView, error) {
	caller, err := s.repo.UpdatePair(ctx, actorUID, targetUID, func(a, b *entity.User) error {
		_, sentOK := a.Connections.Sent[targetUID]
		_, recvOK := b.Connections.Received[actorUID]
		if !sentOK && !recvOK {
			return fmt.Errorf("%w: no pending request to %s", apperror.ErrNotFound, targetUID)
		}
		if sentOK != recvOK {
			return fmt.Errorf("%w: pending edge %s->%s present on one side only",
				apperror.ErrInconsistentState, actorUID, targetUID)
		}

		delete(a.Connections.Sent, targetUID)
		delete(b.Connections.Received, actorUID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := format.Connections(caller.Connections)
	return &view, nil
}

func (s *connectionService) Accept(ctx context.Context, actorUID, requesterUID string) (*format.ConnectionsView, error) {
	var requesterNotified bool
	var actorName string

	caller, err := s.repo.UpdatePair(ctx, actorUID, requesterUID, func(a, b *entity.User) error {
		received, recvOK := a.Connections.Received[requesterUID]
		sent, sentOK := b.Connections.Sent[actorUID]
		if !recvOK && !sentOK {
			return fmt.Errorf("%w: no pending request from %s", apperror.ErrNotFound, requesterUID)
		}
		if recvOK != sentOK {
			return fmt.Errorf("%w: pending edge %s->%s present on one side only",
				apperror.ErrInconsistentState, requesterUID, actorUID)
		}

		// Promote both pending entries, carrying the snapshot data over
		// instead of re-fetching it, with one shared connected_time.
		now := s.now().Unix()
		received.ConnectedTime = now
		sent.ConnectedTime = now

		delete(a.Connections.Received, requesterUID)
		delete(b.Connections.Sent, actorUID)
		setEntry(&a.Connections.Connected, received)
		setEntry(&b.Connections.Connected, sent)

		actorName = a.Name
		requesterNotified = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if requesterNotified {
		s.notify(ctx, requesterUID, entity.Notice{
			Type: entity.NoticeTypeConnectAccept,
			UID:  actorUID,
			Name: actorName,
		})
	}

	view := format.Connections(caller.Connections)
	return &view, nil
}

func (s *connectionService) Refuse(ctx context.Context, actorUID, requesterUID string) (*format.ConnectionsView, error) {
	caller, err := s.repo.UpdatePair(ctx, actorUID, requesterUID, func(a, b *entity.User) error {
		_, recvOK := a.Connections.Received[requesterUID]
		_, sentOK := b.Connections.Sent[actorUID]
		if !recvOK && !sentOK {
			return fmt.Errorf("%w: no pending request from %s", apperror.ErrNotFound, requesterUID)
		}
		if recvOK != sentOK {
			return fmt.Errorf("%w: pending edge %s->%s present on one side only",
				apperror.ErrInconsistentState, requesterUID, actorUID)
		}

		delete(a.Connections.Received, requesterUID)
		delete(b.Connections.Sent, actorUID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := format.Connections(caller.Connections)
	return &view, nil
}

func (s *connectionService) Remove(ctx context.Context, actorUID, otherUID string) (*format.ConnectionsView, error) {
	caller, err := s.repo.UpdatePair(ctx, actorUID, otherUID, func(a, b *entity.User) error {
		_, aOK := a.Connections.Connected[otherUID]
		_, bOK := b.Connections.Connected[actorUID]
		if !aOK && !bOK {
			return fmt.Errorf("%w: not connected to %s", apperror.ErrNotFound, otherUID)
		}
		if aOK != bOK {
			// A single-sided entry is an earlier partial failure; removal
			// proceeds best-effort and repairs it, but the condition must
			// be operator-visible.
			log.Printf("read-repair on remove %s<->%s: %v", actorUID, otherUID,
				apperror.ErrInconsistentState)
		}

		delete(a.Connections.Connected, otherUID)
		delete(b.Connections.Connected, actorUID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := format.Connections(caller.Connections)
	return &view, nil
}

func (s *connectionService) Overview(ctx context.Context, actorUID string) (*format.ConnectionsView, error) {
	user, err := s.repo.Get(ctx, actorUID)
	if err != nil {
		return nil, err
	}
	view := format.Connections(user.Connections)
	return &view, nil
}

func (s *connectionService) notify(ctx context.Context, recipientUID string, n entity.Notice) {
	if s.notices == nil {
		return
	}
	if err := s.notices.Notify(ctx, recipientUID, n); err != nil {
		log.Printf("notice delivery to %s failed: %v", recipientUID, err)
	}
}
