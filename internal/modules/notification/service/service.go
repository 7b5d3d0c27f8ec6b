package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"linkupserver/internal/entity"
	"linkupserver/internal/format"
	notifRepo "linkupserver/internal/modules/notification/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NotificationService is the sink for social-event notices. Delivery is
// best-effort and never transactional with the action that triggered it:
// callers log a failed Notify and move on, they never roll back.
type NotificationService interface {
	Notify(ctx context.Context, recipientUID string, n entity.Notice) error
	List(ctx context.Context, uid string) ([]entity.Notice, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
	newID       func() string
	now         func() time.Time
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Channel returns the pub/sub channel carrying a user's live notices.
func Channel(uid string) string {
	return fmt.Sprintf("user_notices:%s", uid)
}

func (s *notificationService) Notify(ctx context.Context, recipientUID string, n entity.Notice) error {
	n.ID = s.newID()
	n.CreateTime = s.now().Unix()

	if err := s.repo.Append(ctx, recipientUID, n); err != nil {
		return err
	}

	// Live push is even more advisory than the stored notice; a publish
	// failure is invisible to the caller.
	if s.redisClient != nil {
		if payload, err := json.Marshal(n); err == nil {
			s.redisClient.Publish(ctx, Channel(recipientUID), payload)
		}
	}

	return nil
}

func (s *notificationService) List(ctx context.Context, uid string) ([]entity.Notice, error) {
	notices, err := s.repo.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	return format.Notices(notices), nil
}
