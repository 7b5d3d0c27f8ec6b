package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"linkupserver/internal/entity"
	"linkupserver/pkg/apperror"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	// Append merges one notice into the recipient's notices map with a
	// targeted field update; concurrent appends to other keys of the same
	// row are never clobbered.
	Append(ctx context.Context, uid string, n entity.Notice) error
	ListByUser(ctx context.Context, uid string) (entity.NoticeMap, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Append(ctx context.Context, uid string, n entity.Notice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("uid = ?", uid).
		UpdateColumn("notices", gorm.Expr(
			"jsonb_set(COALESCE(notices, '{}'::jsonb), ARRAY[?], ?::jsonb)",
			n.ID, string(payload)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", apperror.ErrNotFound, uid)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, uid string) (entity.NoticeMap, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Select("notices").Where("uid = ?", uid).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, uid)
		}
		return nil, err
	}
	return user.Notices, nil
}
