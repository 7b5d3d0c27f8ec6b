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

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByUID(ctx context.Context, uid string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// UpdateFields writes only the given scalar columns.
	UpdateFields(ctx context.Context, uid string, fields map[string]any) error
	// RecordView bumps views.profile_views_total and, for a logged-in
	// viewer, upserts their snapshot under views.profile_views. Single
	// targeted update; concurrent writers to other fields are untouched.
	RecordView(ctx context.Context, profileUID string, viewer *entity.ProfileView) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: email already in use", apperror.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByUID(ctx context.Context, uid string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, uid)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not exist", apperror.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateFields(ctx context.Context, uid string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("uid = ?", uid).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", apperror.ErrNotFound, uid)
	}
	return nil
}

func (r *userRepository) RecordView(ctx context.Context, profileUID string, viewer *entity.ProfileView) error {
	var expr any

	if viewer == nil {
		expr = gorm.Expr(
			"jsonb_set(COALESCE(views, '{}'::jsonb), '{profile_views_total}', " +
				"to_jsonb(COALESCE((views->>'profile_views_total')::bigint, 0) + 1))")
	} else {
		payload, err := json.Marshal(viewer)
		if err != nil {
			return err
		}
		// jsonb_set only creates the last path element, so the
		// profile_views object has to be materialized first.
		expr = gorm.Expr(
			"jsonb_set("+
				"jsonb_set("+
				"jsonb_set(COALESCE(views, '{}'::jsonb), '{profile_views}', COALESCE(views->'profile_views', '{}'::jsonb)), "+
				"ARRAY['profile_views', ?], ?::jsonb), "+
				"'{profile_views_total}', to_jsonb(COALESCE((views->>'profile_views_total')::bigint, 0) + 1))",
			viewer.UID, string(payload))
	}

	res := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("uid = ?", profileUID).
		UpdateColumn("views", expr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", apperror.ErrNotFound, profileUID)
	}
	return nil
}
