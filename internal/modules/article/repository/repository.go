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

// ArticleRepository persists articles and mutates their engagement maps with
// targeted jsonb updates. Membership guards run inside the UPDATE predicate,
// so a duplicate like/favorite submitted concurrently is rejected by the
// store itself, not by a racy read-then-write.
type ArticleRepository interface {
	Create(ctx context.Context, article *entity.Article) error
	FindByID(ctx context.Context, id string) (*entity.Article, error)
	Delete(ctx context.Context, id string) error
	// ListByUser returns the user's articles newest-first.
	ListByUser(ctx context.Context, uid string) ([]entity.Article, error)

	AddLike(ctx context.Context, articleID string, like entity.LikeEntry) error
	RemoveLike(ctx context.Context, articleID, uid string) error
	AddFavorite(ctx context.Context, articleID, uid string) error
	RemoveFavorite(ctx context.Context, articleID, uid string) error
	AddComment(ctx context.Context, articleID string, comment entity.CommentEntry) error
	RemoveComment(ctx context.Context, articleID, commentID string) error
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *entity.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *articleRepository) FindByID(ctx context.Context, id string) (*entity.Article, error) {
	var article entity.Article
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: article %s", apperror.ErrNotFound, id)
		}
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Article{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: article %s", apperror.ErrNotFound, id)
	}
	return nil
}

func (r *articleRepository) ListByUser(ctx context.Context, uid string) ([]entity.Article, error) {
	var articles []entity.Article
	err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("create_time DESC").
		Find(&articles).Error
	return articles, err
}

func (r *articleRepository) AddLike(ctx context.Context, articleID string, like entity.LikeEntry) error {
	payload, err := json.Marshal(like)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&entity.Article{}).
		Where("id = ? AND NOT jsonb_exists(COALESCE(likes, '{}'::jsonb), ?)", articleID, like.UID).
		UpdateColumn("likes", gorm.Expr(
			"jsonb_set(COALESCE(likes, '{}'::jsonb), ARRAY[?], ?::jsonb)",
			like.UID, string(payload)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.zeroRowsError(ctx, articleID, apperror.ErrAlreadyLiked)
	}
	return nil
}

func (r *articleRepository) RemoveLike(ctx context.Context, articleID, uid string) error {
	res := r.db.WithContext(ctx).Model(&entity.Article{}).
		Where("id = ? AND jsonb_exists(COALESCE(likes, '{}'::jsonb), ?)", articleID, uid).
		UpdateColumn("likes", gorm.Expr("COALESCE(likes, '{}'::jsonb) - ?::text", uid))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.zeroRowsError(ctx, articleID, apperror.ErrNotLiked)
	}
	return nil
}

func (r *articleRepository) AddFavorite(ctx context.Context, articleID, uid string) error {
	payload, err := json.Marshal(uid)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&entity.Article{}).
		Where("id = ? AND NOT jsonb_exists(COALESCE(favorites, '{}'::jsonb), ?)", articleID, uid).
		UpdateColumn("favorites", gorm.Expr(
			"jsonb_set(COALESCE(favorites, '{}'::jsonb), ARRAY[?], ?::jsonb)",
			uid, string(payload)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.zeroRowsError(ctx, articleID, apperror.ErrAlreadyFavorited)
	}
	return nil
}

func (r *articleRepository) RemoveFavorite(ctx context.Context, articleID, uid string) error {
	res := r.db.WithContext(ctx).Model(&entity.Article{}).
		Where("id = ? AND jsonb_exists(COALESCE(favorites, '{}'::jsonb), ?)", articleID, uid).
		UpdateColumn("favorites", gorm.Expr("COALESCE(favorites, '{}'::jsonb) - ?::text", uid))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.zeroRowsError(ctx, articleID, apperror.ErrNotFavorited)
	}
	return nil
}

func (r *articleRepository) AddComment(ctx context.Context, articleID string, comment entity.CommentEntry) error {
	payload, err := json.Marshal(comment)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&entity.Article{}).
		Where("id = ?", articleID).
		UpdateColumn("comments", gorm.Expr(
			"jsonb_set(COALESCE(comments, '{}'::jsonb), ARRAY[?], ?::jsonb)",
			comment.ID, string(payload)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: article %s", apperror.ErrNotFound, articleID)
	}
	return nil
}

func (r *articleRepository) RemoveComment(ctx context.Context, articleID, commentID string) error {
	res := r.db.WithContext(ctx).Model(&entity.Article{}).
		Where("id = ? AND jsonb_exists(COALESCE(comments, '{}'::jsonb), ?)", articleID, commentID).
		UpdateColumn("comments", gorm.Expr("COALESCE(comments, '{}'::jsonb) - ?::text", commentID))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: comment %s", apperror.ErrNotFound, commentID)
	}
	return nil
}

// zeroRowsError tells "article missing" apart from "membership guard fired".
func (r *articleRepository) zeroRowsError(ctx context.Context, articleID string, guardErr error) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Article{}).
		Where("id = ?", articleID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: article %s", apperror.ErrNotFound, articleID)
	}
	return guardErr
}
