package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"linkupserver/internal/entity"
	"linkupserver/internal/format"
	articleDto "linkupserver/internal/modules/article/dto"
	articleRepo "linkupserver/internal/modules/article/repository"
	notifService "linkupserver/internal/modules/notification/service"
	userRepo "linkupserver/internal/modules/user/repository"
	"linkupserver/pkg/apperror"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// ArticleService owns article engagement: like/favorite sets keyed by acting
// user, an append-only comment thread ordered by creation time, and the
// owner-notice fan-out for likes and comments.
type ArticleService interface {
	Create(ctx context.Context, actorUID string, input articleDto.CreateArticleInput) (*articleDto.ArticleResponse, error)
	Delete(ctx context.Context, articleID, actorUID string) error
	ListByUser(ctx context.Context, uid string) ([]articleDto.ArticleResponse, error)

	Like(ctx context.Context, articleID, actorUID string) ([]entity.LikeEntry, error)
	Unlike(ctx context.Context, articleID, actorUID string) ([]entity.LikeEntry, error)
	Favorite(ctx context.Context, articleID, actorUID string) ([]format.FavoriteRef, error)
	Unfavorite(ctx context.Context, articleID, actorUID string) ([]format.FavoriteRef, error)

	AddComment(ctx context.Context, articleID, actorUID, text string) ([]entity.CommentEntry, error)
	DeleteComment(ctx context.Context, articleID, commentID, actorUID string) ([]entity.CommentEntry, error)
	Comments(ctx context.Context, articleID string) ([]entity.CommentEntry, error)
}

type articleService struct {
	repo    articleRepo.ArticleRepository
	users   userRepo.UserRepository
	notices notifService.NotificationService

	contentPolicy *bluemonday.Policy
	commentPolicy *bluemonday.Policy
	newID         func() string
	now           func() time.Time
}

func NewArticleService(repo articleRepo.ArticleRepository, users userRepo.UserRepository, notices notifService.NotificationService) ArticleService {
	return &articleService{
		repo:          repo,
		users:         users,
		notices:       notices,
		contentPolicy: bluemonday.UGCPolicy(),
		commentPolicy: bluemonday.StrictPolicy(),
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

func (s *articleService) Create(ctx context.Context, actorUID string, input articleDto.CreateArticleInput) (*articleDto.ArticleResponse, error) {
	actor, err := s.users.FindByUID(ctx, actorUID)
	if err != nil {
		return nil, err
	}

	article := &entity.Article{
		ID:          s.newID(),
		UID:         actor.UID,
		AuthorName:  actor.Name,
		AuthorJob:   actor.Job,
		AuthorPhoto: actor.Photo,
		Content:     s.contentPolicy.Sanitize(input.Content),
		CreateTime:  s.now().Unix(),
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return nil, err
	}

	res := toResponse(article)
	return &res, nil
}

func (s *articleService) Delete(ctx context.Context, articleID, actorUID string) error {
	article, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return err
	}
	if article.UID != actorUID {
		return fmt.Errorf("%w: not the article owner", apperror.ErrForbidden)
	}
	return s.repo.Delete(ctx, articleID)
}

func (s *articleService) ListByUser(ctx context.Context, uid string) ([]articleDto.ArticleResponse, error) {
	articles, err := s.repo.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	out := make([]articleDto.ArticleResponse, 0, len(articles))
	for i := range articles {
		out = append(out, toResponse(&articles[i]))
	}
	return out, nil
}

func (s *articleService) Like(ctx context.Context, articleID, actorUID string) ([]entity.LikeEntry, error) {
	actor, err := s.users.FindByUID(ctx, actorUID)
	if err != nil {
		return nil, err
	}

	article, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}

	like := entity.LikeEntry{
		UID:   actor.UID,
		Name:  actor.Name,
		Job:   actor.Job,
		Photo: actor.Photo,
	}
	if err := s.repo.AddLike(ctx, articleID, like); err != nil {
		return nil, err
	}

	if article.UID != actorUID {
		s.notify(ctx, article.UID, entity.Notice{
			Type:      entity.NoticeTypeLike,
			UID:       actor.UID,
			Name:      actor.Name,
			ArticleID: articleID,
		})
	}

	refreshed, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return format.Likes(refreshed.Likes), nil
}

func (s *articleService) Unlike(ctx context.Context, articleID, actorUID string) ([]entity.LikeEntry, error) {
	if err := s.repo.RemoveLike(ctx, articleID, actorUID); err != nil {
		return nil, err
	}

	refreshed, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return format.Likes(refreshed.Likes), nil
}

func (s *articleService) Favorite(ctx context.Context, articleID, actorUID string) ([]format.FavoriteRef, error) {
	if err := s.repo.AddFavorite(ctx, articleID, actorUID); err != nil {
		return nil, err
	}

	refreshed, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return format.Favorites(refreshed.Favorites), nil
}

func (s *articleService) Unfavorite(ctx context.Context, articleID, actorUID string) ([]format.FavoriteRef, error) {
	if err := s.repo.RemoveFavorite(ctx, articleID, actorUID); err != nil {
		return nil, err
	}

	refreshed, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return format.Favorites(refreshed.Favorites), nil
}

func (s *articleService) AddComment(ctx context.Context, articleID, actorUID, text string) ([]entity.CommentEntry, error) {
	actor, err := s.users.FindByUID(ctx, actorUID)
	if err != nil {
		return nil, err
	}

	article, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}

	comment := entity.CommentEntry{
		ID:         s.newID(),
		UID:        actor.UID,
		Name:       actor.Name,
		Job:        actor.Job,
		Photo:      actor.Photo,
		Comment:    s.commentPolicy.Sanitize(text),
		CreateTime: s.now().Unix(),
	}
	if err := s.repo.AddComment(ctx, articleID, comment); err != nil {
		return nil, err
	}

	if article.UID != actorUID {
		s.notify(ctx, article.UID, entity.Notice{
			Type:      entity.NoticeTypeComment,
			UID:       actor.UID,
			Name:      actor.Name,
			ArticleID: articleID,
		})
	}

	refreshed, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return format.Comments(refreshed.Comments), nil
}

func (s *articleService) DeleteComment(ctx context.Context, articleID, commentID, actorUID string) ([]entity.CommentEntry, error) {
	article, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}

	comment, ok := article.Comments[commentID]
	if !ok {
		return nil, fmt.Errorf("%w: comment %s", apperror.ErrNotFound, commentID)
	}
	if comment.UID != actorUID {
		return nil, fmt.Errorf("%w: not the comment author", apperror.ErrForbidden)
	}

	if err := s.repo.RemoveComment(ctx, articleID, commentID); err != nil {
		return nil, err
	}

	refreshed, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return format.Comments(refreshed.Comments), nil
}

func (s *articleService) Comments(ctx context.Context, articleID string) ([]entity.CommentEntry, error) {
	article, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	return format.Comments(article.Comments), nil
}

func (s *articleService) notify(ctx context.Context, recipientUID string, n entity.Notice) {
	if s.notices == nil {
		return
	}
	if err := s.notices.Notify(ctx, recipientUID, n); err != nil {
		log.Printf("notice delivery to %s failed: %v", recipientUID, err)
	}
}

func toResponse(a *entity.Article) articleDto.ArticleResponse {
	return articleDto.ArticleResponse{
		ID:         a.ID,
		UID:        a.UID,
		Name:       a.AuthorName,
		Job:        a.AuthorJob,
		Photo:      a.AuthorPhoto,
		Content:    a.Content,
		CreateTime: a.CreateTime,
		Likes:      format.Likes(a.Likes),
		Comments:   format.Comments(a.Comments),
		Favorites:  format.Favorites(a.Favorites),
	}
}
