package dto

import (
	"linkupserver/internal/entity"
	"linkupserver/internal/format"
)

type CreateArticleInput struct {
	Content string `json:"content" binding:"required"`
}

type CommentInput struct {
	Comment string `json:"comment" binding:"required"`
}

// ArticleResponse is the read shape: the engagement maps flattened into the
// ordered lists the formatter defines.
type ArticleResponse struct {
	ID         string                 `json:"id"`
	UID        string                 `json:"uid"`
	Name       string                 `json:"name"`
	Job        string                 `json:"job,omitempty"`
	Photo      string                 `json:"photo,omitempty"`
	Content    string                 `json:"content"`
	CreateTime int64                  `json:"create_time"`
	Likes      []entity.LikeEntry     `json:"likes"`
	Comments   []entity.CommentEntry  `json:"comments"`
	Favorites  []format.FavoriteRef   `json:"favorites"`
}
