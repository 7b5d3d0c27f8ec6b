package handler

import (
	"net/http"

	articleDto "linkupserver/internal/modules/article/dto"
	article "linkupserver/internal/modules/article/service"
	"linkupserver/pkg/response"
	"linkupserver/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	articleService article.ArticleService
}

func NewArticleHandler(articleService article.ArticleService) *ArticleHandler {
	return &ArticleHandler{articleService: articleService}
}

func (h *ArticleHandler) Create(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input articleDto.CreateArticleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": validator.FormatValidationError(err)})
		return
	}

	res, err := h.articleService.Create(c.Request.Context(), uid, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "create success", gin.H{"article": res})
}

func (h *ArticleHandler) Delete(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.articleService.Delete(c.Request.Context(), c.Param("id"), uid); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "delete success", nil)
}

func (h *ArticleHandler) ListByUser(c *gin.Context) {
	articles, err := h.articleService.ListByUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "get success", gin.H{"articles": articles})
}

func (h *ArticleHandler) Like(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	likes, err := h.articleService.Like(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "like success", gin.H{"likes": likes})
}

func (h *ArticleHandler) Unlike(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	likes, err := h.articleService.Unlike(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "unlike success", gin.H{"likes": likes})
}

func (h *ArticleHandler) Favorite(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	favorites, err := h.articleService.Favorite(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "favorite success", gin.H{"favorites": favorites})
}

func (h *ArticleHandler) Unfavorite(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	favorites, err := h.articleService.Unfavorite(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "unfavorite success", gin.H{"favorites": favorites})
}

func (h *ArticleHandler) AddComment(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input articleDto.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": validator.FormatValidationError(err)})
		return
	}

	comments, err := h.articleService.AddComment(c.Request.Context(), c.Param("id"), uid, input.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "comment success", gin.H{"comments": comments})
}

func (h *ArticleHandler) DeleteComment(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	comments, err := h.articleService.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("commentId"), uid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "delete comment success", gin.H{"comments": comments})
}

func (h *ArticleHandler) Comments(c *gin.Context) {
	comments, err := h.articleService.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "get success", gin.H{"comments": comments})
}
