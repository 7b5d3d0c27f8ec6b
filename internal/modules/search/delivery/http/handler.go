package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	search "linkupserver/internal/modules/search/service"
	"linkupserver/pkg/apperror"
	"linkupserver/pkg/response"
)

type SearchHandler struct {
	searchService search.SearchService
}

func NewSearchHandler(searchService search.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Members serves GET /users/search?q=.
func (h *SearchHandler) Members(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.Error(c, fmt.Errorf("%w: query parameter q is required", apperror.ErrBadRequest))
		return
	}

	hits, err := h.searchService.Search(query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "search results", gin.H{"members": hits})
}
