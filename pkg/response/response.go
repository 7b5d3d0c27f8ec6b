package response

import (
	"errors"
	"log"
	"net/http"

	"linkupserver/pkg/apperror"
	"github.com/gin-gonic/gin"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", apperror.ErrUnauthorized
	}

	uid, ok := userID.(string)
	if !ok || uid == "" {
		return "", apperror.ErrUnauthorized
	}

	return uid, nil
}

// OK writes the success envelope used across the API.
func OK(c *gin.Context, message string, data gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Error standardized error response
func Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Consistency faults and internal errors must always be visible to
	// operators, not just the caller.
	if code == http.StatusInternalServerError ||
		errors.Is(err, apperror.ErrInconsistentState) ||
		errors.Is(err, apperror.ErrPartialWrite) {
		log.Printf("[Internal Error]: %v", err)
	}

	c.JSON(code, gin.H{"success": false, "message": err.Error()})
}
