package handler

import (
	"net/http"

	userDto "linkupserver/internal/modules/user/dto"
	user "linkupserver/internal/modules/user/service"
	"linkupserver/pkg/response"
	"linkupserver/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService user.AuthService
}

func NewAuthHandler(authService user.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input userDto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": validator.FormatValidationError(err)})
		return
	}

	res, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Register success", gin.H{
		"uid":     res.UID,
		"token":   res.Token,
		"expired": res.Expired,
	})
}

func (h *AuthHandler) Signin(c *gin.Context) {
	var input userDto.SigninInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": validator.FormatValidationError(err)})
		return
	}

	res, err := h.authService.Signin(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "signin success", gin.H{
		"uid":     res.UID,
		"token":   res.Token,
		"expired": res.Expired,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := bearerToken(c)
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "logout success", nil)
}

func (h *AuthHandler) Check(c *gin.Context) {
	token := bearerToken(c)
	uid, err := h.authService.Check(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Is login", gin.H{"uid": uid})
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return authHeader
}
