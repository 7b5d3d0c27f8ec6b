package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	profileDto "linkupserver/internal/modules/profile/dto"
	profile "linkupserver/internal/modules/profile/service"
	"linkupserver/pkg/apperror"
	"linkupserver/pkg/response"
)

const maxUploadSize = 5 << 20 // 5 MiB

type ProfileHandler struct {
	profileService *profile.ProfileService
}

func NewProfileHandler(profileService *profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get serves GET /users/:uid/profile. The route allows anonymous access;
// viewer identity (when present) comes from the optional auth middleware.
// ?view=true records the visit.
func (h *ProfileHandler) Get(c *gin.Context) {
	uid := c.Param("uid")
	viewerUID, _ := response.GetUserID(c)
	recordView := c.Query("view") == "true"

	res, err := h.profileService.Get(c.Request.Context(), uid, viewerUID, recordView)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "profile", gin.H{"profile": res})
}

// Summary serves GET /profile, the caller's own condensed profile.
func (h *ProfileHandler) Summary(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.profileService.Summary(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "profile summary", gin.H{"profile": res})
}

// Update serves PATCH /profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input profileDto.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	res, err := h.profileService.Update(c.Request.Context(), uid, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "profile updated", gin.H{"profile": res})
}

// UploadPhoto serves POST /profile/photo (multipart field "image").
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	h.upload(c, h.profileService.UpdatePhoto, "photo")
}

// UploadBackgroundCover serves POST /profile/background (multipart field
// "image").
func (h *ProfileHandler) UploadBackgroundCover(c *gin.Context) {
	h.upload(c, h.profileService.UpdateBackgroundCover, "background_cover")
}

func (h *ProfileHandler) upload(c *gin.Context, op func(ctx context.Context, uid string, file *multipart.FileHeader) (string, error), key string) {
	uid, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		response.Error(c, fmt.Errorf("%w: image file required", apperror.ErrBadRequest))
		return
	}
	if file.Size > maxUploadSize {
		response.Error(c, fmt.Errorf("%w: image exceeds 5MB", apperror.ErrBadRequest))
		return
	}

	url, err := op(c.Request.Context(), uid, file)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "image uploaded", gin.H{key: url})
}
