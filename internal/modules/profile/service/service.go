package service

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"linkupserver/internal/entity"
	"linkupserver/internal/format"
	"linkupserver/internal/modules/profile/dto"
	searchservice "linkupserver/internal/modules/search/service"
	userrepo "linkupserver/internal/modules/user/repository"
	"linkupserver/pkg/apperror"
	"linkupserver/pkg/storage"
)

type ProfileService struct {
	users  userrepo.UserRepository
	images storage.ImageStorage
	search searchservice.SearchService

	richPolicy  *bluemonday.Policy
	plainPolicy *bluemonday.Policy
	now         func() time.Time
}

func NewProfileService(users userrepo.UserRepository, images storage.ImageStorage, search searchservice.SearchService) *ProfileService {
	return &ProfileService{
		users:       users,
		images:      images,
		search:      search,
		richPolicy:  bluemonday.UGCPolicy(),
		plainPolicy: bluemonday.StrictPolicy(),
		now:         time.Now,
	}
}

// Get returns uid's public profile. When recordView is true the lookup also
// counts as a profile visit: an authenticated viewer (viewerUID non-empty and
// different from uid) leaves a snapshot, an anonymous one only bumps the
// running total.
func (s *ProfileService) Get(ctx context.Context, uid, viewerUID string, recordView bool) (*dto.ProfileResponse, error) {
	user, err := s.users.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if recordView && viewerUID != uid {
		if err := s.recordView(ctx, user, viewerUID); err != nil {
			// Views are best effort, the profile read still succeeds.
			log.Printf("profile: record view on %s failed: %v", uid, err)
		}
	}

	resp := s.toResponse(user)
	if viewerUID != uid {
		// View history is private to the owner.
		resp.Views = format.ViewsView{ProfileViews: []entity.ProfileView{}}
	}
	return resp, nil
}

// Summary returns the caller's own condensed profile.
func (s *ProfileService) Summary(ctx context.Context, uid string) (*dto.ProfileSummary, error) {
	user, err := s.users.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &dto.ProfileSummary{
		UID:               user.UID,
		Name:              user.Name,
		Photo:             user.Photo,
		City:              user.City,
		Job:               user.Job,
		BriefIntroduction: user.BriefIntroduction,
		Introduction:      user.Introduction,
		Education:         user.Education,
		Skills:            user.Skills,
		ConnectionsQty:    len(user.Connections.Connected),
	}, nil
}

// Update applies the non-nil fields of input to the caller's profile and
// reindexes the member for search.
func (s *ProfileService) Update(ctx context.Context, uid string, input dto.UpdateProfileInput) (*dto.ProfileResponse, error) {
	fields := map[string]any{}
	setString := func(column string, v *string, policy *bluemonday.Policy) {
		if v != nil {
			fields[column] = policy.Sanitize(*v)
		}
	}
	setString("name", input.Name, s.plainPolicy)
	setString("job", input.Job, s.plainPolicy)
	setString("city", input.City, s.plainPolicy)
	setString("brief_introduction", input.BriefIntroduction, s.plainPolicy)
	setString("introduction", input.Introduction, s.plainPolicy)
	setString("education", input.Education, s.plainPolicy)
	setString("description", input.Description, s.richPolicy)
	setString("about", input.About, s.richPolicy)
	if input.Skills != nil {
		skills := make(entity.StringList, 0, len(*input.Skills))
		for _, skill := range *input.Skills {
			skills = append(skills, s.plainPolicy.Sanitize(skill))
		}
		fields["skills"] = skills
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", apperror.ErrBadRequest)
	}

	if err := s.users.UpdateFields(ctx, uid, fields); err != nil {
		return nil, err
	}
	user, err := s.users.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.reindex(user)
	return s.toResponse(user), nil
}

// UpdatePhoto uploads the image and stores its URL as the profile photo.
func (s *ProfileService) UpdatePhoto(ctx context.Context, uid string, file *multipart.FileHeader) (string, error) {
	return s.updateImage(ctx, uid, file, "photo", "linkup/photos")
}

// UpdateBackgroundCover uploads the image and stores its URL as the profile
// background cover.
func (s *ProfileService) UpdateBackgroundCover(ctx context.Context, uid string, file *multipart.FileHeader) (string, error) {
	return s.updateImage(ctx, uid, file, "background_cover", "linkup/covers")
}

func (s *ProfileService) updateImage(ctx context.Context, uid string, file *multipart.FileHeader, column, folder string) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("%w: image storage not configured", apperror.ErrInternal)
	}
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	fileName := fmt.Sprintf("%s-%s%s", uid, uuid.NewString(), ext)
	url, err := s.images.UploadImage(ctx, src, folder, fileName)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdateFields(ctx, uid, map[string]any{column: url}); err != nil {
		return "", err
	}
	if column == "photo" {
		if user, ferr := s.users.FindByUID(ctx, uid); ferr == nil {
			s.reindex(user)
		}
	}
	return url, nil
}

func (s *ProfileService) recordView(ctx context.Context, target *entity.User, viewerUID string) error {
	if viewerUID == "" {
		return s.users.RecordView(ctx, target.UID, nil)
	}
	viewer, err := s.users.FindByUID(ctx, viewerUID)
	if err != nil {
		return err
	}
	view := entity.ProfileView{
		UID:       viewer.UID,
		Name:      viewer.Name,
		Job:       viewer.Job,
		Photo:     viewer.Photo,
		Timestamp: s.now().Unix(),
	}
	return s.users.RecordView(ctx, target.UID, &view)
}

func (s *ProfileService) reindex(user *entity.User) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexMember(user); err != nil {
		log.Printf("profile: reindex %s failed: %v", user.UID, err)
	}
}

func (s *ProfileService) toResponse(u *entity.User) *dto.ProfileResponse {
	connections := format.Connections(u.Connections)
	return &dto.ProfileResponse{
		UID:               u.UID,
		Name:              u.Name,
		Photo:             u.Photo,
		BackgroundCover:   u.BackgroundCover,
		City:              u.City,
		Job:               u.Job,
		BriefIntroduction: u.BriefIntroduction,
		Introduction:      u.Introduction,
		Description:       u.Description,
		About:             u.About,
		Education:         u.Education,
		Skills:            u.Skills,
		Experience:        format.Experiences(u.Experience),
		Projects:          format.Projects(u.Projects),
		Connections:       connections,
		ConnectionsQty:    connections.Qty(),
		Views:             format.Views(u.Views),
	}
}
