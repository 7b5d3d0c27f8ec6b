package dto

import (
	"linkupserver/internal/entity"
	"linkupserver/internal/format"
)

// UpdateProfileInput carries only the fields the caller wants to change.
type UpdateProfileInput struct {
	Name              *string   `json:"name"`
	Job               *string   `json:"job"`
	City              *string   `json:"city"`
	BriefIntroduction *string   `json:"brief_introduction"`
	Introduction      *string   `json:"introduction"`
	Description       *string   `json:"description"`
	About             *string   `json:"about"`
	Education         *string   `json:"education"`
	Skills            *[]string `json:"skills"`
}

// ProfileResponse is the public profile view. Handlers never assemble the
// connection arrays themselves; they come from the formatter.
type ProfileResponse struct {
	UID               string                 `json:"uid"`
	Name              string                 `json:"name"`
	Photo             string                 `json:"photo,omitempty"`
	BackgroundCover   string                 `json:"background_cover,omitempty"`
	City              string                 `json:"city,omitempty"`
	Job               string                 `json:"job,omitempty"`
	BriefIntroduction string                 `json:"brief_introduction,omitempty"`
	Introduction      string                 `json:"introduction,omitempty"`
	Description       string                 `json:"description,omitempty"`
	About             string                 `json:"about,omitempty"`
	Education         string                 `json:"education,omitempty"`
	Skills            []string               `json:"skills"`
	Experience        []entity.Experience    `json:"experience"`
	Projects          []entity.Project       `json:"projects"`
	Connections       format.ConnectionsView `json:"connections"`
	ConnectionsQty    int                    `json:"connections_qty"`
	Views             format.ViewsView       `json:"views"`
}

// ProfileSummary is the caller's own condensed profile.
type ProfileSummary struct {
	UID               string   `json:"uid"`
	Name              string   `json:"name"`
	Photo             string   `json:"photo,omitempty"`
	City              string   `json:"city,omitempty"`
	Job               string   `json:"job,omitempty"`
	BriefIntroduction string   `json:"brief_introduction,omitempty"`
	Introduction      string   `json:"introduction,omitempty"`
	Education         string   `json:"education,omitempty"`
	Skills            []string `json:"skills"`
	ConnectionsQty    int      `json:"connections_qty"`
}
