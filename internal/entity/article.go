package entity

import (
	"database/sql/driver"
)

// LikeEntry marks one user's like on an article, with a display snapshot of
// the liker captured at like time.
type LikeEntry struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Job   string `json:"job,omitempty"`
	Photo string `json:"photo,omitempty"`
}

// LikeMap is a set keyed by acting user: at most one entry per uid.
type LikeMap map[string]LikeEntry

func (m LikeMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *LikeMap) Scan(src any) error          { return jsonScan(m, src) }

// CommentEntry is one comment in an article thread. CreateTime has seconds
// granularity and defines the thread order.
type CommentEntry struct {
	ID         string `json:"id"`
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Job        string `json:"job,omitempty"`
	Photo      string `json:"photo,omitempty"`
	Comment    string `json:"comment"`
	CreateTime int64  `json:"create_time"`
}

type CommentMap map[string]CommentEntry

func (m CommentMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *CommentMap) Scan(src any) error          { return jsonScan(m, src) }

// FavoriteMap carries no payload beyond membership; the value repeats the key
// so consumers can rebuild {uid} objects from it.
type FavoriteMap map[string]string

func (m FavoriteMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *FavoriteMap) Scan(src any) error          { return jsonScan(m, src) }

// Article is owned by the user who created it; UID is immutable after create.
// Engagement state is stored as jsonb maps and mutated through targeted field
// updates so concurrent writers never clobber each other.
type Article struct {
	ID          string `gorm:"primaryKey;size:64" json:"id"`
	UID         string `gorm:"size:64;index;not null" json:"uid"`
	AuthorName  string `gorm:"size:100" json:"name"`
	AuthorJob   string `gorm:"size:100" json:"job,omitempty"`
	AuthorPhoto string `gorm:"type:text" json:"photo,omitempty"`

	Content    string `gorm:"type:text;not null" json:"content"`
	CreateTime int64  `gorm:"not null;index" json:"create_time"`

	Likes     LikeMap     `gorm:"type:jsonb" json:"likes"`
	Comments  CommentMap  `gorm:"type:jsonb" json:"comments"`
	Favorites FavoriteMap `gorm:"type:jsonb" json:"favorites"`
}
