package entity

import (
	"database/sql/driver"
	"time"
)

// ConnectionEntry is the denormalized view of the user on the other end of an
// edge. Name, job, photo and connections_qty are snapshots captured when the
// entry was written; they are never re-synced afterwards.
type ConnectionEntry struct {
	UID            string `json:"uid"`
	Name           string `json:"name"`
	Job            string `json:"job,omitempty"`
	Photo          string `json:"photo,omitempty"`
	ConnectionsQty int    `json:"connections_qty"`
	CreateTime     int64  `json:"create_time"`
	ConnectedTime  int64  `json:"connected_time,omitempty"`
}

// Connections holds one user's half of every edge they participate in.
// For a pair {A,B} exactly one of these holds: no entry anywhere, a sent entry
// on one side mirrored by a received entry on the other, or a connected entry
// on both sides.
type Connections struct {
	Sent      map[string]ConnectionEntry `json:"sent,omitempty"`
	Received  map[string]ConnectionEntry `json:"received,omitempty"`
	Connected map[string]ConnectionEntry `json:"connected,omitempty"`
}

func (c Connections) Value() (driver.Value, error) { return jsonValue(c) }
func (c *Connections) Scan(src any) error          { return jsonScan(c, src) }

// Notice types written by the notification sink.
const (
	NoticeTypeConnect       = "connect"
	NoticeTypeConnectAccept = "connect_accept"
	NoticeTypeLike          = "like"
	NoticeTypeComment       = "comment"
)

// Notice is an advisory record of a social event in the recipient's feed.
// Append-only; the sink never updates or deletes entries.
type Notice struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Status     bool   `json:"status"`
	CreateTime int64  `json:"create_time"`
	ArticleID  string `json:"article_id,omitempty"`
}

type NoticeMap map[string]Notice

func (m NoticeMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *NoticeMap) Scan(src any) error          { return jsonScan(m, src) }

// ProfileView records a single logged-in visit to a profile.
type ProfileView struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	Job       string `json:"job,omitempty"`
	Photo     string `json:"photo,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Views tracks profile visits. The total counts every visit including
// anonymous ones; profile_views only keeps the latest visit per viewer.
type Views struct {
	ProfileViews      map[string]ProfileView `json:"profile_views,omitempty"`
	ProfileViewsTotal int64                  `json:"profile_views_total"`
}

func (v Views) Value() (driver.Value, error) { return jsonValue(v) }
func (v *Views) Scan(src any) error          { return jsonScan(v, src) }

// Experience and Project entries are profile content keyed by a generated id;
// read paths flatten them into arrays.
type Experience struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company,omitempty"`
	Description string `json:"description,omitempty"`
	StartTime   int64  `json:"start_time,omitempty"`
	EndTime     int64  `json:"end_time,omitempty"`
}

type ExperienceMap map[string]Experience

func (m ExperienceMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *ExperienceMap) Scan(src any) error          { return jsonScan(m, src) }

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Photo       string `json:"photo,omitempty"`
}

type ProjectMap map[string]Project

func (m ProjectMap) Value() (driver.Value, error) { return jsonValue(m) }
func (m *ProjectMap) Scan(src any) error          { return jsonScan(m, src) }

type StringList []string

func (l StringList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *StringList) Scan(src any) error          { return jsonScan(l, src) }

// User is the profile document. Connection edges and notices live inside the
// row as denormalized jsonb maps rather than as join tables, matching the
// shape the formatter and the dual-row transaction operate on.
type User struct {
	UID          string `gorm:"primaryKey;size:64" json:"uid"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	Name              string     `gorm:"size:100;not null" json:"name"`
	Phone             string     `gorm:"size:20" json:"phone,omitempty"`
	City              string     `gorm:"size:100" json:"city,omitempty"`
	Job               string     `gorm:"size:100" json:"job,omitempty"`
	Photo             string     `gorm:"type:text" json:"photo,omitempty"`
	BackgroundCover   string     `gorm:"type:text" json:"background_cover,omitempty"`
	BriefIntroduction string     `gorm:"type:text" json:"brief_introduction,omitempty"`
	Introduction      string     `gorm:"type:text" json:"introduction,omitempty"`
	Description       string     `gorm:"type:text" json:"description,omitempty"`
	About             string     `gorm:"type:text" json:"about,omitempty"`
	Education         string     `gorm:"size:255" json:"education,omitempty"`
	Skills            StringList `gorm:"type:jsonb" json:"skills,omitempty"`

	Experience  ExperienceMap `gorm:"type:jsonb" json:"experience,omitempty"`
	Projects    ProjectMap    `gorm:"type:jsonb" json:"projects,omitempty"`
	Connections Connections   `gorm:"type:jsonb" json:"connections"`
	Notices     NoticeMap     `gorm:"type:jsonb" json:"notices,omitempty"`
	Views       Views         `gorm:"type:jsonb" json:"views"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
