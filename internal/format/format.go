// Package format shapes raw denormalized maps into response-ready ordered
// collections. Pure transformations only: no I/O, no state.
package format

import (
	"sort"

	"linkupserver/internal/entity"
)

// ConnectionsView is the public shape of a user's connection graph. Handlers
// never assemble this themselves; it is produced here and nowhere else.
type ConnectionsView struct {
	Sent      []entity.ConnectionEntry `json:"sent"`
	Received  []entity.ConnectionEntry `json:"received"`
	Connected []entity.ConnectionEntry `json:"connected"`
}

// Qty reports the connected count. Embedded snapshot counts inside entries
// are intentionally not recomputed from this.
func (v ConnectionsView) Qty() int { return len(v.Connected) }

// Connections expands the three edge maps into arrays. Order within each
// array is by create time, then uid, so repeated reads are reproducible.
func Connections(c entity.Connections) ConnectionsView {
	return ConnectionsView{
		Sent:      connectionList(c.Sent),
		Received:  connectionList(c.Received),
		Connected: connectionList(c.Connected),
	}
}

func connectionList(m map[string]entity.ConnectionEntry) []entity.ConnectionEntry {
	out := make([]entity.ConnectionEntry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreateTime != out[j].CreateTime {
			return out[i].CreateTime < out[j].CreateTime
		}
		return out[i].UID < out[j].UID
	})
	return out
}

// Comments returns the thread ordered ascending by creation time; ties break
// on id so the order is stable at seconds granularity.
func Comments(m entity.CommentMap) []entity.CommentEntry {
	out := make([]entity.CommentEntry, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreateTime != out[j].CreateTime {
			return out[i].CreateTime < out[j].CreateTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Likes has no required order but must be deterministic within a response.
func Likes(m entity.LikeMap) []entity.LikeEntry {
	out := make([]entity.LikeEntry, 0, len(m))
	for _, l := range m {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// FavoriteRef is the {uid} shape rebuilt from the favorites key set.
type FavoriteRef struct {
	UID string `json:"uid"`
}

func Favorites(m entity.FavoriteMap) []FavoriteRef {
	uids := make([]string, 0, len(m))
	for uid := range m {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	out := make([]FavoriteRef, 0, len(uids))
	for _, uid := range uids {
		out = append(out, FavoriteRef{UID: uid})
	}
	return out
}

// Notices returns the feed in a stable order: creation time ascending, ties
// broken on id. No further sort guarantee is part of the contract.
func Notices(m entity.NoticeMap) []entity.Notice {
	out := make([]entity.Notice, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreateTime != out[j].CreateTime {
			return out[i].CreateTime < out[j].CreateTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ViewsView lists profile visits newest-first with the running total.
type ViewsView struct {
	ProfileViews      []entity.ProfileView `json:"profile_views"`
	ProfileViewsTotal int64                `json:"profile_views_total"`
}

func Views(v entity.Views) ViewsView {
	out := make([]entity.ProfileView, 0, len(v.ProfileViews))
	for _, pv := range v.ProfileViews {
		out = append(out, pv)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].UID < out[j].UID
	})
	return ViewsView{ProfileViews: out, ProfileViewsTotal: v.ProfileViewsTotal}
}

// Experience entries ordered by start time descending (most recent first).
func Experiences(m entity.ExperienceMap) []entity.Experience {
	out := make([]entity.Experience, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime > out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func Projects(m entity.ProjectMap) []entity.Project {
	out := make([]entity.Project, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
