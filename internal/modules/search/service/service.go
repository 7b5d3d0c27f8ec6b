package service

import (
	"encoding/json"
	"fmt"
	"log"

	"linkupserver/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const membersIndex = "members"

// MemberDoc is the member-directory document shape.
type MemberDoc struct {
	UID               string `json:"uid"`
	Name              string `json:"name"`
	Job               string `json:"job,omitempty"`
	City              string `json:"city,omitempty"`
	Photo             string `json:"photo,omitempty"`
	BriefIntroduction string `json:"brief_introduction,omitempty"`
}

// SearchService keeps the member directory index in sync and serves queries.
// Indexing is best-effort: callers log failures, the primary action stands.
type SearchService interface {
	IndexMember(user *entity.User) error
	Search(query string) ([]MemberDoc, error)
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *searchService) initIndex() {
	searchable := []string{"name", "job", "city", "brief_introduction"}
	if _, err := s.client.Index(membersIndex).UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("Failed to update members searchable attributes: %v", err)
	}
	log.Println("Meilisearch members index initialized")
}

func (s *searchService) IndexMember(user *entity.User) error {
	doc := MemberDoc{
		UID:               user.UID,
		Name:              user.Name,
		Job:               user.Job,
		City:              user.City,
		Photo:             user.Photo,
		BriefIntroduction: s.sanitizer.Sanitize(user.BriefIntroduction),
	}

	task, err := s.client.Index(membersIndex).AddDocuments([]MemberDoc{doc}, strPtr("uid"))
	if err != nil {
		return err
	}
	log.Printf("Indexed member %s, task id: %d", user.UID, task.TaskUID)
	return nil
}

func (s *searchService) Search(query string) ([]MemberDoc, error) {
	raw, err := s.client.Index(membersIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Limit: 20,
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []MemberDoc{}, nil
	}

	var decoded struct {
		Hits []MemberDoc `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if decoded.Hits == nil {
		decoded.Hits = []MemberDoc{}
	}
	return decoded.Hits, nil
}

func strPtr(s string) *string {
	return &s
}
