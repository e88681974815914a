package source

import (
	"time"

	"feedreader/internal/domain/entity"
)

type DTO struct {
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Link          string     `json:"link"`
	Description   string     `json:"description"`
	Entries       int        `json:"entries"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

func toDTO(s entity.SourceSnapshot) DTO {
	return DTO{
		URL:           s.URL,
		Title:         s.Title,
		Link:          s.Link,
		Description:   s.Description,
		Entries:       len(s.Entries),
		LastFetchedAt: s.LastFetchedAt,
		LastError:     s.LastError,
	}
}
