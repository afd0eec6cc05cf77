package feeds

import (
	"time"

	"github.com/google/uuid"
)

type Feed struct {
	ID                uuid.UUID  `json:"id"`
	GroupID           *uuid.UUID `json:"groupId,omitempty"`
	Name              string     `json:"name"`
	URL               string     `json:"url"`
	Source            string     `json:"source,omitempty"`
	Duration          int        `json:"duration"`
	Active            bool       `json:"active"`
	LastFetchedAt     *time.Time `json:"lastFetchedAt,omitempty"`
	LastStatus        string     `json:"lastStatus,omitempty"`
	ItemCount         int        `json:"itemCount"`
	ConsecutiveErrors int        `json:"consecutiveErrors"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
