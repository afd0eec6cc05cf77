package players

import (
	"time"

	"github.com/google/uuid"
)

// Status is the operator-facing lifecycle state of a screen.
type Status string

const (
	StatusPending Status = "pending"
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOnline, StatusOffline:
		return true
	}
	return false
}

type Player struct {
	ID             uuid.UUID  `json:"id"`
	GroupID        *uuid.UUID `json:"groupId,omitempty"`
	Name           string     `json:"name"`
	Location       string     `json:"location,omitempty"`
	Status         Status     `json:"status"`
	PlaylistID     *uuid.UUID `json:"playlistId,omitempty"`
	LastConnection *time.Time `json:"lastConnection,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
