package groups

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	CanManagePlaylists bool      `json:"canManagePlaylists"`
	CanManageMedia     bool      `json:"canManageMedia"`
	CanManagePlayers   bool      `json:"canManagePlayers"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
