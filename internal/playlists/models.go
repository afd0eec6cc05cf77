package playlists

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ItemKind says which reference column a playlist item uses.
type ItemKind string

const (
	ItemMedia       ItemKind = "media"
	ItemSubPlaylist ItemKind = "playlist"
	ItemFeed        ItemKind = "rss"
)

func (k ItemKind) Valid() bool {
	switch k {
	case ItemMedia, ItemSubPlaylist, ItemFeed:
		return true
	}
	return false
}

type Playlist struct {
	ID          uuid.UUID  `json:"id"`
	GroupID     *uuid.UUID `json:"groupId,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Active      bool       `json:"active"`
	CreatedBy   *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Items []*Item `json:"items,omitempty"`
}

// Item is one entry of a playlist. Exactly one of MediaID, SubPlaylistID
// and FeedID is set, matching Kind; the database enforces the same rule.
type Item struct {
	ID            uuid.UUID  `json:"id"`
	PlaylistID    uuid.UUID  `json:"playlistId"`
	Kind          ItemKind   `json:"kind"`
	MediaID       *uuid.UUID `json:"mediaId,omitempty"`
	SubPlaylistID *uuid.UUID `json:"subPlaylistId,omitempty"`
	FeedID        *uuid.UUID `json:"feedId,omitempty"`
	Duration      int        `json:"duration"`
	Position      int        `json:"position"`
	StartAt       *time.Time `json:"startAt,omitempty"`
	EndAt         *time.Time `json:"endAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// parseWindow turns optional RFC 3339 strings into a validity window.
func parseWindow(startRaw, endRaw *string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startRaw != nil && *startRaw != "" {
		t, err := time.Parse(time.RFC3339, *startRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("startAt must be an RFC 3339 timestamp")
		}
		start = &t
	}
	if endRaw != nil && *endRaw != "" {
		t, err := time.Parse(time.RFC3339, *endRaw)
		if err != nil {
			return nil, nil, fmt.Errorf("endAt must be an RFC 3339 timestamp")
		}
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, fmt.Errorf("endAt must be after startAt")
	}
	return start, end, nil
}

// Ref returns the single reference the item carries.
func (it *Item) Ref() uuid.UUID {
	switch it.Kind {
	case ItemMedia:
		if it.MediaID != nil {
			return *it.MediaID
		}
	case ItemSubPlaylist:
		if it.SubPlaylistID != nil {
			return *it.SubPlaylistID
		}
	case ItemFeed:
		if it.FeedID != nil {
			return *it.FeedID
		}
	}
	return uuid.Nil
}
