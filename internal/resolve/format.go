package resolve

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNoPlayableItems marks the normal "empty after resolution" outcome:
// every reference in the tree was missing, inactive, or pruned. Callers
// report it as a not-found condition, not a server failure.
var ErrNoPlayableItems = errors.New("playlist has no playable items")

// PlayerItem is the player-consumption shape of one record: a directly
// fetchable URL and ISO-8601 window bounds (explicit null when unbounded).
type PlayerItem struct {
	ID              uuid.UUID  `json:"id"`
	MediaID         *uuid.UUID `json:"mediaId,omitempty"`
	RSS             *uuid.UUID `json:"rss,omitempty"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	URL             string     `json:"url"`
	Duration        int        `json:"duration"`
	Order           float64    `json:"order"`
	StartDateTime   *string    `json:"startDateTime"`
	EndDateTime     *string    `json:"endDateTime"`
	ParentPlaylist  uuid.UUID  `json:"parentPlaylist"`
	FromSubPlaylist *uuid.UUID `json:"fromSubPlaylist,omitempty"`
	SubPlaylistName string     `json:"subPlaylistName,omitempty"`
}

type PlayerPlaylist struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Items       []PlayerItem `json:"items"`
}

// ExportItem is the export shape: stored locators as-is, no player URL, and
// provenance fields only when the record came out of a sub-playlist.
type ExportItem struct {
	ID              uuid.UUID  `json:"id"`
	MediaID         *uuid.UUID `json:"mediaId,omitempty"`
	RSS             *uuid.UUID `json:"rss,omitempty"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Duration        int        `json:"duration"`
	Order           float64    `json:"order"`
	DownloadURL     string     `json:"downloadUrl,omitempty"`
	MimeType        string     `json:"mimeType,omitempty"`
	ParentPlaylist  uuid.UUID  `json:"parentPlaylist"`
	FromSubPlaylist *uuid.UUID `json:"fromSubPlaylist,omitempty"`
	SubPlaylistName string     `json:"subPlaylistName,omitempty"`
}

type ExportPlaylist struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Items       []ExportItem `json:"items"`
}

// FormatPlayer shapes records for direct player consumption. Media URLs are
// built from the configured public base; feed URLs use the stored locator,
// falling back to the server's feed view route.
func FormatPlayer(pl *Playlist, recs []Record, baseURL string) (*PlayerPlaylist, error) {
	if len(recs) == 0 {
		return nil, ErrNoPlayableItems
	}
	sorted := make([]Record, len(recs))
	copy(sorted, recs)
	SortRecords(sorted)

	items := make([]PlayerItem, 0, len(sorted))
	for _, rec := range sorted {
		var url string
		switch {
		case rec.MediaID != nil:
			url = fmt.Sprintf("%s/api/media/%s/file", baseURL, rec.MediaID)
		case rec.FeedID != nil && rec.Locator != "":
			url = rec.Locator
		case rec.FeedID != nil:
			url = fmt.Sprintf("%s/api/feeds/%s/view", baseURL, rec.FeedID)
		}
		items = append(items, PlayerItem{
			ID:              rec.ItemID,
			MediaID:         rec.MediaID,
			RSS:             rec.FeedID,
			Name:            rec.Name,
			Type:            rec.Type,
			URL:             url,
			Duration:        rec.Duration,
			Order:           rec.Order,
			StartDateTime:   isoOrNil(rec.StartAt),
			EndDateTime:     isoOrNil(rec.EndAt),
			ParentPlaylist:  rec.ParentPlaylist,
			FromSubPlaylist: rec.FromSubPlaylist,
			SubPlaylistName: rec.SubPlaylistName,
		})
	}
	return &PlayerPlaylist{
		ID:          pl.ID,
		Name:        pl.Name,
		Description: pl.Description,
		Items:       items,
	}, nil
}

// FormatExport shapes records for download/export tooling.
func FormatExport(pl *Playlist, recs []Record) (*ExportPlaylist, error) {
	if len(recs) == 0 {
		return nil, ErrNoPlayableItems
	}
	sorted := make([]Record, len(recs))
	copy(sorted, recs)
	SortRecords(sorted)

	items := make([]ExportItem, 0, len(sorted))
	for _, rec := range sorted {
		items = append(items, ExportItem{
			ID:              rec.ItemID,
			MediaID:         rec.MediaID,
			RSS:             rec.FeedID,
			Name:            rec.Name,
			Type:            rec.Type,
			Duration:        rec.Duration,
			Order:           rec.Order,
			DownloadURL:     rec.Locator,
			MimeType:        rec.MimeType,
			ParentPlaylist:  rec.ParentPlaylist,
			FromSubPlaylist: rec.FromSubPlaylist,
			SubPlaylistName: rec.SubPlaylistName,
		})
	}
	return &ExportPlaylist{
		ID:          pl.ID,
		Name:        pl.Name,
		Description: pl.Description,
		Items:       items,
	}, nil
}

func isoOrNil(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
