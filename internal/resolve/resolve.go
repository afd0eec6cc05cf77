// Package resolve expands a playlist reference, possibly containing nested
// sub-playlists and feed items, into the flat ordered sequence of playable
// records a signage player consumes. Expansion is a pure read: lookups go
// through Store, nothing is written, and every call builds its own cycle
// state, so concurrent expansions never share mutable state.
package resolve

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// ItemKind discriminates what an item's Ref points to.
type ItemKind string

const (
	ItemMedia       ItemKind = "media"
	ItemSubPlaylist ItemKind = "playlist"
	ItemFeed        ItemKind = "rss"
)

// MediaKind is the stored media asset type.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaHTML  MediaKind = "html"
)

// Default durations, in seconds, applied when an item carries no positive
// duration of its own and the referenced entity supplies none.
const (
	DefaultImageSeconds    = 10
	DefaultDocumentSeconds = 30
	DefaultFeedSeconds     = 60
)

// MaxDepth bounds nesting for acyclic but pathologically deep trees. Branches
// past it contribute nothing; expansion never errors or overflows.
const MaxDepth = 16

// Playlist is the expansion view of a playlist. Items appear in stable input
// order (creation order), not sorted by their declared Order; ordering is
// applied to the output, where equal effective orders keep input sequence.
type Playlist struct {
	ID          uuid.UUID
	Name        string
	Description string
	Active      bool
	Items       []Item
}

// Item is one playlist entry. Ref is the single payload reference and Kind
// says what it points to, so an item cannot carry two payloads or none.
type Item struct {
	ID       uuid.UUID
	Kind     ItemKind
	Ref      uuid.UUID
	Duration int
	Order    int
	StartAt  *time.Time
	EndAt    *time.Time
}

type Media struct {
	ID          uuid.UUID
	Name        string
	Kind        MediaKind
	Duration    int
	DownloadURL string
	MimeType    string
}

type Feed struct {
	ID     uuid.UUID
	Name   string
	URL    string
	Active bool
}

// Store supplies the read-only lookups expansion needs. Absent (or
// soft-deleted, for media) entities are (nil, nil); an error means the
// storage layer itself failed and aborts the whole expansion.
type Store interface {
	PlaylistByID(ctx context.Context, id uuid.UUID) (*Playlist, error)
	MediaByID(ctx context.Context, id uuid.UUID) (*Media, error)
	FeedByID(ctx context.Context, id uuid.UUID) (*Feed, error)
}

// Record is one flat, player-ready output unit.
type Record struct {
	ItemID          uuid.UUID
	MediaID         *uuid.UUID
	FeedID          *uuid.UUID
	Name            string
	Type            string // media kind, or "rss"
	Duration        int
	Order           float64
	StartAt         *time.Time
	EndAt           *time.Time
	Locator         string // stored download/feed locator
	MimeType        string
	ParentPlaylist  uuid.UUID  // playlist directly containing the item
	FromSubPlaylist *uuid.UUID // immediate containing sub-playlist, if nested
	SubPlaylistName string
}

type Resolver struct {
	store Store
}

func New(store Store) *Resolver {
	return &Resolver{store: store}
}

// Expand resolves a playlist into its flat record list. Missing or inactive
// playlists yield an empty list; cycles and dangling references are pruned
// silently. Only storage failures return an error.
func (r *Resolver) Expand(ctx context.Context, playlistID uuid.UUID) ([]Record, error) {
	return r.expand(ctx, playlistID, OpenSet{}, 0)
}

func (r *Resolver) expand(ctx context.Context, id uuid.UUID, open OpenSet, depth int) ([]Record, error) {
	if depth > MaxDepth {
		log.Printf("[resolve] depth ceiling reached, truncating at playlist %s", id)
		return nil, nil
	}

	open, ok := open.Enter(id)
	if !ok {
		log.Printf("[resolve] playlist cycle detected at %s", id)
		return nil, nil
	}

	pl, err := r.store.PlaylistByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load playlist %s: %w", id, err)
	}
	if pl == nil || !pl.Active {
		return nil, nil
	}

	var out []Record
	for _, item := range pl.Items {
		recs, err := r.resolveItem(ctx, pl, item, open, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// resolveItem turns one item into zero or more records. Zero only for a
// missing/inactive referenced entity or a detected cycle.
func (r *Resolver) resolveItem(ctx context.Context, parent *Playlist, item Item, open OpenSet, depth int) ([]Record, error) {
	switch item.Kind {
	case ItemMedia:
		m, err := r.store.MediaByID(ctx, item.Ref)
		if err != nil {
			return nil, fmt.Errorf("load media %s: %w", item.Ref, err)
		}
		if m == nil {
			return nil, nil
		}
		mediaID := m.ID
		return []Record{{
			ItemID:         item.ID,
			MediaID:        &mediaID,
			Name:           m.Name,
			Type:           string(m.Kind),
			Duration:       effectiveMediaDuration(item, m),
			Order:          float64(item.Order),
			StartAt:        item.StartAt,
			EndAt:          item.EndAt,
			Locator:        m.DownloadURL,
			MimeType:       m.MimeType,
			ParentPlaylist: parent.ID,
		}}, nil

	case ItemSubPlaylist:
		if item.Ref == parent.ID {
			log.Printf("[resolve] playlist %s references itself, dropping item %s", parent.ID, item.ID)
			return nil, nil
		}
		if open.Contains(item.Ref) {
			log.Printf("[resolve] playlist cycle detected at %s, dropping item %s", item.Ref, item.ID)
			return nil, nil
		}
		sub, err := r.store.PlaylistByID(ctx, item.Ref)
		if err != nil {
			return nil, fmt.Errorf("load sub-playlist %s: %w", item.Ref, err)
		}
		if sub == nil || !sub.Active {
			return nil, nil
		}
		recs, err := r.expand(ctx, sub.ID, open, depth+1)
		if err != nil {
			return nil, err
		}
		Rehome(recs, item.Order, sub.ID, sub.Name)
		return recs, nil

	case ItemFeed:
		f, err := r.store.FeedByID(ctx, item.Ref)
		if err != nil {
			return nil, fmt.Errorf("load feed %s: %w", item.Ref, err)
		}
		if f == nil || !f.Active {
			return nil, nil
		}
		duration := item.Duration
		if duration <= 0 {
			duration = DefaultFeedSeconds
		}
		feedID := f.ID
		name := f.Name
		if name == "" {
			name = "RSS feed"
		}
		return []Record{{
			ItemID:         item.ID,
			FeedID:         &feedID,
			Name:           name,
			Type:           string(ItemFeed),
			Duration:       duration,
			Order:          float64(item.Order),
			StartAt:        item.StartAt,
			EndAt:          item.EndAt,
			Locator:        f.URL,
			ParentPlaylist: parent.ID,
		}}, nil
	}

	log.Printf("[resolve] unknown item kind %q on item %s", item.Kind, item.ID)
	return nil, nil
}

// effectiveMediaDuration applies the fallback chain: a positive per-item
// duration wins; otherwise video uses the stored media duration (0 meaning
// play-to-end on the player); otherwise a kind-based default.
func effectiveMediaDuration(item Item, m *Media) int {
	if item.Duration > 0 {
		return item.Duration
	}
	switch m.Kind {
	case MediaVideo:
		return m.Duration
	case MediaImage:
		return DefaultImageSeconds
	default:
		return DefaultDocumentSeconds
	}
}
