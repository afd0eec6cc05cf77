package playlists

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/signcast/signcast/internal/db"
	"github.com/signcast/signcast/internal/resolve"
)

// Source adapts the database to the lookups playlist expansion needs.
// Missing rows come back as (nil, nil) so expansion can drop dangling
// references instead of failing the whole request.
type Source struct {
	db *db.DB
}

func NewSource(database *db.DB) *Source {
	return &Source{db: database}
}

var _ resolve.Store = (*Source)(nil)

func (s *Source) PlaylistByID(ctx context.Context, id uuid.UUID) (*resolve.Playlist, error) {
	p := &resolve.Playlist{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, active FROM playlists WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load playlist row: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, media_id, sub_playlist_id, feed_id, duration, position, start_at, end_at
		 FROM playlist_items
		 WHERE playlist_id = $1
		 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("load playlist items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it       resolve.Item
			kind     string
			mediaID  *uuid.UUID
			subID    *uuid.UUID
			feedID   *uuid.UUID
		)
		err := rows.Scan(&it.ID, &kind, &mediaID, &subID, &feedID,
			&it.Duration, &it.Order, &it.StartAt, &it.EndAt)
		if err != nil {
			return nil, fmt.Errorf("scan playlist item: %w", err)
		}

		it.Kind = resolve.ItemKind(kind)
		switch {
		case mediaID != nil:
			it.Ref = *mediaID
		case subID != nil:
			it.Ref = *subID
		case feedID != nil:
			it.Ref = *feedID
		default:
			// The schema forbids this, but a malformed row should not
			// poison the rest of the playlist.
			continue
		}
		p.Items = append(p.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Source) MediaByID(ctx context.Context, id uuid.UUID) (*resolve.Media, error) {
	m := &resolve.Media{}
	var active bool
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, kind, duration, download_url, mime_type, active
		 FROM media WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Kind, &m.Duration, &m.DownloadURL, &m.MimeType, &active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load media row: %w", err)
	}
	if !active {
		return nil, nil
	}
	return m, nil
}

func (s *Source) FeedByID(ctx context.Context, id uuid.UUID) (*resolve.Feed, error) {
	f := &resolve.Feed{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, url, active FROM feeds WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.URL, &f.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load feed row: %w", err)
	}
	return f, nil
}
