package playlists

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/signcast/signcast/internal/db"
)

// ErrNameTaken reports a playlist name collision within a group.
var ErrNameTaken = errors.New("playlist name already in use for this group")

type Repository struct {
	db *db.DB
}

func NewRepository(database *db.DB) *Repository {
	return &Repository{db: database}
}

func (r *Repository) Create(p *Playlist) error {
	query := `
		INSERT INTO playlists (group_id, name, description, active, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(query, p.GroupID, p.Name, p.Description, p.Active, p.CreatedBy).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *Repository) GetByID(id uuid.UUID) (*Playlist, error) {
	query := `
		SELECT id, group_id, name, description, active, created_by, created_at, updated_at
		FROM playlists WHERE id = $1`

	p := &Playlist{}
	err := r.db.QueryRow(query, id).Scan(
		&p.ID, &p.GroupID, &p.Name, &p.Description, &p.Active,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return p, nil
}

// GetWithItems loads a playlist and its items in creation order. Creation
// order is the stable tiebreak when several items share a position.
func (r *Repository) GetWithItems(id uuid.UUID) (*Playlist, error) {
	p, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	items, err := r.Items(id)
	if err != nil {
		return nil, err
	}
	p.Items = items
	return p, nil
}

func (r *Repository) Items(playlistID uuid.UUID) ([]*Item, error) {
	query := `
		SELECT id, playlist_id, kind, media_id, sub_playlist_id, feed_id,
		       duration, position, start_at, end_at, created_at
		FROM playlist_items
		WHERE playlist_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist items: %w", err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		it := &Item{}
		err := rows.Scan(
			&it.ID, &it.PlaylistID, &it.Kind, &it.MediaID, &it.SubPlaylistID, &it.FeedID,
			&it.Duration, &it.Position, &it.StartAt, &it.EndAt, &it.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repository) List(groupID *uuid.UUID, activeOnly bool) ([]*Playlist, error) {
	query := `
		SELECT id, group_id, name, description, active, created_by, created_at, updated_at
		FROM playlists WHERE 1=1`
	args := []interface{}{}

	if groupID != nil {
		args = append(args, *groupID)
		query += fmt.Sprintf(" AND group_id = $%d", len(args))
	}
	if activeOnly {
		query += " AND active = true"
	}
	query += " ORDER BY name"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var out []*Playlist
	for rows.Next() {
		p := &Playlist{}
		err := rows.Scan(
			&p.ID, &p.GroupID, &p.Name, &p.Description, &p.Active,
			&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Update(p *Playlist) error {
	query := `
		UPDATE playlists
		SET name = $2, description = $3, active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(query, p.ID, p.Name, p.Description, p.Active).Scan(&p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return nil
}

func (r *Repository) Deactivate(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE playlists SET active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate playlist: %w", err)
	}
	return nil
}

func (r *Repository) AddItem(it *Item) error {
	query := `
		INSERT INTO playlist_items (playlist_id, kind, media_id, sub_playlist_id, feed_id, duration, position, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRow(query,
		it.PlaylistID, it.Kind, it.MediaID, it.SubPlaylistID, it.FeedID,
		it.Duration, it.Position, it.StartAt, it.EndAt,
	).Scan(&it.ID, &it.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add playlist item: %w", err)
	}
	return r.touch(it.PlaylistID)
}

// touch bumps the owning playlist so clients can cheaply detect staleness.
func (r *Repository) touch(playlistID uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE playlists SET updated_at = NOW() WHERE id = $1`, playlistID)
	if err != nil {
		return fmt.Errorf("failed to touch playlist: %w", err)
	}
	return nil
}

func (r *Repository) GetItem(id uuid.UUID) (*Item, error) {
	query := `
		SELECT id, playlist_id, kind, media_id, sub_playlist_id, feed_id,
		       duration, position, start_at, end_at, created_at
		FROM playlist_items WHERE id = $1`

	it := &Item{}
	err := r.db.QueryRow(query, id).Scan(
		&it.ID, &it.PlaylistID, &it.Kind, &it.MediaID, &it.SubPlaylistID, &it.FeedID,
		&it.Duration, &it.Position, &it.StartAt, &it.EndAt, &it.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist item: %w", err)
	}
	return it, nil
}

func (r *Repository) UpdateItem(it *Item) error {
	query := `
		UPDATE playlist_items
		SET duration = $2, position = $3, start_at = $4, end_at = $5
		WHERE id = $1`

	if _, err := r.db.Exec(query, it.ID, it.Duration, it.Position, it.StartAt, it.EndAt); err != nil {
		return fmt.Errorf("failed to update playlist item: %w", err)
	}
	return r.touch(it.PlaylistID)
}

func (r *Repository) RemoveItem(id uuid.UUID) error {
	var playlistID uuid.UUID
	err := r.db.QueryRow(
		`DELETE FROM playlist_items WHERE id = $1 RETURNING playlist_id`, id,
	).Scan(&playlistID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove playlist item: %w", err)
	}
	return r.touch(playlistID)
}

// Reorder rewrites the positions of a playlist's items to match the given
// id sequence. Ids absent from the sequence keep their stored position.
func (r *Repository) Reorder(playlistID uuid.UUID, itemIDs []uuid.UUID) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reorder: %w", err)
	}
	defer tx.Rollback()

	for i, id := range itemIDs {
		_, err := tx.Exec(
			`UPDATE playlist_items SET position = $1 WHERE id = $2 AND playlist_id = $3`,
			i, id, playlistID,
		)
		if err != nil {
			return fmt.Errorf("failed to reorder item %s: %w", id, err)
		}
	}
	if _, err := tx.Exec(`UPDATE playlists SET updated_at = NOW() WHERE id = $1`, playlistID); err != nil {
		return fmt.Errorf("failed to touch playlist: %w", err)
	}
	return tx.Commit()
}

// SubPlaylistReachable reports whether target can be reached from start by
// following sub-playlist references. Used to refuse item additions that
// would close a reference cycle.
func (r *Repository) SubPlaylistReachable(start, target uuid.UUID) (bool, error) {
	if start == target {
		return true, nil
	}

	visited := map[uuid.UUID]bool{start: true}
	frontier := []uuid.UUID{start}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		rows, err := r.db.Query(
			`SELECT sub_playlist_id FROM playlist_items
			 WHERE playlist_id = $1 AND kind = 'playlist' AND sub_playlist_id IS NOT NULL`,
			current,
		)
		if err != nil {
			return false, fmt.Errorf("failed to walk sub-playlists: %w", err)
		}
		var next []uuid.UUID
		for rows.Next() {
			var sub uuid.UUID
			if err := rows.Scan(&sub); err != nil {
				rows.Close()
				return false, fmt.Errorf("failed to scan sub-playlist id: %w", err)
			}
			next = append(next, sub)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return false, err
		}
		rows.Close()

		for _, sub := range next {
			if sub == target {
				return true, nil
			}
			if !visited[sub] {
				visited[sub] = true
				frontier = append(frontier, sub)
			}
		}
	}
	return false, nil
}
