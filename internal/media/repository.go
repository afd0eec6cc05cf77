package media

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/signcast/signcast/internal/db"
)

type Repository struct {
	db *db.DB
}

func NewRepository(database *db.DB) *Repository {
	return &Repository{db: database}
}

func (r *Repository) Create(m *Media) error {
	query := `
		INSERT INTO media (group_id, name, kind, duration, mime_type, file_path, download_url, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(query,
		m.GroupID, m.Name, m.Kind, m.Duration, m.MimeType, m.FilePath, m.DownloadURL, m.Active,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(id uuid.UUID) (*Media, error) {
	query := `
		SELECT id, group_id, name, kind, duration, mime_type, file_path, download_url, active, created_at, updated_at
		FROM media WHERE id = $1`

	m := &Media{}
	err := r.db.QueryRow(query, id).Scan(
		&m.ID, &m.GroupID, &m.Name, &m.Kind, &m.Duration, &m.MimeType,
		&m.FilePath, &m.DownloadURL, &m.Active, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("media not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return m, nil
}

// GetByFilePath looks up the media row that owns a file on disk. Used by
// the filesystem watcher to react to files disappearing from the data dir.
func (r *Repository) GetByFilePath(path string) (*Media, error) {
	query := `
		SELECT id, group_id, name, kind, duration, mime_type, file_path, download_url, active, created_at, updated_at
		FROM media WHERE file_path = $1`

	m := &Media{}
	err := r.db.QueryRow(query, path).Scan(
		&m.ID, &m.GroupID, &m.Name, &m.Kind, &m.Duration, &m.MimeType,
		&m.FilePath, &m.DownloadURL, &m.Active, &m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media by path: %w", err)
	}
	return m, nil
}

func (r *Repository) List(groupID *uuid.UUID, activeOnly bool) ([]*Media, error) {
	query := `
		SELECT id, group_id, name, kind, duration, mime_type, file_path, download_url, active, created_at, updated_at
		FROM media WHERE 1=1`
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
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	var out []*Media
	for rows.Next() {
		m := &Media{}
		err := rows.Scan(
			&m.ID, &m.GroupID, &m.Name, &m.Kind, &m.Duration, &m.MimeType,
			&m.FilePath, &m.DownloadURL, &m.Active, &m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) Update(m *Media) error {
	query := `
		UPDATE media
		SET name = $2, kind = $3, duration = $4, mime_type = $5, download_url = $6, active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(query,
		m.ID, m.Name, m.Kind, m.Duration, m.MimeType, m.DownloadURL, m.Active,
	).Scan(&m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update media: %w", err)
	}
	return nil
}

func (r *Repository) Deactivate(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE media SET active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate media: %w", err)
	}
	return nil
}
