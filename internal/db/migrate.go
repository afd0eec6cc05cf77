package db

import "fmt"

// Migrate applies the schema. Every statement is idempotent so running it on
// every startup is safe.
func Migrate(database *DB) error {
	for i, stmt := range schema {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS groups (
		id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name                 TEXT NOT NULL UNIQUE,
		description          TEXT NOT NULL DEFAULT '',
		can_manage_playlists BOOLEAN NOT NULL DEFAULT FALSE,
		can_manage_media     BOOLEAN NOT NULL DEFAULT FALSE,
		can_manage_players   BOOLEAN NOT NULL DEFAULT FALSE,
		active               BOOLEAN NOT NULL DEFAULT TRUE,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user',
		group_id      UUID REFERENCES groups(id),
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		token      TEXT PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
		expires_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS media (
		id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		group_id     UUID REFERENCES groups(id),
		name         TEXT NOT NULL,
		kind         TEXT NOT NULL CHECK (kind IN ('image','video','html')),
		duration     INTEGER NOT NULL DEFAULT 0,
		mime_type    TEXT NOT NULL DEFAULT '',
		file_path    TEXT NOT NULL DEFAULT '',
		download_url TEXT NOT NULL DEFAULT '',
		active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS feeds (
		id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		group_id           UUID REFERENCES groups(id),
		name               TEXT NOT NULL,
		url                TEXT NOT NULL DEFAULT '',
		source             TEXT NOT NULL DEFAULT '',
		duration           INTEGER NOT NULL DEFAULT 0,
		active             BOOLEAN NOT NULL DEFAULT TRUE,
		last_fetched_at    TIMESTAMPTZ,
		last_status        TEXT NOT NULL DEFAULT '',
		item_count         INTEGER NOT NULL DEFAULT 0,
		consecutive_errors INTEGER NOT NULL DEFAULT 0,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS playlists (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		group_id    UUID REFERENCES groups(id),
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_by  UUID REFERENCES users(id),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (group_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS playlist_items (
		id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		playlist_id     UUID NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
		kind            TEXT NOT NULL CHECK (kind IN ('media','playlist','rss')),
		media_id        UUID REFERENCES media(id),
		sub_playlist_id UUID REFERENCES playlists(id),
		feed_id         UUID REFERENCES feeds(id),
		duration        INTEGER NOT NULL DEFAULT 0,
		position        INTEGER NOT NULL DEFAULT 0,
		start_at        TIMESTAMPTZ,
		end_at          TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (
			(kind = 'media'    AND media_id IS NOT NULL AND sub_playlist_id IS NULL AND feed_id IS NULL) OR
			(kind = 'playlist' AND media_id IS NULL AND sub_playlist_id IS NOT NULL AND feed_id IS NULL) OR
			(kind = 'rss'      AND media_id IS NULL AND sub_playlist_id IS NULL AND feed_id IS NOT NULL)
		)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_playlist_items_playlist ON playlist_items(playlist_id)`,

	`CREATE TABLE IF NOT EXISTS players (
		id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		group_id        UUID REFERENCES groups(id),
		name            TEXT NOT NULL,
		location        TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'pending',
		playlist_id     UUID REFERENCES playlists(id),
		last_connection TIMESTAMPTZ,
		active          BOOLEAN NOT NULL DEFAULT TRUE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
