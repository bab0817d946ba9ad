// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT,
	description TEXT,
	last_seen_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workspaces_name ON workspaces(name);

CREATE TABLE IF NOT EXISTS boards (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	state TEXT NOT NULL DEFAULT 'active' CHECK(state IN ('active', 'archived', 'deleted')),
	workspace_id TEXT,
	item_count INTEGER NOT NULL DEFAULT 0,
	board_kind TEXT,
	permissions TEXT,
	remote_updated_at DATETIME,
	health_status TEXT CHECK(health_status IN ('healthy', 'warning', 'inactive', 'abandoned')),
	last_seen_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_boards_workspace_id ON boards(workspace_id);
CREATE INDEX IF NOT EXISTS idx_boards_state ON boards(state);

CREATE TABLE IF NOT EXISTS board_columns (
	id TEXT NOT NULL,
	board_id TEXT NOT NULL,
	title TEXT NOT NULL,
	type TEXT NOT NULL,
	settings TEXT,
	archived INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (board_id, id),
	FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_board_columns_type ON board_columns(type);

CREATE TABLE IF NOT EXISTS board_relationships (
	id TEXT PRIMARY KEY,
	source_board_id TEXT NOT NULL,
	target_board_id TEXT NOT NULL,
	relation_type TEXT NOT NULL CHECK(relation_type IN ('dependency', 'mirror', 'connect_boards', 'integration')),
	source_column_id TEXT NOT NULL DEFAULT '',
	metadata TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (source_board_id) REFERENCES boards(id),
	FOREIGN KEY (target_board_id) REFERENCES boards(id),
	UNIQUE(source_board_id, target_board_id, relation_type, source_column_id)
);

CREATE INDEX IF NOT EXISTS idx_board_relationships_source ON board_relationships(source_board_id);
CREATE INDEX IF NOT EXISTS idx_board_relationships_target ON board_relationships(target_board_id);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	enabled INTEGER NOT NULL DEFAULT 1,
	is_admin INTEGER NOT NULL DEFAULT 0,
	is_guest INTEGER NOT NULL DEFAULT 0,
	last_activity DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK(kind IN ('full', 'incremental', 'workspace')),
	scope TEXT,
	status TEXT NOT NULL DEFAULT 'running' CHECK(status IN ('running', 'completed', 'failed', 'cancelled')),
	boards_processed INTEGER NOT NULL DEFAULT 0,
	items_created INTEGER NOT NULL DEFAULT 0,
	items_updated INTEGER NOT NULL DEFAULT 0,
	items_deleted INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	completed_at DATETIME,
	error TEXT
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_sync_runs_status ON sync_runs(status);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
