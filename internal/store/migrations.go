package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	return s.migrateV2()
}

func (s *Store) schemaVersion() string {
	var version string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version); err != nil {
		return ""
	}
	return version
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title           TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'featurelist',
		feature_list    TEXT NOT NULL DEFAULT '',
		design_document TEXT,
		prd             TEXT,
		prototype       TEXT,
		refs            TEXT NOT NULL DEFAULT '[]',
		qa_answers      TEXT NOT NULL DEFAULT '[]',
		revisions       TEXT NOT NULL DEFAULT '[]',
		is_archived     INTEGER NOT NULL DEFAULT 0,
		version         INTEGER NOT NULL DEFAULT 1,
		created_at      INTEGER NOT NULL,
		updated_at      INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

	CREATE TABLE IF NOT EXISTS qa_sessions (
		task_id      TEXT PRIMARY KEY REFERENCES tasks(id) ON DELETE CASCADE,
		id           TEXT NOT NULL UNIQUE,
		category     TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'in_progress',
		current_step INTEGER NOT NULL DEFAULT 0,
		progress     INTEGER NOT NULL DEFAULT 0,
		answers      TEXT NOT NULL DEFAULT '[]',
		started_at   INTEGER NOT NULL,
		completed_at INTEGER,
		updated_at   INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS archives (
		id          TEXT PRIMARY KEY,
		task_id     TEXT NOT NULL,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		snapshot    TEXT NOT NULL,
		archived_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_archives_project ON archives(project_id, archived_at);

	INSERT OR IGNORE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}
	return nil
}

func (s *Store) migrateV2() error {
	if s.schemaVersion() >= "2" {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id       TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		document_type TEXT NOT NULL,
		generator     TEXT NOT NULL,
		created_at    INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_generations_task ON generations(task_id, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v2: %w", err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '2')`); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}
