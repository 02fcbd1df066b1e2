package sqlite

import (
	"context"
)

// InitSchema is idempotent; NewSQLiteStore runs it on open.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	return s.initSchema(ctx)
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	// Column names and types match question banks created by earlier versions
	// of the tool, so an existing questions.db can be opened as is.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS topics (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL UNIQUE,
			description TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			text        TEXT NOT NULL,
			topic_id    INTEGER NOT NULL,
			difficulty  INTEGER DEFAULT 1,
			points      REAL DEFAULT 1.0,
			solution    TEXT,
			is_active   INTEGER NOT NULL DEFAULT 1,
			created_at  TEXT DEFAULT (datetime('now')),
			updated_at  TEXT,
			FOREIGN KEY (topic_id) REFERENCES topics(id)
		);`,
		`CREATE TABLE IF NOT EXISTS tests (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			name  TEXT NOT NULL,
			date  TEXT,
			notes TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS test_questions (
			test_id         INTEGER NOT NULL,
			question_id     INTEGER NOT NULL,
			position        INTEGER NOT NULL,
			points_override REAL,
			PRIMARY KEY (test_id, question_id),
			FOREIGN KEY (test_id) REFERENCES tests(id),
			FOREIGN KEY (question_id) REFERENCES questions(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic_id);`,
		`CREATE INDEX IF NOT EXISTS idx_test_questions_question ON test_questions(question_id);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
