package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"github.com/wmaslo/testgenerator/internal/bank"
)

const (
	defaultPath = "questions.db"

	// Same text layout as SQLite's datetime('now'), so rows written by either
	// side sort and read the same way.
	timestampLayout = "2006-01-02 15:04:05"
)

type SQLiteStore struct {
	db *sql.DB
	sb squirrel.StatementBuilderType
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	store := NewStore(db)
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// NewStore wraps an already opened handle without touching the schema.
func NewStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// classifyError maps SQLite constraint failures onto the domain sentinels.
func classifyError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %v", bank.ErrDuplicate, err)
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %v", bank.ErrInvalidReference, err)
	default:
		return err
	}
}

func (s *SQLiteStore) exec(ctx context.Context, q queryer, builder squirrel.Sqlizer) (sql.Result, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err)
	}
	return result, nil
}

func (s *SQLiteStore) exists(ctx context.Context, q queryer, table string, id int64) (bool, error) {
	query, args, err := s.sb.Select("1").From(table).Where(squirrel.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return false, err
	}

	var found int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) queryIDs(ctx context.Context, q queryer, builder squirrel.SelectBuilder) ([]int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// compactPositions renumbers the links of each test to 1..N, keeping their
// relative order. Used after links were removed from the middle of a test.
func (s *SQLiteStore) compactPositions(ctx context.Context, q queryer, testIDs []int64) error {
	for _, testID := range testIDs {
		questionIDs, err := s.queryIDs(ctx, q, s.sb.Select("question_id").
			From("test_questions").
			Where(squirrel.Eq{"test_id": testID}).
			OrderBy("position", "question_id"))
		if err != nil {
			return err
		}

		for idx, questionID := range questionIDs {
			if _, err := s.exec(ctx, q, s.sb.Update("test_questions").
				Set("position", idx+1).
				Where(squirrel.Eq{"test_id": testID, "question_id": questionID})); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{timestampLayout, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

func nullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}
