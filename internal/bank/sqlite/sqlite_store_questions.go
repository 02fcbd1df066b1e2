package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/wmaslo/testgenerator/internal/bank"
)

var questionColumns = []string{
	"id",
	"text",
	"topic_id",
	"COALESCE(difficulty, 1)",
	"COALESCE(points, 1.0)",
	"COALESCE(solution, '')",
	"is_active",
	"COALESCE(created_at, '')",
	"COALESCE(updated_at, '')",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (bank.Question, error) {
	var (
		question  bank.Question
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&question.ID,
		&question.Text,
		&question.TopicID,
		&question.Difficulty,
		&question.Points,
		&question.Solution,
		&question.IsActive,
		&createdAt,
		&updatedAt,
	); err != nil {
		return bank.Question{}, err
	}
	question.CreatedAt = parseTimestamp(createdAt)
	question.UpdatedAt = parseTimestamp(updatedAt)
	return question, nil
}

func (s *SQLiteStore) ListQuestionsByTopic(ctx context.Context, topicID int64) ([]bank.Question, error) {
	query, args, err := s.sb.Select(questionColumns...).
		From("questions").
		Where(squirrel.Eq{"topic_id": topicID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]bank.Question, 0)
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}

	return questions, rows.Err()
}

func (s *SQLiteStore) ListCatalog(ctx context.Context, topicID int64) ([]bank.CatalogEntry, error) {
	query, args, err := s.sb.Select("id", "text").
		From("questions").
		Where(squirrel.Eq{"topic_id": topicID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]bank.CatalogEntry, 0)
	for rows.Next() {
		var entry bank.CatalogEntry
		if err := rows.Scan(&entry.ID, &entry.Text); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, id int64) (bank.Question, error) {
	query, args, err := s.sb.Select(questionColumns...).
		From("questions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return bank.Question{}, err
	}

	question, err := scanQuestion(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bank.Question{}, bank.ErrQuestionNotFound
		}
		return bank.Question{}, err
	}
	return question, nil
}

func (s *SQLiteStore) CreateQuestion(ctx context.Context, question bank.Question) (int64, error) {
	return s.insertQuestion(ctx, s.db, question)
}

func (s *SQLiteStore) insertQuestion(ctx context.Context, q queryer, question bank.Question) (int64, error) {
	result, err := s.exec(ctx, q, s.sb.Insert("questions").
		Columns("text", "topic_id", "difficulty", "points", "solution", "is_active", "created_at").
		Values(
			question.Text,
			question.TopicID,
			question.Difficulty,
			question.Points,
			question.Solution,
			question.IsActive,
			formatTimestamp(question.CreatedAt),
		))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateQuestion(ctx context.Context, question bank.Question) error {
	result, err := s.exec(ctx, s.db, s.sb.Update("questions").
		Set("text", question.Text).
		Set("topic_id", question.TopicID).
		Set("difficulty", question.Difficulty).
		Set("points", question.Points).
		Set("solution", question.Solution).
		Set("is_active", question.IsActive).
		Set("updated_at", formatTimestamp(question.UpdatedAt)).
		Where(squirrel.Eq{"id": question.ID}))
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return bank.ErrQuestionNotFound
	}
	return nil
}

// DeleteQuestion drops the question and every test link to it in one
// transaction. Tests that lose a link are renumbered to keep positions dense.
func (s *SQLiteStore) DeleteQuestion(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	found, err := s.exists(ctx, tx, "questions", id)
	if err != nil {
		return err
	}
	if !found {
		return bank.ErrQuestionNotFound
	}

	affectedTests, err := s.queryIDs(ctx, tx, s.sb.Select("test_id").
		From("test_questions").
		Where(squirrel.Eq{"question_id": id}))
	if err != nil {
		return err
	}

	if _, err := s.exec(ctx, tx, s.sb.Delete("test_questions").Where(squirrel.Eq{"question_id": id})); err != nil {
		return err
	}
	if _, err := s.exec(ctx, tx, s.sb.Delete("questions").Where(squirrel.Eq{"id": id})); err != nil {
		return err
	}

	if err := s.compactPositions(ctx, tx, affectedTests); err != nil {
		return err
	}

	return tx.Commit()
}
