package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/wmaslo/testgenerator/internal/bank"
)

func (s *SQLiteStore) ListTests(ctx context.Context) ([]bank.Test, error) {
	query, args, err := s.sb.Select("id", "name", "COALESCE(date, '')", "COALESCE(notes, '')").
		From("tests").
		OrderBy("date DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tests := make([]bank.Test, 0)
	for rows.Next() {
		var test bank.Test
		if err := rows.Scan(&test.ID, &test.Name, &test.Date, &test.Notes); err != nil {
			return nil, err
		}
		tests = append(tests, test)
	}

	return tests, rows.Err()
}

func (s *SQLiteStore) GetTest(ctx context.Context, id int64) (bank.Test, error) {
	query, args, err := s.sb.Select("id", "name", "COALESCE(date, '')", "COALESCE(notes, '')").
		From("tests").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return bank.Test{}, err
	}

	var test bank.Test
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&test.ID, &test.Name, &test.Date, &test.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bank.Test{}, bank.ErrTestNotFound
		}
		return bank.Test{}, err
	}
	return test, nil
}

func (s *SQLiteStore) CreateTest(ctx context.Context, test bank.Test) (int64, error) {
	result, err := s.exec(ctx, s.db, s.sb.Insert("tests").
		Columns("name", "date", "notes").
		Values(test.Name, test.Date, test.Notes))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateTest(ctx context.Context, test bank.Test) error {
	result, err := s.exec(ctx, s.db, s.sb.Update("tests").
		Set("name", test.Name).
		Set("date", test.Date).
		Set("notes", test.Notes).
		Where(squirrel.Eq{"id": test.ID}))
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return bank.ErrTestNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteTest(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.exec(ctx, tx, s.sb.Delete("test_questions").Where(squirrel.Eq{"test_id": id})); err != nil {
		return err
	}

	result, err := s.exec(ctx, tx, s.sb.Delete("tests").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return bank.ErrTestNotFound
	}

	return tx.Commit()
}

// DuplicateTest inserts a copy of the test under name and copies its links
// with the same question ids, positions and overrides.
func (s *SQLiteStore) DuplicateTest(ctx context.Context, id int64, name string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query, args, err := s.sb.Select("date", "notes").
		From("tests").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var date, notes sql.NullString
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&date, &notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, bank.ErrTestNotFound
		}
		return 0, err
	}

	result, err := s.exec(ctx, tx, s.sb.Insert("tests").
		Columns("name", "date", "notes").
		Values(name, date, notes))
	if err != nil {
		return 0, err
	}
	newID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	copyLinks := s.sb.Select().
		Column(squirrel.Expr("?", newID)).
		Columns("question_id", "position", "points_override").
		From("test_questions").
		Where(squirrel.Eq{"test_id": id})
	if _, err := s.exec(ctx, tx, s.sb.Insert("test_questions").
		Columns("test_id", "question_id", "position", "points_override").
		Select(copyLinks)); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newID, nil
}

// ReplaceTestQuestions swaps the full link set of a test in one transaction.
// Any failing row (duplicate id, unknown question) rolls back the whole set.
func (s *SQLiteStore) ReplaceTestQuestions(ctx context.Context, testID int64, links []bank.TestQuestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	found, err := s.exists(ctx, tx, "tests", testID)
	if err != nil {
		return err
	}
	if !found {
		return bank.ErrTestNotFound
	}

	if _, err := s.exec(ctx, tx, s.sb.Delete("test_questions").Where(squirrel.Eq{"test_id": testID})); err != nil {
		return err
	}

	for _, link := range links {
		if _, err := s.exec(ctx, tx, s.sb.Insert("test_questions").
			Columns("test_id", "question_id", "position", "points_override").
			Values(testID, link.QuestionID, link.Position, nullFloat(link.PointsOverride))); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListQuestionChoices(ctx context.Context, testID int64) ([]bank.QuestionChoice, error) {
	query, args, err := s.sb.Select(
		"q.id",
		"q.text",
		"COALESCE(q.difficulty, 1)",
		"COALESCE(q.points, 1.0)",
		"t.name",
		"q.is_active",
		"tq.test_id IS NOT NULL",
		"COALESCE(tq.position, 0)",
		"tq.points_override",
	).
		From("questions q").
		Join("topics t ON t.id = q.topic_id").
		LeftJoin("test_questions tq ON tq.test_id = ? AND tq.question_id = q.id", testID).
		OrderBy("t.name", "q.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	choices := make([]bank.QuestionChoice, 0)
	for rows.Next() {
		var (
			choice   bank.QuestionChoice
			override sql.NullFloat64
		)
		if err := rows.Scan(
			&choice.ID,
			&choice.Text,
			&choice.Difficulty,
			&choice.Points,
			&choice.TopicName,
			&choice.IsActive,
			&choice.Selected,
			&choice.Position,
			&override,
		); err != nil {
			return nil, err
		}
		choice.PointsOverride = floatPtr(override)
		choices = append(choices, choice)
	}

	return choices, rows.Err()
}

func (s *SQLiteStore) ListPreviewItems(ctx context.Context, testID int64) ([]bank.PreviewItem, error) {
	query, args, err := s.sb.Select(
		"q.id",
		"q.text",
		"COALESCE(q.points, 1.0)",
		"tq.points_override",
		"t.name",
		"tq.position",
	).
		From("test_questions tq").
		Join("questions q ON q.id = tq.question_id").
		Join("topics t ON t.id = q.topic_id").
		Where(squirrel.Eq{"tq.test_id": testID}).
		OrderBy("tq.position").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]bank.PreviewItem, 0)
	for rows.Next() {
		var (
			item     bank.PreviewItem
			override sql.NullFloat64
		)
		if err := rows.Scan(
			&item.QuestionID,
			&item.Text,
			&item.Points,
			&override,
			&item.TopicName,
			&item.Position,
		); err != nil {
			return nil, err
		}
		item.PointsOverride = floatPtr(override)
		items = append(items, item)
	}

	return items, rows.Err()
}
