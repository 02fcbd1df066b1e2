package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/wmaslo/testgenerator/internal/bank"
)

func (s *SQLiteStore) ListTopics(ctx context.Context) ([]bank.Topic, error) {
	query, args, err := s.sb.Select("id", "name", "COALESCE(description, '')").
		From("topics").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	topics := make([]bank.Topic, 0)
	for rows.Next() {
		var topic bank.Topic
		if err := rows.Scan(&topic.ID, &topic.Name, &topic.Description); err != nil {
			return nil, err
		}
		topics = append(topics, topic)
	}

	return topics, rows.Err()
}

func (s *SQLiteStore) GetTopic(ctx context.Context, id int64) (bank.Topic, error) {
	query, args, err := s.sb.Select("id", "name", "COALESCE(description, '')").
		From("topics").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return bank.Topic{}, err
	}

	var topic bank.Topic
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&topic.ID, &topic.Name, &topic.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bank.Topic{}, bank.ErrTopicNotFound
		}
		return bank.Topic{}, err
	}
	return topic, nil
}

func (s *SQLiteStore) CreateTopic(ctx context.Context, topic bank.Topic) (int64, error) {
	result, err := s.exec(ctx, s.db, s.sb.Insert("topics").
		Columns("name", "description").
		Values(topic.Name, topic.Description))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateTopic(ctx context.Context, topic bank.Topic) error {
	result, err := s.exec(ctx, s.db, s.sb.Update("topics").
		Set("name", topic.Name).
		Set("description", topic.Description).
		Where(squirrel.Eq{"id": topic.ID}))
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return bank.ErrTopicNotFound
	}
	return nil
}

// DeleteTopic removes the test links of the topic's questions, the questions
// and the topic in one transaction, then closes the position gaps left in
// the affected tests.
func (s *SQLiteStore) DeleteTopic(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	found, err := s.exists(ctx, tx, "topics", id)
	if err != nil {
		return err
	}
	if !found {
		return bank.ErrTopicNotFound
	}

	inTopic := squirrel.Expr("question_id IN (SELECT id FROM questions WHERE topic_id = ?)", id)

	affectedTests, err := s.queryIDs(ctx, tx, s.sb.Select("DISTINCT test_id").
		From("test_questions").
		Where(inTopic))
	if err != nil {
		return err
	}

	if _, err := s.exec(ctx, tx, s.sb.Delete("test_questions").Where(inTopic)); err != nil {
		return err
	}
	if _, err := s.exec(ctx, tx, s.sb.Delete("questions").Where(squirrel.Eq{"topic_id": id})); err != nil {
		return err
	}
	if _, err := s.exec(ctx, tx, s.sb.Delete("topics").Where(squirrel.Eq{"id": id})); err != nil {
		return err
	}

	if err := s.compactPositions(ctx, tx, affectedTests); err != nil {
		return err
	}

	return tx.Commit()
}
