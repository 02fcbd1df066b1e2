package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/wmaslo/testgenerator/internal/bank"
)

type demoQuestion struct {
	text       string
	topic      string
	difficulty int
	points     float64
	solution   string
}

var demoTopics = []bank.Topic{
	{Name: "Elektrik", Description: "Elektrische Grundlagen, CAN-Bus, Sensorik"},
	{Name: "Hydraulik", Description: "Hydraulische Systeme, Druck, Ventile"},
	{Name: "Motor", Description: "Verbrennungsmotoren, Kennlinien, Komponenten"},
}

var demoQuestions = []demoQuestion{
	{
		text:       "Erklären Sie den grundsätzlichen Aufbau eines CAN-Bus-Systems.",
		topic:      "Elektrik",
		difficulty: 2,
		points:     3.0,
		solution:   "Knoten/Steuergeräte, Busleitung, Terminierung, Nachrichtenaustausch, Priorität über Identifier.",
	},
	{
		text:       "Was versteht man unter hydraulischem Druck und wie wird er erzeugt?",
		topic:      "Hydraulik",
		difficulty: 1,
		points:     2.0,
		solution:   "Druck = Kraft/Fläche, Erzeugung z.B. durch Pumpe in einem geschlossenen System.",
	},
	{
		text:       "Nennen Sie mindestens drei Aufgaben des Motoröls im Verbrennungsmotor.",
		topic:      "Motor",
		difficulty: 1,
		points:     2.0,
		solution:   "Schmierung, Kühlung, Korrosionsschutz, Reinigung (Schmutzpartikel binden), Abdichtung.",
	},
}

// ImportQuestions writes all rows in one transaction. Topics are looked up
// by name and created when missing. Questions get difficulty 1 and an empty
// solution. It returns the number of inserted questions.
func (s *SQLiteStore) ImportQuestions(ctx context.Context, rows []bank.ImportRow) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	topicIDs := make(map[string]int64)
	count := 0
	for _, row := range rows {
		topicID, ok := topicIDs[row.TopicName]
		if !ok {
			topicID, err = s.ensureTopic(ctx, tx, row.TopicName, "")
			if err != nil {
				return 0, err
			}
			topicIDs[row.TopicName] = topicID
		}

		if _, err := s.insertQuestion(ctx, tx, bank.Question{
			Text:       row.Text,
			TopicID:    topicID,
			Difficulty: bank.DefaultDifficulty,
			Points:     row.Points,
			Solution:   "",
			IsActive:   true,
			CreatedAt:  now,
		}); err != nil {
			return 0, err
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// SeedDemoData inserts a few demo topics and questions. Running it twice
// does not duplicate anything.
func (s *SQLiteStore) SeedDemoData(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	topicIDs := make(map[string]int64, len(demoTopics))
	for _, topic := range demoTopics {
		id, err := s.ensureTopic(ctx, tx, topic.Name, topic.Description)
		if err != nil {
			return err
		}
		topicIDs[topic.Name] = id
	}

	now := time.Now().UTC()
	for _, demo := range demoQuestions {
		topicID := topicIDs[demo.topic]

		query, args, err := s.sb.Select("1").
			From("questions").
			Where(squirrel.Eq{"topic_id": topicID, "text": demo.text}).
			Limit(1).
			ToSql()
		if err != nil {
			return err
		}
		var found int
		err = tx.QueryRowContext(ctx, query, args...).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if _, err := s.insertQuestion(ctx, tx, bank.Question{
			Text:       demo.text,
			TopicID:    topicID,
			Difficulty: demo.difficulty,
			Points:     demo.points,
			Solution:   demo.solution,
			IsActive:   true,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ensureTopic(ctx context.Context, q queryer, name, description string) (int64, error) {
	query, args, err := s.sb.Select("id").
		From("topics").
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	result, err := s.exec(ctx, q, s.sb.Insert("topics").
		Columns("name", "description").
		Values(name, description))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
