package bank

import (
	"context"
	"errors"
	"time"
)

var (
	ErrTopicNotFound    = errors.New("topic not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrTestNotFound     = errors.New("test not found")

	// Returned by stores when a unique or primary-key constraint rejects a write.
	ErrDuplicate = errors.New("duplicate entry")
	// Returned by stores when a foreign key points at a missing row.
	ErrInvalidReference = errors.New("invalid reference")
)

const (
	DefaultDifficulty = 1
	DefaultPoints     = 1.0
	CopySuffix        = " (Kopie)"
)

type Topic struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Question struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	TopicID    int64     `json:"topic_id"`
	Difficulty int       `json:"difficulty"`
	Points     float64   `json:"points"`
	Solution   string    `json:"solution"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// CatalogEntry is the id + text projection used by the topic catalog.
type CatalogEntry struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type Test struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

// TestQuestion is one link row. Position is 1-based.
type TestQuestion struct {
	QuestionID     int64
	Position       int
	PointsOverride *float64
}

// QuestionChoice is a row of the assignment form for one test.
type QuestionChoice struct {
	ID             int64
	Text           string
	Difficulty     int
	Points         float64
	TopicName      string
	IsActive       bool
	Selected       bool
	Position       int
	PointsOverride *float64
}

type PreviewItem struct {
	QuestionID     int64    `json:"question_id"`
	Text           string   `json:"text"`
	Points         float64  `json:"points"`
	PointsOverride *float64 `json:"points_override,omitempty"`
	TopicName      string   `json:"topic_name"`
	Position       int      `json:"position"`
}

// EffectivePoints returns the per-test override when one is set.
func (p PreviewItem) EffectivePoints() float64 {
	if p.PointsOverride != nil {
		return *p.PointsOverride
	}
	return p.Points
}

type Preview struct {
	Test      Test          `json:"test"`
	Questions []PreviewItem `json:"questions"`
}

func (p Preview) TotalPoints() float64 {
	total := 0.0
	for _, item := range p.Questions {
		total += item.EffectivePoints()
	}
	return total
}

type TopicRepository interface {
	ListTopics(ctx context.Context) ([]Topic, error)
	GetTopic(ctx context.Context, id int64) (Topic, error)
	CreateTopic(ctx context.Context, topic Topic) (int64, error)
	UpdateTopic(ctx context.Context, topic Topic) error
	DeleteTopic(ctx context.Context, id int64) error
}

type QuestionRepository interface {
	ListQuestionsByTopic(ctx context.Context, topicID int64) ([]Question, error)
	ListCatalog(ctx context.Context, topicID int64) ([]CatalogEntry, error)
	GetQuestion(ctx context.Context, id int64) (Question, error)
	CreateQuestion(ctx context.Context, question Question) (int64, error)
	UpdateQuestion(ctx context.Context, question Question) error
	DeleteQuestion(ctx context.Context, id int64) error
}

type TestRepository interface {
	ListTests(ctx context.Context) ([]Test, error)
	GetTest(ctx context.Context, id int64) (Test, error)
	CreateTest(ctx context.Context, test Test) (int64, error)
	UpdateTest(ctx context.Context, test Test) error
	DeleteTest(ctx context.Context, id int64) error
	DuplicateTest(ctx context.Context, id int64, name string) (int64, error)
	ReplaceTestQuestions(ctx context.Context, testID int64, links []TestQuestion) error
	ListQuestionChoices(ctx context.Context, testID int64) ([]QuestionChoice, error)
	ListPreviewItems(ctx context.Context, testID int64) ([]PreviewItem, error)
}

// Repository is everything the Service needs; the SQLite store implements it.
type Repository interface {
	TopicRepository
	QuestionRepository
	TestRepository
}

// ImportRow is one accepted line of a question catalog file.
type ImportRow struct {
	TopicName string
	Text      string
	Points    float64
}
