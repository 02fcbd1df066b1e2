package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ListTopics(ctx context.Context) ([]Topic, error) {
	return s.repo.ListTopics(ctx)
}

func (s *Service) GetTopic(ctx context.Context, id int64) (Topic, error) {
	return s.repo.GetTopic(ctx, id)
}

func (s *Service) CreateTopic(ctx context.Context, input TopicInput) (Topic, error) {
	input = normalizeTopic(input)
	if verr := Validate(input); verr != nil {
		return Topic{}, verr
	}

	topic := Topic{Name: input.Name, Description: input.Description}
	id, err := s.repo.CreateTopic(ctx, topic)
	if err != nil {
		return Topic{}, topicWriteError(err)
	}
	topic.ID = id
	return topic, nil
}

func (s *Service) UpdateTopic(ctx context.Context, id int64, input TopicInput) (Topic, error) {
	if _, err := s.repo.GetTopic(ctx, id); err != nil {
		return Topic{}, err
	}

	input = normalizeTopic(input)
	if verr := Validate(input); verr != nil {
		return Topic{}, verr
	}

	topic := Topic{ID: id, Name: input.Name, Description: input.Description}
	if err := s.repo.UpdateTopic(ctx, topic); err != nil {
		return Topic{}, topicWriteError(err)
	}
	return topic, nil
}

// DeleteTopic removes the topic together with its questions and their test links.
func (s *Service) DeleteTopic(ctx context.Context, id int64) error {
	return s.repo.DeleteTopic(ctx, id)
}

func (s *Service) TopicQuestions(ctx context.Context, topicID int64) (Topic, []Question, error) {
	topic, err := s.repo.GetTopic(ctx, topicID)
	if err != nil {
		return Topic{}, nil, err
	}
	questions, err := s.repo.ListQuestionsByTopic(ctx, topicID)
	if err != nil {
		return Topic{}, nil, err
	}
	return topic, questions, nil
}

func (s *Service) TopicCatalog(ctx context.Context, topicID int64) (Topic, []CatalogEntry, error) {
	topic, err := s.repo.GetTopic(ctx, topicID)
	if err != nil {
		return Topic{}, nil, err
	}
	entries, err := s.repo.ListCatalog(ctx, topicID)
	if err != nil {
		return Topic{}, nil, err
	}
	return topic, entries, nil
}

func (s *Service) GetQuestion(ctx context.Context, id int64) (Question, error) {
	return s.repo.GetQuestion(ctx, id)
}

func (s *Service) CreateQuestion(ctx context.Context, input QuestionInput) (Question, error) {
	input = normalizeQuestion(input)
	if err := s.validateQuestion(ctx, input); err != nil {
		return Question{}, err
	}

	question := Question{
		Text:       input.Text,
		TopicID:    input.TopicID,
		Difficulty: input.Difficulty,
		Points:     input.Points,
		Solution:   input.Solution,
		IsActive:   input.IsActive,
		CreatedAt:  s.now(),
	}
	id, err := s.repo.CreateQuestion(ctx, question)
	if err != nil {
		return Question{}, questionWriteError(err)
	}
	question.ID = id
	return question, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, id int64, input QuestionInput) (Question, error) {
	existing, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}

	input = normalizeQuestion(input)
	if err := s.validateQuestion(ctx, input); err != nil {
		return Question{}, err
	}

	question := Question{
		ID:         id,
		Text:       input.Text,
		TopicID:    input.TopicID,
		Difficulty: input.Difficulty,
		Points:     input.Points,
		Solution:   input.Solution,
		IsActive:   input.IsActive,
		CreatedAt:  existing.CreatedAt,
		UpdatedAt:  s.now(),
	}
	if err := s.repo.UpdateQuestion(ctx, question); err != nil {
		return Question{}, questionWriteError(err)
	}
	return question, nil
}

// DeleteQuestion returns the removed question so callers can navigate back
// to its topic. Test links are removed with it.
func (s *Service) DeleteQuestion(ctx context.Context, id int64) (Question, error) {
	question, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		return Question{}, err
	}
	return question, nil
}

func (s *Service) ListTests(ctx context.Context) ([]Test, error) {
	return s.repo.ListTests(ctx)
}

func (s *Service) GetTest(ctx context.Context, id int64) (Test, error) {
	return s.repo.GetTest(ctx, id)
}

func (s *Service) CreateTest(ctx context.Context, input TestInput) (Test, error) {
	input = normalizeTest(input)
	if verr := Validate(input); verr != nil {
		return Test{}, verr
	}

	test := Test{Name: input.Name, Date: input.Date, Notes: input.Notes}
	id, err := s.repo.CreateTest(ctx, test)
	if err != nil {
		return Test{}, err
	}
	test.ID = id
	return test, nil
}

func (s *Service) UpdateTest(ctx context.Context, id int64, input TestInput) (Test, error) {
	if _, err := s.repo.GetTest(ctx, id); err != nil {
		return Test{}, err
	}

	input = normalizeTest(input)
	if verr := Validate(input); verr != nil {
		return Test{}, verr
	}

	test := Test{ID: id, Name: input.Name, Date: input.Date, Notes: input.Notes}
	if err := s.repo.UpdateTest(ctx, test); err != nil {
		return Test{}, err
	}
	return test, nil
}

func (s *Service) DeleteTest(ctx context.Context, id int64) error {
	return s.repo.DeleteTest(ctx, id)
}

// DuplicateTest copies a test and its ordered question links under the name
// "<original> (Kopie)".
func (s *Service) DuplicateTest(ctx context.Context, id int64) (Test, error) {
	original, err := s.repo.GetTest(ctx, id)
	if err != nil {
		return Test{}, err
	}

	copied := Test{
		Name:  original.Name + CopySuffix,
		Date:  original.Date,
		Notes: original.Notes,
	}
	newID, err := s.repo.DuplicateTest(ctx, id, copied.Name)
	if err != nil {
		return Test{}, err
	}
	copied.ID = newID
	return copied, nil
}

// QuestionChoices lists what can be assigned to a test. Inactive questions
// only show up while they are still assigned.
func (s *Service) QuestionChoices(ctx context.Context, testID int64) (Test, []QuestionChoice, error) {
	test, err := s.repo.GetTest(ctx, testID)
	if err != nil {
		return Test{}, nil, err
	}

	all, err := s.repo.ListQuestionChoices(ctx, testID)
	if err != nil {
		return Test{}, nil, err
	}

	choices := make([]QuestionChoice, 0, len(all))
	for _, choice := range all {
		if !choice.IsActive && !choice.Selected {
			continue
		}
		choices = append(choices, choice)
	}
	return test, choices, nil
}

// SetTestQuestions replaces every link of the test. Positions follow the
// order of input.QuestionIDs starting at 1; an empty list clears the test.
func (s *Service) SetTestQuestions(ctx context.Context, testID int64, input TestQuestionsInput) error {
	if _, err := s.repo.GetTest(ctx, testID); err != nil {
		return err
	}
	if verr := Validate(input); verr != nil {
		return verr
	}

	links := make([]TestQuestion, 0, len(input.QuestionIDs))
	for idx, questionID := range input.QuestionIDs {
		link := TestQuestion{QuestionID: questionID, Position: idx + 1}
		if override, ok := input.Overrides[questionID]; ok {
			value := override
			link.PointsOverride = &value
		}
		links = append(links, link)
	}

	err := s.repo.ReplaceTestQuestions(ctx, testID, links)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidReference):
		verr := NewValidationError()
		verr.Add("question_ids", "contains a question that does not exist")
		return verr
	case errors.Is(err, ErrDuplicate):
		verr := NewValidationError()
		verr.Add("question_ids", "must not contain the same question twice")
		return verr
	default:
		return fmt.Errorf("replace test questions: %w", err)
	}
}

func (s *Service) PreviewTest(ctx context.Context, testID int64) (Preview, error) {
	test, err := s.repo.GetTest(ctx, testID)
	if err != nil {
		return Preview{}, err
	}
	items, err := s.repo.ListPreviewItems(ctx, testID)
	if err != nil {
		return Preview{}, err
	}
	return Preview{Test: test, Questions: items}, nil
}

func (s *Service) validateQuestion(ctx context.Context, input QuestionInput) error {
	verr := Validate(input)
	if verr != nil {
		return verr
	}

	if _, err := s.repo.GetTopic(ctx, input.TopicID); err != nil {
		if errors.Is(err, ErrTopicNotFound) {
			verr = NewValidationError()
			verr.Add("topic_id", "refers to an unknown topic")
			return verr
		}
		return err
	}
	return nil
}

func topicWriteError(err error) error {
	if errors.Is(err, ErrDuplicate) {
		verr := NewValidationError()
		verr.Add("name", "a topic with this name already exists")
		return verr
	}
	return err
}

func questionWriteError(err error) error {
	if errors.Is(err, ErrInvalidReference) {
		verr := NewValidationError()
		verr.Add("topic_id", "refers to an unknown topic")
		return verr
	}
	return err
}

func normalizeTopic(input TopicInput) TopicInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	return input
}

func normalizeQuestion(input QuestionInput) QuestionInput {
	input.Text = strings.TrimSpace(input.Text)
	input.Solution = strings.TrimSpace(input.Solution)
	return input
}

func normalizeTest(input TestInput) TestInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Date = strings.TrimSpace(input.Date)
	input.Notes = strings.TrimSpace(input.Notes)
	return input
}
