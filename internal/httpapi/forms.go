package httpapi

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wmaslo/testgenerator/internal/bank"
)

const pointsOverridePrefix = "points_override_"

func parseTopicForm(r *http.Request) bank.TopicInput {
	return bank.TopicInput{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
}

func parseTestForm(r *http.Request) bank.TestInput {
	return bank.TestInput{
		Name:  r.PostFormValue("name"),
		Date:  r.PostFormValue("date"),
		Notes: r.PostFormValue("notes"),
	}
}

// parseQuestionForm fills defaults for blank difficulty and points. Values
// that are not numbers come back as field errors.
func parseQuestionForm(r *http.Request) (bank.QuestionInput, *bank.ValidationError) {
	verr := bank.NewValidationError()
	input := bank.QuestionInput{
		Text:       r.PostFormValue("text"),
		Difficulty: bank.DefaultDifficulty,
		Points:     bank.DefaultPoints,
		Solution:   r.PostFormValue("solution"),
		IsActive:   parseActive(r.PostForm["is_active"]),
	}

	if raw := strings.TrimSpace(r.PostFormValue("topic_id")); raw != "" {
		topicID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			verr.Add("topic_id", "must be a number")
		}
		input.TopicID = topicID
	}
	if raw := strings.TrimSpace(r.PostFormValue("difficulty")); raw != "" {
		difficulty, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add("difficulty", "must be a whole number")
		}
		input.Difficulty = difficulty
	}
	if raw := strings.TrimSpace(r.PostFormValue("points")); raw != "" {
		points, err := parsePoints(raw)
		if err != nil {
			verr.Add("points", "must be a number")
		}
		input.Points = points
	}

	return input, verr.Merge(nil)
}

// parseActive reads the checkbox that follows a hidden "0" field. A form
// without the field at all keeps the question active.
func parseActive(values []string) bool {
	if len(values) == 0 {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(values[len(values)-1])) {
	case "1", "on", "true", "yes":
		return true
	default:
		return false
	}
}

// parseTestQuestionsForm keeps question_ids in submitted order. Blank
// override fields mean the question's own points apply.
func parseTestQuestionsForm(r *http.Request) (bank.TestQuestionsInput, *bank.ValidationError) {
	verr := bank.NewValidationError()
	input := bank.TestQuestionsInput{
		QuestionIDs: make([]int64, 0, len(r.PostForm["question_ids"])),
		Overrides:   make(map[int64]float64),
	}

	for _, raw := range r.PostForm["question_ids"] {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			verr.Add("question_ids", "must only contain question numbers")
			continue
		}
		input.QuestionIDs = append(input.QuestionIDs, id)
	}

	for _, id := range input.QuestionIDs {
		raw := strings.TrimSpace(r.PostFormValue(pointsOverridePrefix + strconv.FormatInt(id, 10)))
		if raw == "" {
			continue
		}
		points, err := parsePoints(raw)
		if err != nil {
			verr.Add("points_override", "must be a number")
			continue
		}
		input.Overrides[id] = points
	}

	return input, verr.Merge(nil)
}

var errNotFinite = errors.New("points must be a finite number")

// parsePoints accepts a decimal comma as typed on German keyboards. NaN and
// the infinities are rejected.
func parsePoints(raw string) (float64, error) {
	points, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(points) || math.IsInf(points, 0) {
		return 0, errNotFinite
	}
	return points, nil
}

func topicValues(topic bank.Topic) url.Values {
	return url.Values{
		"name":        {topic.Name},
		"description": {topic.Description},
	}
}

func testValues(test bank.Test) url.Values {
	return url.Values{
		"name":  {test.Name},
		"date":  {test.Date},
		"notes": {test.Notes},
	}
}

func questionValues(question bank.Question) url.Values {
	values := url.Values{
		"text":       {question.Text},
		"difficulty": {strconv.Itoa(question.Difficulty)},
		"points":     {formatPoints(question.Points)},
		"solution":   {question.Solution},
		"is_active":  {"0"},
	}
	if question.TopicID > 0 {
		values.Set("topic_id", strconv.FormatInt(question.TopicID, 10))
	}
	if question.IsActive {
		values.Set("is_active", "1")
	}
	return values
}

// submittedQuestionValues echoes a rejected form, normalising the checkbox
// pair to a single value.
func submittedQuestionValues(r *http.Request) url.Values {
	values := url.Values{}
	for _, key := range []string{"text", "topic_id", "difficulty", "points", "solution"} {
		values.Set(key, r.PostFormValue(key))
	}
	values.Set("is_active", "0")
	if parseActive(r.PostForm["is_active"]) {
		values.Set("is_active", "1")
	}
	return values
}

// applySelection shows a rejected assignment as it was submitted.
func applySelection(choices []bank.QuestionChoice, input bank.TestQuestionsInput) []bank.QuestionChoice {
	positions := make(map[int64]int, len(input.QuestionIDs))
	for idx, id := range input.QuestionIDs {
		if _, ok := positions[id]; !ok {
			positions[id] = idx + 1
		}
	}

	out := make([]bank.QuestionChoice, 0, len(choices))
	for _, choice := range choices {
		position, selected := positions[choice.ID]
		choice.Selected = selected
		choice.Position = position
		choice.PointsOverride = nil
		if override, ok := input.Overrides[choice.ID]; ok {
			value := override
			choice.PointsOverride = &value
		}
		out = append(out, choice)
	}
	return out
}
