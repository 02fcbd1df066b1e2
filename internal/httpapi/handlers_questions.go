package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wmaslo/testgenerator/internal/bank"
)

func (a *API) HandleNewQuestion(w http.ResponseWriter, r *http.Request) {
	const (
		title  = "Neue Frage"
		action = "/question/new"
	)

	switch r.Method {
	case http.MethodGet:
		values := questionValues(bank.Question{
			Difficulty: bank.DefaultDifficulty,
			Points:     bank.DefaultPoints,
			IsActive:   true,
		})
		if topicID := r.URL.Query().Get("topic_id"); topicID != "" {
			values.Set("topic_id", topicID)
		}
		a.renderQuestionForm(w, r, http.StatusOK, title, action, values, nil)
	case http.MethodPost:
		if !a.parseForm(w, r) {
			return
		}
		input, verr := parseQuestionForm(r)
		if verr != nil {
			a.renderQuestionForm(w, r, http.StatusUnprocessableEntity, title, action, submittedQuestionValues(r), verr.Merge(bank.Validate(input)).Fields)
			return
		}

		_, err := a.service.CreateQuestion(r.Context(), input)
		if fields, ok := validationFields(err); ok {
			a.renderQuestionForm(w, r, http.StatusUnprocessableEntity, title, action, submittedQuestionValues(r), fields)
			return
		}
		if err != nil {
			a.writeServiceError(w, r, err)
			return
		}
		redirect(w, r, "/")
	default:
		a.writeMethodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) HandleEditQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}

	id, err := pathID(r, bank.ErrQuestionNotFound)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	question, err := a.service.GetQuestion(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	const title = "Frage bearbeiten"
	action := fmt.Sprintf("/question/%d/edit", id)
	if r.Method == http.MethodGet {
		a.renderQuestionForm(w, r, http.StatusOK, title, action, questionValues(question), nil)
		return
	}

	if !a.parseForm(w, r) {
		return
	}
	input, verr := parseQuestionForm(r)
	if verr != nil {
		a.renderQuestionForm(w, r, http.StatusUnprocessableEntity, title, action, submittedQuestionValues(r), verr.Merge(bank.Validate(input)).Fields)
		return
	}

	updated, err := a.service.UpdateQuestion(r.Context(), id, input)
	if fields, ok := validationFields(err); ok {
		a.renderQuestionForm(w, r, http.StatusUnprocessableEntity, title, action, submittedQuestionValues(r), fields)
		return
	}
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	redirect(w, r, topicURL(updated.TopicID))
}

func (a *API) HandleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w, r, http.MethodPost)
		return
	}

	id, err := pathID(r, bank.ErrQuestionNotFound)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	question, err := a.service.DeleteQuestion(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	redirect(w, r, topicURL(question.TopicID))
}

// renderQuestionForm loads the topic dropdown before rendering.
func (a *API) renderQuestionForm(w http.ResponseWriter, r *http.Request, statusCode int, title, action string, values url.Values, fields map[string]string) {
	topics, err := a.service.ListTopics(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if values.Get("topic_id") == "" && len(topics) == 1 {
		values.Set("topic_id", strconv.FormatInt(topics[0].ID, 10))
	}
	a.render(w, r, statusCode, "question_form", page{
		Title:  title,
		Action: action,
		Values: values,
		Errors: fields,
		Topics: topics,
	})
}
