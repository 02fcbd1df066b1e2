package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/wmaslo/testgenerator/internal/bank"
)

func (a *API) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	topics, err := a.service.ListTopics(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "index", page{Title: "Themen", Topics: topics})
}

func (a *API) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	a.renderError(w, r, http.StatusNotFound, "Seite nicht gefunden")
}

func (a *API) HandleNewTopic(w http.ResponseWriter, r *http.Request) {
	form := page{Title: "Neues Thema", Action: "/topic/new"}

	switch r.Method {
	case http.MethodGet:
		a.render(w, r, http.StatusOK, "topic_form", form)
	case http.MethodPost:
		if !a.parseForm(w, r) {
			return
		}
		_, err := a.service.CreateTopic(r.Context(), parseTopicForm(r))
		if fields, ok := validationFields(err); ok {
			form.Values = r.PostForm
			form.Errors = fields
			a.render(w, r, http.StatusUnprocessableEntity, "topic_form", form)
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

func (a *API) HandleEditTopic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}

	id, err := pathID(r, bank.ErrTopicNotFound)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	topic, err := a.service.GetTopic(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	form := page{
		Title:  "Thema bearbeiten",
		Action: fmt.Sprintf("/topic/%d/edit", id),
		Topic:  topic,
		Values: topicValues(topic),
	}
	if r.Method == http.MethodGet {
		a.render(w, r, http.StatusOK, "topic_form", form)
		return
	}

	if !a.parseForm(w, r) {
		return
	}
	_, err = a.service.UpdateTopic(r.Context(), id, parseTopicForm(r))
	if fields, ok := validationFields(err); ok {
		form.Values = r.PostForm
		form.Errors = fields
		a.render(w, r, http.StatusUnprocessableEntity, "topic_form", form)
		return
	}
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	redirect(w, r, "/")
}

func (a *API) HandleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w, r, http.MethodPost)
		return
	}

	id, err := pathID(r, bank.ErrTopicNotFound)
	if err == nil {
		err = a.service.DeleteTopic(r.Context(), id)
	}
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	redirect(w, r, "/")
}

func (a *API) HandleTopicQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	id, err := pathID(r, bank.ErrTopicNotFound)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	topic, questions, err := a.service.TopicQuestions(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "topic_questions", page{Title: topic.Name, Topic: topic, Questions: questions})
}

func (a *API) HandleTopicCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	id, err := pathID(r, bank.ErrTopicNotFound)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	topic, entries, err := a.service.TopicCatalog(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "topic_catalog", page{Title: "Katalog " + topic.Name, Topic: topic, Catalog: entries})
}

func (a *API) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		a.renderError(w, r, http.StatusBadRequest, "Ungültiges Formular")
		return false
	}
	return true
}

// validationFields reports the per-field messages of a validation error.
func validationFields(err error) (map[string]string, bool) {
	var verr *bank.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}
