package httpapi

import (
	"fmt"
	"net/http"

	"github.com/wmaslo/testgenerator/internal/bank"
)

func (a *API) HandleTests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	tests, err := a.service.ListTests(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "tests", page{Title: "Tests", Tests: tests})
}

func (a *API) HandleNewTest(w http.ResponseWriter, r *http.Request) {
	form := page{Title: "Neuer Test", Action: "/tests/new"}

	switch r.Method {
	case http.MethodGet:
		a.render(w, r, http.StatusOK, "test_form", form)
	case http.MethodPost:
		if !a.parseForm(w, r) {
			return
		}
		_, err := a.service.CreateTest(r.Context(), parseTestForm(r))
		if fields, ok := validationFields(err); ok {
			form.Values = r.PostForm
			form.Errors = fields
			a.render(w, r, http.StatusUnprocessableEntity, "test_form", form)
			return
		}
		if err != nil {
			a.writeServiceError(w, r, err)
			return
		}
		redirect(w, r, "/tests")
	default:
		a.writeMethodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) HandleEditTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}

	id, err := pathID(r, bank.ErrTestNotFound)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	test, err := a.service.GetTest(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	form := page{
		Title:  "Test bearbeiten",
		Action: fmt.Sprintf("/tests/%d/edit", id),
		Test:   test,
		Values: testValues(test),
	}
	if r.Method == http.MethodGet {
		a.render(w, r, http.StatusOK, "test_form", form)
		return
	}

	if !a.parseForm(w, r) {
		return
	}
	_, err = a.service.UpdateTest(r.Context(), id, parseTestForm(r))
	if fields, ok := validationFields(err); ok {
		form.Values = r.PostForm
		form.Errors = fields
		a.render(w, r, http.StatusUnprocessableEntity, "test_form", form)
		return
	}
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	redirect(w, r, "/tests")
}

func (a *API) HandleTestQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}

	id, err := pathID(r, bank.ErrTestNotFound)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	if r.Method == http.MethodGet {
		a.renderTestQuestions(w, r, http.StatusOK, id, nil, nil)
		return
	}

	if _, err := a.service.GetTest(r.Context(), id); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if !a.parseForm(w, r) {
		return
	}
	input, verr := parseTestQuestionsForm(r)
	if verr != nil {
		a.renderTestQuestions(w, r, http.StatusUnprocessableEntity, id, &input, verr.Merge(bank.Validate(input)).Fields)
		return
	}

	err = a.service.SetTestQuestions(r.Context(), id, input)
	if fields, ok := validationFields(err); ok {
		a.renderTestQuestions(w, r, http.StatusUnprocessableEntity, id, &input, fields)
		return
	}
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	redirect(w, r, "/tests")
}

func (a *API) HandleTestPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	id, err := pathID(r, bank.ErrTestNotFound)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	preview, err := a.service.PreviewTest(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "test_preview", page{Title: preview.Test.Name, Preview: preview})
}

func (a *API) HandleDuplicateTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w, r, http.MethodPost)
		return
	}

	id, err := pathID(r, bank.ErrTestNotFound)
	if err == nil {
		_, err = a.service.DuplicateTest(r.Context(), id)
	}
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	redirect(w, r, "/tests")
}

func (a *API) HandleDeleteTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		a.writeMethodNotAllowed(w, r, http.MethodPost)
		return
	}

	id, err := pathID(r, bank.ErrTestNotFound)
	if err == nil {
		err = a.service.DeleteTest(r.Context(), id)
	}
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	redirect(w, r, "/tests")
}

// renderTestQuestions shows the assignment form. A non-nil submitted input
// replaces the stored selection so a rejected form keeps what was ticked.
func (a *API) renderTestQuestions(w http.ResponseWriter, r *http.Request, statusCode int, testID int64, submitted *bank.TestQuestionsInput, fields map[string]string) {
	test, choices, err := a.service.QuestionChoices(r.Context(), testID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if submitted != nil {
		choices = applySelection(choices, *submitted)
	}
	a.render(w, r, statusCode, "test_questions", page{
		Title:   "Fragen für " + test.Name,
		Test:    test,
		Choices: choices,
		Errors:  fields,
	})
}
