package httpapi

import (
	"net/http"

	"github.com/wmaslo/testgenerator/internal/bank"
)

func (a *API) HandleAPITopics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONMethodNotAllowed(w, http.MethodGet)
		return
	}

	topics, err := a.service.ListTopics(r.Context())
	if err != nil {
		a.writeJSONServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topicsResponse{Topics: topics})
}

func (a *API) HandleAPITests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONMethodNotAllowed(w, http.MethodGet)
		return
	}

	tests, err := a.service.ListTests(r.Context())
	if err != nil {
		a.writeJSONServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, testsResponse{Tests: tests})
}

func (a *API) HandleAPITestPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONMethodNotAllowed(w, http.MethodGet)
		return
	}

	id, err := pathID(r, bank.ErrTestNotFound)
	if err != nil {
		a.writeJSONServiceError(w, r, err)
		return
	}
	preview, err := a.service.PreviewTest(r.Context(), id)
	if err != nil {
		a.writeJSONServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreviewResponse(preview))
}

func writeJSONMethodNotAllowed(w http.ResponseWriter, allowedMethod string) {
	w.Header().Set("Allow", allowedMethod)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}
