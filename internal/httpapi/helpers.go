package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/wmaslo/testgenerator/internal/bank"
)

// notFoundMessage returns the page text for a missing record, or "" when err
// is not a not-found error.
func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, bank.ErrTopicNotFound):
		return "Thema nicht gefunden"
	case errors.Is(err, bank.ErrQuestionNotFound):
		return "Frage nicht gefunden"
	case errors.Is(err, bank.ErrTestNotFound):
		return "Test nicht gefunden"
	default:
		return ""
	}
}

func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if message := notFoundMessage(err); message != "" {
		a.renderError(w, r, http.StatusNotFound, message)
		return
	}

	a.log.Error().Err(err).
		Str("request_id", requestID(r)).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	a.renderError(w, r, http.StatusInternalServerError, "Anfrage fehlgeschlagen")
}

func (a *API) writeJSONServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bank.ErrTestNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "test not found"})
	default:
		a.log.Error().Err(err).Str("request_id", requestID(r)).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func (a *API) writeMethodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	a.renderError(w, r, http.StatusMethodNotAllowed, "Methode nicht erlaubt")
}

// pathID reads {id} from the route. An id that is not a positive integer
// cannot match a row, so it is reported as notFound.
func pathID(r *http.Request, notFound error) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func topicURL(id int64) string {
	return "/topic/" + strconv.FormatInt(id, 10)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
