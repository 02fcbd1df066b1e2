package httpapi

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wmaslo/testgenerator/internal/bank"
)

func NewRouter(service *bank.Service, log zerolog.Logger) http.Handler {
	api := NewAPI(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", api.HandleIndex)
	mux.HandleFunc("/", api.HandleNotFound)

	mux.HandleFunc("/topic/new", api.HandleNewTopic)
	mux.HandleFunc("/topic/{id}", api.HandleTopicQuestions)
	mux.HandleFunc("/topic/{id}/edit", api.HandleEditTopic)
	mux.HandleFunc("/topic/{id}/delete", api.HandleDeleteTopic)
	mux.HandleFunc("/topic/{id}/catalog", api.HandleTopicCatalog)

	mux.HandleFunc("/question/new", api.HandleNewQuestion)
	mux.HandleFunc("/question/{id}/edit", api.HandleEditQuestion)
	mux.HandleFunc("/question/{id}/delete", api.HandleDeleteQuestion)

	mux.HandleFunc("/tests", api.HandleTests)
	mux.HandleFunc("/tests/new", api.HandleNewTest)
	mux.HandleFunc("/tests/{id}/edit", api.HandleEditTest)
	mux.HandleFunc("/tests/{id}/questions", api.HandleTestQuestions)
	mux.HandleFunc("/tests/{id}/preview", api.HandleTestPreview)
	mux.HandleFunc("/tests/{id}/duplicate", api.HandleDuplicateTest)
	mux.HandleFunc("/tests/{id}/delete", api.HandleDeleteTest)

	mux.HandleFunc("/api/topics", api.HandleAPITopics)
	mux.HandleFunc("/api/tests", api.HandleAPITests)
	mux.HandleFunc("/api/tests/{id}/preview", api.HandleAPITestPreview)

	return withRequestLogging(mux, log)
}
