package httpapi

import (
	"github.com/rs/zerolog"

	"github.com/wmaslo/testgenerator/internal/bank"
)

type API struct {
	service *bank.Service
	pages   *renderer
	log     zerolog.Logger
}

func NewAPI(service *bank.Service, log zerolog.Logger) *API {
	return &API{
		service: service,
		pages:   defaultRenderer,
		log:     log,
	}
}
