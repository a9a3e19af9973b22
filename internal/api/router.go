package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"isitdown/internal/checker"
)

// NewRouter creates a new http.ServeMux and registers the API handlers.
func NewRouter(c checker.TargetChecker, logger zerolog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	h := NewHandlers(c, logger)

	mux.HandleFunc("POST /v1/checks", h.CreateCheck)
	mux.HandleFunc("GET /healthz", h.Healthz)

	return mux
}
