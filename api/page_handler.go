package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// pinger is the part of database.Database the health check needs.
type pinger interface {
	Ping(ctx context.Context) error
}

type pageHandler struct {
	responder   Responder
	logger      zerolog.Logger
	db          pinger
	startupTime time.Time
}

func newPageHandler(db pinger, startupTime time.Time) pageHandler {
	logger := log.With().Str("handlerName", "pageHandler").Logger()

	return pageHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		db:          db,
		startupTime: startupTime,
	}
}

// HealthResponse reports liveness and database reachability.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Uptime    string `json:"uptime"`
	StartedAt string `json:"startedAt"`
}

func (h pageHandler) page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, PageView{
			Page:     name,
			Title:    title,
			LoggedIn: ctxGetIdentity(r.Context()) != nil,
		})
	}
}

// about
// @Summary About page
// @Tags Pages
// @Produce json
// @Success 200 {object} PageView
// @Router /about [get]
func (h pageHandler) about() http.HandlerFunc {
	return h.page("about", "About Me")
}

// contact
// @Summary Contact page
// @Tags Pages
// @Produce json
// @Success 200 {object} PageView
// @Router /contact [get]
func (h pageHandler) contact() http.HandlerFunc {
	return h.page("contact", "Contact Me")
}

// health
// @Summary Health check
// @Tags Pages
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse "Database unreachable"
// @Router /health [get]
func (h pageHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		response := HealthResponse{
			Status:    "ok",
			Database:  "ok",
			Uptime:    time.Since(h.startupTime).Round(time.Second).String(),
			StartedAt: h.startupTime.UTC().Format(time.RFC3339),
		}
		status := http.StatusOK

		if err := h.db.Ping(ctx); err != nil {
			h.logger.Error().Err(err).Msg("Database ping failed")
			response.Status = "degraded"
			response.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}

		h.responder.WriteJSONStatus(w, status, response)
	}
}
