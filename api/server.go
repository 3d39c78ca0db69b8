package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rpupo63/blog-backend/auth"
	"github.com/rpupo63/blog-backend/config"
	"github.com/rpupo63/blog-backend/database"
	"github.com/rs/zerolog/log"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(app config.App, db database.Database) (Server, error) {
	address := fmt.Sprintf("0.0.0.0:%s", app.Port) // Bind to 0.0.0.0 for external access

	// Capture startup time
	startupTime := time.Now()

	sessions := auth.NewSessionManager(app.SecretKey, app.SessionTTL, app.CookieSecure)
	gateway := auth.NewGateway(db.UserRepo(), sessions)

	router := newRouter(db, gateway,
		withAcceptedOrigins(app.AcceptedOrigins),
		withBaseURL(app.BaseURL),
		withStartupTime(startupTime),
	)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  app.ReadTimeout,  // Timeout for reading the entire request
		WriteTimeout: app.WriteTimeout, // Timeout for writing the response
		IdleTimeout:  app.IdleTimeout,  // Timeout for idle connections
	}

	return Server{server, startupTime}, nil
}

type router struct {
	acceptedOrigins []string
	baseURL         string
	startupTime     time.Time
}

func withAcceptedOrigins(origins []string) func(*router) {
	return func(r *router) {
		r.acceptedOrigins = origins
	}
}

func withBaseURL(baseURL string) func(*router) {
	return func(r *router) {
		r.baseURL = baseURL
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func newRouter(db database.Database, gateway *auth.Gateway, opts ...func(*router)) *chi.Mux {
	router := router{startupTime: time.Now()}
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.RealIP)
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(HTTPLoggingMiddleware(log.With().Str("component", "http").Logger()))

	if len(router.acceptedOrigins) > 0 {
		chiRouter.Use(cors.Handler(cors.Options{
			AllowedOrigins:   router.acceptedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Initialize all handlers
	handlers := initializeHandlers(db, gateway, router.baseURL, router.startupTime)

	// Initialize auth middleware
	authMiddleware := newAuthMiddleware(gateway)

	setupRoutes(chiRouter, handlers, authMiddleware)

	return chiRouter
}

// Start serves until the server is shut down. A graceful shutdown is not
// reported as an error.
func (s Server) Start() error {
	log.Info().Msgf("Server started on: %s", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
