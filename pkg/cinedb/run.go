package cinedb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	requestIDHeader   = "X-Request-ID"
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Handler builds the HTTP router.
//
// # API Endpoints
//
// Health check:
//
//	GET  /health, /api/health                    - Service health status
//
// Collections:
//
//	GET    /api/actors                           - List all actors
//	GET    /api/movies                           - List all movies
//
// Single records (id in the query string or the body):
//
//	GET    /api/actor                            - Get actor by id
//	POST   /api/actor                            - Create actor
//	PUT    /api/actor                            - Update actor fields
//	DELETE /api/actor                            - Delete actor and its relations
//	GET    /api/movie                            - Get movie by id
//	POST   /api/movie                            - Create movie
//	PUT    /api/movie                            - Update movie fields
//	DELETE /api/movie                            - Delete movie and its relations
//
// Relations (id and relation_id):
//
//	PUT    /api/actor-relations                  - Add a movie to an actor
//	DELETE /api/actor-relations                  - Clear an actor's filmography
//	PUT    /api/movie-relations                  - Add an actor to a movie
//	DELETE /api/movie-relations                  - Clear a movie's cast
//
// Monitoring:
//
//	GET    /metrics                              - Prometheus metrics
//
// Unsupported methods on a known path get 405 from the router.
func (a *App) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(a.instrument)

	// API routes
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)

	// Collection routes
	api.HandleFunc("/actors", a.handleListActors).Methods(http.MethodGet)
	api.HandleFunc("/movies", a.handleListMovies).Methods(http.MethodGet)

	// Actor routes
	api.HandleFunc("/actor", a.handleGetActor).Methods(http.MethodGet)
	api.HandleFunc("/actor", a.handleCreateActor).Methods(http.MethodPost)
	api.HandleFunc("/actor", a.handleUpdateActor).Methods(http.MethodPut)
	api.HandleFunc("/actor", a.handleDeleteActor).Methods(http.MethodDelete)

	// Movie routes
	api.HandleFunc("/movie", a.handleGetMovie).Methods(http.MethodGet)
	api.HandleFunc("/movie", a.handleCreateMovie).Methods(http.MethodPost)
	api.HandleFunc("/movie", a.handleUpdateMovie).Methods(http.MethodPut)
	api.HandleFunc("/movie", a.handleDeleteMovie).Methods(http.MethodDelete)

	// Relation routes
	api.HandleFunc("/actor-relations", a.handleAddMovieToActor).Methods(http.MethodPut)
	api.HandleFunc("/actor-relations", a.handleClearActor).Methods(http.MethodDelete)
	api.HandleFunc("/movie-relations", a.handleAddActorToMovie).Methods(http.MethodPut)
	api.HandleFunc("/movie-relations", a.handleClearMovie).Methods(http.MethodDelete)

	// Routes outside of the /api prefix
	router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	return router
}

// Run serves the API until ctx is cancelled or the listener fails. On
// cancellation in-flight requests get up to five seconds to complete.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.log.Info().
		Str("addr", addr).
		Str("store", a.backend).
		Bool("read_only", a.IsReadOnly()).
		Msg("Starting cinedb server")

	server := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument tags each request with an id, attaches a request-scoped logger
// to its context, and records the access log line and metrics.
func (a *App) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		log := a.log.With().Str("request_id", requestID).Logger()
		r = r.WithContext(log.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		a.metrics.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		a.metrics.latency.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		event := log.Info()
		if rec.status >= http.StatusInternalServerError {
			event = log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("route", route).
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("request")
	})
}

// requestLogger returns the logger attached by instrument, or the app
// logger for requests that did not pass through it.
func (a *App) requestLogger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.log
}
