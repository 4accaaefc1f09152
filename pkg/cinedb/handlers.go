package cinedb

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/cinedb/cinedb/pkg/apperr"
	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/request"
	"github.com/cinedb/cinedb/pkg/shape"
	"github.com/cinedb/cinedb/pkg/store"
	"github.com/cinedb/cinedb/pkg/validate"
)

// MsgDeleted is the body of a successful delete.
const MsgDeleted = "Record successfully deleted"

const msgInternal = "Internal server error"

// Actor handlers

func (a *App) handleListActors(w http.ResponseWriter, r *http.Request) {
	actors, err := a.store.ListActors(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shape.Actors(actors))
}

func (a *App) handleGetActor(w http.ResponseWriter, r *http.Request) {
	raw, ok := a.lookupID(w, r)
	if !ok {
		return
	}
	id, err := validate.ParseID(raw)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	actor, err := a.store.GetActor(r.Context(), models.ActorID(id))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if actor == nil {
		a.fail(w, r, apperr.New(apperr.NotFound, models.FieldID, apperr.MsgRecordNotFound))
		return
	}
	respondJSON(w, http.StatusOK, shape.Actor(actor))
}

func (a *App) handleCreateActor(w http.ResponseWriter, r *http.Request) {
	data, ok := a.normalize(w, r)
	if !ok {
		return
	}
	values, err := a.validator.ValidateCreate(validate.ActorRules, data)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	actor := models.NewActor(values)
	if err := a.store.CreateActor(r.Context(), actor); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shape.Actor(actor))
}

func (a *App) handleUpdateActor(w http.ResponseWriter, r *http.Request) {
	data, ok := a.normalize(w, r)
	if !ok {
		return
	}
	queryID(r, data)

	ctx := r.Context()
	id, values, err := a.validator.ValidateUpdate(ctx, validate.ActorRules, data, a.actorExists)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	actor, err := a.store.GetActor(ctx, models.ActorID(id))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if actor == nil {
		a.fail(w, r, store.ErrNotFound)
		return
	}
	actor.Apply(values)
	if err := a.store.UpdateActor(ctx, actor); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shape.Actor(actor))
}

func (a *App) handleDeleteActor(w http.ResponseWriter, r *http.Request) {
	data, ok := a.normalize(w, r)
	if !ok {
		return
	}
	raw, _ := request.ID(r, data, models.FieldID)
	if err := a.relations.DeleteActor(r.Context(), raw); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": MsgDeleted})
}

// Movie handlers

func (a *App) handleListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := a.store.ListMovies(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shape.Movies(movies))
}

func (a *App) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	raw, ok := a.lookupID(w, r)
	if !ok {
		return
	}
	id, err := validate.ParseID(raw)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	movie, err := a.store.GetMovie(r.Context(), models.MovieID(id))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if movie == nil {
		a.fail(w, r, apperr.New(apperr.NotFound, models.FieldID, apperr.MsgRecordNotFound))
		return
	}
	respondJSON(w, http.StatusOK, shape.Movie(movie))
}

func (a *App) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	data, ok := a.normalize(w, r)
	if !ok {
		return
	}
	values, err := a.validator.ValidateCreate(validate.MovieRules, data)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	movie := models.NewMovie(values)
	if err := a.store.CreateMovie(r.Context(), movie); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shape.Movie(movie))
}

func (a *App) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	data, ok := a.normalize(w, r)
	if !ok {
		return
	}
	queryID(r, data)

	ctx := r.Context()
	id, values, err := a.validator.ValidateUpdate(ctx, validate.MovieRules, data, a.movieExists)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	movie, err := a.store.GetMovie(ctx, models.MovieID(id))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if movie == nil {
		a.fail(w, r, store.ErrNotFound)
		return
	}
	movie.Apply(values)
	if err := a.store.UpdateMovie(ctx, movie); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shape.Movie(movie))
}

func (a *App) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	data, ok := a.normalize(w, r)
	if !ok {
		return
	}
	raw, _ := request.ID(r, data, models.FieldID)
	if err := a.relations.DeleteMovie(r.Context(), raw); err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": MsgDeleted})
}

// Relation handlers

func (a *App) handleAddMovieToActor(w http.ResponseWriter, r *http.Request) {
	data, ok := a.normalize(w, r)
	if !ok {
		return
	}
	id, _ := request.ID(r, data, models.FieldID)
	relationID, _ := request.ID(r, data, models.FieldRelationID)

	actor, err := a.relations.AddMovieToActor(r.Context(), id, relationID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shape.ActorWithFilmography(actor))
}

func (a *App) handleClearActor(w http.ResponseWriter, r *http.Request) {
	data, ok := a.normalize(w, r)
	if !ok {
		return
	}
	id, _ := request.ID(r, data, models.FieldID)

	actor, err := a.relations.ClearActor(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shape.ActorWithFilmography(actor))
}

func (a *App) handleAddActorToMovie(w http.ResponseWriter, r *http.Request) {
	data, ok := a.normalize(w, r)
	if !ok {
		return
	}
	id, _ := request.ID(r, data, models.FieldID)
	relationID, _ := request.ID(r, data, models.FieldRelationID)

	movie, err := a.relations.AddActorToMovie(r.Context(), id, relationID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shape.MovieWithCast(movie))
}

func (a *App) handleClearMovie(w http.ResponseWriter, r *http.Request) {
	data, ok := a.normalize(w, r)
	if !ok {
		return
	}
	id, _ := request.ID(r, data, models.FieldID)

	movie, err := a.relations.ClearMovie(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, shape.MovieWithCast(movie))
}

// handleHealth reports liveness, the configured store backend and whether
// writes are currently accepted. It always answers 200.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "healthy",
		"store":     a.backend,
		"read_only": a.IsReadOnly(),
		"time":      time.Now().Unix(),
	}
	respondJSON(w, http.StatusOK, response)
}

func (a *App) actorExists(ctx context.Context, id int64) (bool, error) {
	actor, err := a.store.GetActor(ctx, models.ActorID(id))
	return actor != nil, err
}

func (a *App) movieExists(ctx context.Context, id int64) (bool, error) {
	movie, err := a.store.GetMovie(ctx, models.MovieID(id))
	return movie != nil, err
}

// normalize reads the request payload, answering 400 itself when the body
// cannot be decoded.
func (a *App) normalize(w http.ResponseWriter, r *http.Request) (request.Data, bool) {
	data, err := request.Normalize(r)
	if err != nil {
		a.fail(w, r, err)
		return nil, false
	}
	return data, true
}

// lookupID returns the id from the query string, reading the body only
// when the query string has none.
func (a *App) lookupID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if id := r.URL.Query().Get(models.FieldID); id != "" {
		return id, true
	}
	data, ok := a.normalize(w, r)
	if !ok {
		return "", false
	}
	raw, _ := request.ID(r, data, models.FieldID)
	return raw, true
}

// queryID lets update requests carry the id in the query string when the
// body has none.
func queryID(r *http.Request, data request.Data) {
	if data.Has(models.FieldID) {
		return
	}
	if id := r.URL.Query().Get(models.FieldID); id != "" {
		data[models.FieldID] = id
	}
}

// fail maps err onto a status code and writes the error body. Request
// errors are 400, read-only rejections 503, and anything else is logged
// and reported as 500 without details.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	if e, ok := apperr.As(err); ok {
		respondError(w, http.StatusBadRequest, e.Message)
		return
	}

	switch {
	case errors.Is(err, request.ErrPayload):
		respondError(w, http.StatusBadRequest, apperr.MsgInvalidPayload)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusBadRequest, apperr.MsgRecordNotFound)
	case errors.Is(err, store.ErrReadOnly):
		respondError(w, http.StatusServiceUnavailable, store.ErrReadOnly.Error())
	default:
		a.requestLogger(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, http.StatusInternalServerError, msgInternal)
	}
}

// respondJSON writes payload as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

// respondError sends {"error": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
