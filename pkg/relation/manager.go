// Package relation maintains the actor/movie association on both sides.
//
// An actor's filmography and a movie's cast describe the same set of pairs.
// The store treats them as independent fields, so every mutation here reads
// both records and writes both back in one logical operation.
//
// When the store implements store.Transactor the operation runs in a
// transaction. Otherwise each update is journaled with the record it
// replaced, and a failure replays the journal in reverse. Compensation is
// best effort: a failed undo is logged and the original error is returned.
package relation

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cinedb/cinedb/pkg/apperr"
	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/store"
)

// Messages specific to relation endpoints.
const (
	MsgActorNotFound = "Actor with such id does not exist"
	MsgMovieNotFound = "Movie with such id does not exist"
)

// Manager mutates associations through an injected store.
type Manager struct {
	store      store.Store
	log        zerolog.Logger
	operations *prometheus.CounterVec
}

// Option configures a Manager.
type Option func(*Manager)

// WithOperations counts operations by name and outcome. The vector must
// have "op" and "outcome" labels.
func WithOperations(c *prometheus.CounterVec) Option {
	return func(m *Manager) { m.operations = c }
}

// NewManager returns a Manager writing to s.
func NewManager(s store.Store, log zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{store: s, log: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddMovieToActor links the actor and the movie. Adding an existing link
// changes nothing. It returns the updated actor.
func (m *Manager) AddMovieToActor(ctx context.Context, actorID, movieID string) (*models.Actor, error) {
	aid, mid, err := parsePair(actorID, movieID)
	if err != nil {
		return nil, err
	}

	var actor *models.Actor
	err = m.mutate(ctx, "add_movie_to_actor", func(s store.Store) error {
		a, err := mustActor(ctx, s, models.ActorID(aid), MsgActorNotFound)
		if err != nil {
			return err
		}
		mv, err := mustMovie(ctx, s, models.MovieID(mid), MsgMovieNotFound)
		if err != nil {
			return err
		}
		if err := link(ctx, s, a, mv); err != nil {
			return err
		}
		actor = a
		return nil
	})
	return actor, err
}

// AddActorToMovie links the movie and the actor. It returns the updated
// movie.
func (m *Manager) AddActorToMovie(ctx context.Context, movieID, actorID string) (*models.Movie, error) {
	mid, aid, err := parsePair(movieID, actorID)
	if err != nil {
		return nil, err
	}

	var movie *models.Movie
	err = m.mutate(ctx, "add_actor_to_movie", func(s store.Store) error {
		mv, err := mustMovie(ctx, s, models.MovieID(mid), MsgMovieNotFound)
		if err != nil {
			return err
		}
		a, err := mustActor(ctx, s, models.ActorID(aid), MsgActorNotFound)
		if err != nil {
			return err
		}
		if err := link(ctx, s, a, mv); err != nil {
			return err
		}
		movie = mv
		return nil
	})
	return movie, err
}

// ClearActor removes the actor from the cast of every movie in its
// filmography and empties the filmography. It returns the updated actor.
func (m *Manager) ClearActor(ctx context.Context, actorID string) (*models.Actor, error) {
	id, err := parseOne(actorID)
	if err != nil {
		return nil, err
	}

	var actor *models.Actor
	err = m.mutate(ctx, "clear_actor", func(s store.Store) error {
		a, err := mustActor(ctx, s, models.ActorID(id), apperr.MsgRecordNotFound)
		if err != nil {
			return err
		}
		if err := clearActor(ctx, s, a); err != nil {
			return err
		}
		actor = a
		return nil
	})
	return actor, err
}

// ClearMovie removes the movie from the filmography of every actor in its
// cast and empties the cast. It returns the updated movie.
func (m *Manager) ClearMovie(ctx context.Context, movieID string) (*models.Movie, error) {
	id, err := parseOne(movieID)
	if err != nil {
		return nil, err
	}

	var movie *models.Movie
	err = m.mutate(ctx, "clear_movie", func(s store.Store) error {
		mv, err := mustMovie(ctx, s, models.MovieID(id), apperr.MsgRecordNotFound)
		if err != nil {
			return err
		}
		if err := clearMovie(ctx, s, mv); err != nil {
			return err
		}
		movie = mv
		return nil
	})
	return movie, err
}

// DeleteActor clears the actor's relations and deletes it.
func (m *Manager) DeleteActor(ctx context.Context, actorID string) error {
	id, err := parseOne(actorID)
	if err != nil {
		return err
	}

	return m.mutate(ctx, "delete_actor", func(s store.Store) error {
		a, err := mustActor(ctx, s, models.ActorID(id), apperr.MsgRecordNotFound)
		if err != nil {
			return err
		}
		if err := clearActor(ctx, s, a); err != nil {
			return err
		}
		return errors.Wrapf(s.DeleteActor(ctx, a.ID), "delete actor %d", a.ID)
	})
}

// DeleteMovie clears the movie's relations and deletes it.
func (m *Manager) DeleteMovie(ctx context.Context, movieID string) error {
	id, err := parseOne(movieID)
	if err != nil {
		return err
	}

	return m.mutate(ctx, "delete_movie", func(s store.Store) error {
		mv, err := mustMovie(ctx, s, models.MovieID(id), apperr.MsgRecordNotFound)
		if err != nil {
			return err
		}
		if err := clearMovie(ctx, s, mv); err != nil {
			return err
		}
		return errors.Wrapf(s.DeleteMovie(ctx, mv.ID), "delete movie %d", mv.ID)
	})
}

// mutate runs fn atomically: in a transaction when the store offers one,
// journaled with compensation otherwise.
func (m *Manager) mutate(ctx context.Context, op string, fn func(s store.Store) error) error {
	err := store.Atomically(ctx, m.store, fn)
	if errors.Is(err, store.ErrNotTransactional) {
		j := newJournal(m.store)
		if err = fn(j); err != nil {
			j.rollback(ctx, m.log.With().Str("op", op).Logger())
		}
	}
	m.count(op, err)
	return err
}

func (m *Manager) count(op string, err error) {
	if m.operations == nil {
		return
	}
	outcome := "ok"
	switch {
	case apperr.IsRequestError(err):
		outcome = "rejected"
	case err != nil:
		outcome = "failed"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// link adds the pair to both sides, writing only the records that changed.
func link(ctx context.Context, s store.Store, a *models.Actor, mv *models.Movie) error {
	if a.AddMovie(mv.ID) {
		if err := s.UpdateActor(ctx, a); err != nil {
			return errors.Wrapf(err, "update actor %d", a.ID)
		}
	}
	if mv.AddActor(a.ID) {
		if err := s.UpdateMovie(ctx, mv); err != nil {
			return errors.Wrapf(err, "update movie %d", mv.ID)
		}
	}
	return nil
}

func clearActor(ctx context.Context, s store.Store, a *models.Actor) error {
	for _, movieID := range a.Filmography {
		mv, err := s.GetMovie(ctx, movieID)
		if err != nil {
			return errors.Wrapf(err, "get movie %d", movieID)
		}
		if mv == nil || !mv.RemoveActor(a.ID) {
			continue
		}
		if err := s.UpdateMovie(ctx, mv); err != nil {
			return errors.Wrapf(err, "update movie %d", movieID)
		}
	}
	if len(a.Filmography) == 0 {
		return nil
	}
	a.Filmography = nil
	return errors.Wrapf(s.UpdateActor(ctx, a), "update actor %d", a.ID)
}

func clearMovie(ctx context.Context, s store.Store, mv *models.Movie) error {
	for _, actorID := range mv.Cast {
		a, err := s.GetActor(ctx, actorID)
		if err != nil {
			return errors.Wrapf(err, "get actor %d", actorID)
		}
		if a == nil || !a.RemoveMovie(mv.ID) {
			continue
		}
		if err := s.UpdateActor(ctx, a); err != nil {
			return errors.Wrapf(err, "update actor %d", actorID)
		}
	}
	if len(mv.Cast) == 0 {
		return nil
	}
	mv.Cast = nil
	return errors.Wrapf(s.UpdateMovie(ctx, mv), "update movie %d", mv.ID)
}

func mustActor(ctx context.Context, s store.Store, id models.ActorID, notFound string) (*models.Actor, error) {
	a, err := s.GetActor(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get actor %d", id)
	}
	if a == nil {
		return nil, apperr.New(apperr.NotFound, models.FieldID, notFound)
	}
	return a, nil
}

func mustMovie(ctx context.Context, s store.Store, id models.MovieID, notFound string) (*models.Movie, error) {
	mv, err := s.GetMovie(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get movie %d", id)
	}
	if mv == nil {
		return nil, apperr.New(apperr.NotFound, models.FieldID, notFound)
	}
	return mv, nil
}

func parseOne(raw string) (int64, error) {
	if raw == "" {
		return 0, apperr.New(apperr.MissingID, models.FieldID, apperr.MsgNoID)
	}
	id, err := models.ParseID(raw)
	if err != nil {
		return 0, apperr.New(apperr.InvalidID, models.FieldID, apperr.MsgIDNotInteger)
	}
	return id, nil
}

func parsePair(ownerRaw, otherRaw string) (int64, int64, error) {
	if ownerRaw == "" || otherRaw == "" {
		return 0, 0, apperr.New(apperr.MissingID, models.FieldRelationID, apperr.MsgRelationIDs)
	}
	owner, err := models.ParseID(ownerRaw)
	if err != nil {
		return 0, 0, apperr.New(apperr.InvalidID, models.FieldID, apperr.MsgRelationIntegers)
	}
	other, err := models.ParseID(otherRaw)
	if err != nil {
		return 0, 0, apperr.New(apperr.InvalidID, models.FieldRelationID, apperr.MsgRelationIntegers)
	}
	return owner, other, nil
}
