// Package memory provides an in-process Store backed by maps.
//
// Records are copied on the way in and on the way out, so callers never
// share memory with the store. Atomic holds the write lock for the whole
// transaction and restores a snapshot if the function fails, so no other
// write can interleave with it or be undone by its rollback.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/store"
)

// MemoryStore is a Store and a store.Transactor.
type MemoryStore struct {
	mu   sync.RWMutex
	data *tables
}

var (
	_ store.Store      = (*MemoryStore)(nil)
	_ store.Transactor = (*MemoryStore)(nil)
	_ store.Store      = (*tables)(nil)
)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newTables()}
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateActor(ctx context.Context, actor *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CreateActor(ctx, actor)
}

func (s *MemoryStore) GetActor(ctx context.Context, id models.ActorID) (*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.GetActor(ctx, id)
}

func (s *MemoryStore) ListActors(ctx context.Context) ([]*models.Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.ListActors(ctx)
}

func (s *MemoryStore) UpdateActor(ctx context.Context, actor *models.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UpdateActor(ctx, actor)
}

func (s *MemoryStore) DeleteActor(ctx context.Context, id models.ActorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteActor(ctx, id)
}

func (s *MemoryStore) CreateMovie(ctx context.Context, movie *models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CreateMovie(ctx, movie)
}

func (s *MemoryStore) GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.GetMovie(ctx, id)
}

func (s *MemoryStore) ListMovies(ctx context.Context) ([]*models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.ListMovies(ctx)
}

func (s *MemoryStore) UpdateMovie(ctx context.Context, movie *models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UpdateMovie(ctx, movie)
}

func (s *MemoryStore) DeleteMovie(ctx context.Context, id models.MovieID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DeleteMovie(ctx, id)
}

// Atomic runs fn under the store's write lock and rolls back to a snapshot
// when fn fails. Other callers block until the transaction ends. fn must
// only use the tx it is given; calling back into s deadlocks.
func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.data
	snap := tx.clone()
	if err := fn(tx); err != nil {
		s.data = snap
		return err
	}
	return nil
}

// tables holds the records. Its methods do no locking; MemoryStore
// serializes access to it.
type tables struct {
	actors    map[models.ActorID]*models.Actor
	movies    map[models.MovieID]*models.Movie
	nextActor models.ActorID
	nextMovie models.MovieID
}

func newTables() *tables {
	return &tables{
		actors: make(map[models.ActorID]*models.Actor),
		movies: make(map[models.MovieID]*models.Movie),
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		actors:    make(map[models.ActorID]*models.Actor, len(t.actors)),
		movies:    make(map[models.MovieID]*models.Movie, len(t.movies)),
		nextActor: t.nextActor,
		nextMovie: t.nextMovie,
	}
	for id, a := range t.actors {
		c.actors[id] = a.Clone()
	}
	for id, m := range t.movies {
		c.movies[id] = m.Clone()
	}
	return c
}

func (t *tables) Migrate(ctx context.Context) error { return nil }

func (t *tables) Close() error { return nil }

func (t *tables) CreateActor(ctx context.Context, actor *models.Actor) error {
	t.nextActor++
	actor.ID = t.nextActor
	t.actors[actor.ID] = normalizeActor(actor.Clone())
	return nil
}

func (t *tables) GetActor(ctx context.Context, id models.ActorID) (*models.Actor, error) {
	a, ok := t.actors[id]
	if !ok {
		return nil, nil
	}
	return a.Clone(), nil
}

func (t *tables) ListActors(ctx context.Context) ([]*models.Actor, error) {
	out := make([]*models.Actor, 0, len(t.actors))
	for _, a := range t.actors {
		out = append(out, a.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Actor) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (t *tables) UpdateActor(ctx context.Context, actor *models.Actor) error {
	if _, ok := t.actors[actor.ID]; !ok {
		return store.ErrNotFound
	}
	t.actors[actor.ID] = normalizeActor(actor.Clone())
	return nil
}

func (t *tables) DeleteActor(ctx context.Context, id models.ActorID) error {
	if _, ok := t.actors[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.actors, id)
	return nil
}

func (t *tables) CreateMovie(ctx context.Context, movie *models.Movie) error {
	t.nextMovie++
	movie.ID = t.nextMovie
	t.movies[movie.ID] = normalizeMovie(movie.Clone())
	return nil
}

func (t *tables) GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error) {
	m, ok := t.movies[id]
	if !ok {
		return nil, nil
	}
	return m.Clone(), nil
}

func (t *tables) ListMovies(ctx context.Context) ([]*models.Movie, error) {
	out := make([]*models.Movie, 0, len(t.movies))
	for _, m := range t.movies {
		out = append(out, m.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Movie) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (t *tables) UpdateMovie(ctx context.Context, movie *models.Movie) error {
	if _, ok := t.movies[movie.ID]; !ok {
		return store.ErrNotFound
	}
	t.movies[movie.ID] = normalizeMovie(movie.Clone())
	return nil
}

func (t *tables) DeleteMovie(ctx context.Context, id models.MovieID) error {
	if _, ok := t.movies[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.movies, id)
	return nil
}

func normalizeActor(a *models.Actor) *models.Actor {
	slices.Sort(a.Filmography)
	a.Filmography = slices.Compact(a.Filmography)
	return a
}

func normalizeMovie(m *models.Movie) *models.Movie {
	slices.Sort(m.Cast)
	m.Cast = slices.Compact(m.Cast)
	return m
}
