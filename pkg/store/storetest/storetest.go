// Package storetest holds the behavior every store.Store implementation must
// share. Backend packages call [Run] from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/store"
)

// Factory returns an empty, migrated store. The store is closed by Run.
type Factory func(t *testing.T) store.Store

// Run exercises s against the store.Store contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("ActorRoundTrip", func(t *testing.T) { testActorRoundTrip(t, open(t, newStore)) })
	t.Run("MovieRoundTrip", func(t *testing.T) { testMovieRoundTrip(t, open(t, newStore)) })
	t.Run("MissingRecords", func(t *testing.T) { testMissing(t, open(t, newStore)) })
	t.Run("RelationSets", func(t *testing.T) { testRelationSets(t, open(t, newStore)) })
	t.Run("List", func(t *testing.T) { testList(t, open(t, newStore)) })
}

func open(t *testing.T, newStore Factory) store.Store {
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testActorRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := &models.Actor{Name: "A", DateOfBirth: models.NewDate(1990, time.January, 1)}
	require.NoError(t, s.CreateActor(ctx, a))
	require.NotZero(t, a.ID)

	got, err := s.GetActor(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, "1990-01-01", got.DateOfBirth.String())
	assert.Empty(t, got.Filmography)

	got.Name = "B"
	require.NoError(t, s.UpdateActor(ctx, got))
	again, err := s.GetActor(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", again.Name)

	require.NoError(t, s.DeleteActor(ctx, a.ID))
	gone, err := s.GetActor(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testMovieRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	m := &models.Movie{Title: "M", Year: 2020}
	require.NoError(t, s.CreateMovie(ctx, m))
	require.NotZero(t, m.ID)

	got, err := s.GetMovie(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "M", got.Title)
	assert.Equal(t, 2020, got.Year)

	got.Year = 2021
	require.NoError(t, s.UpdateMovie(ctx, got))
	again, err := s.GetMovie(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2021, again.Year)

	require.NoError(t, s.DeleteMovie(ctx, m.ID))
	gone, err := s.GetMovie(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testMissing(t *testing.T, s store.Store) {
	ctx := context.Background()

	a, err := s.GetActor(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, a)

	m, err := s.GetMovie(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, m)

	assert.ErrorIs(t, s.UpdateActor(ctx, &models.Actor{ID: 999999, Name: "x", DateOfBirth: models.NewDate(2000, 1, 1)}), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateMovie(ctx, &models.Movie{ID: 999999, Title: "x", Year: 1}), store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteActor(ctx, 999999), store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteMovie(ctx, 999999), store.ErrNotFound)
}

// testRelationSets writes both sides of one association, the way the
// relation manager does, and reads them back.
func testRelationSets(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := &models.Actor{Name: "A", DateOfBirth: models.NewDate(1990, time.January, 1)}
	require.NoError(t, s.CreateActor(ctx, a))
	m1 := &models.Movie{Title: "M1", Year: 2020}
	m2 := &models.Movie{Title: "M2", Year: 2021}
	require.NoError(t, s.CreateMovie(ctx, m1))
	require.NoError(t, s.CreateMovie(ctx, m2))

	a.AddMovie(m2.ID)
	a.AddMovie(m1.ID)
	m1.AddActor(a.ID)
	m2.AddActor(a.ID)
	require.NoError(t, s.UpdateActor(ctx, a))
	require.NoError(t, s.UpdateMovie(ctx, m1))
	require.NoError(t, s.UpdateMovie(ctx, m2))

	got, err := s.GetActor(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.MovieID{m1.ID, m2.ID}, got.Filmography)

	gotMovie, err := s.GetMovie(ctx, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.ActorID{a.ID}, gotMovie.Cast)

	a.Filmography = nil
	m1.Cast = nil
	m2.Cast = nil
	require.NoError(t, s.UpdateActor(ctx, a))
	require.NoError(t, s.UpdateMovie(ctx, m1))
	require.NoError(t, s.UpdateMovie(ctx, m2))

	got, err = s.GetActor(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Filmography)
	gotMovie, err = s.GetMovie(ctx, m2.ID)
	require.NoError(t, err)
	assert.Empty(t, gotMovie.Cast)
}

func testList(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, s.CreateActor(ctx, &models.Actor{Name: name, DateOfBirth: models.NewDate(1980, 2, 3)}))
	}
	require.NoError(t, s.CreateMovie(ctx, &models.Movie{Title: "M", Year: 1999}))

	actors, err := s.ListActors(ctx)
	require.NoError(t, err)
	require.Len(t, actors, 3)
	assert.Equal(t, "A", actors[0].Name)

	movies, err := s.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 1)
}
