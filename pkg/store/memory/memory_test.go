package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/store"
	"github.com/cinedb/cinedb/pkg/store/memory"
	"github.com/cinedb/cinedb/pkg/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.NewMemoryStore()
	})
}

func TestAtomicRollsBack(t *testing.T) {
	ctx := context.Background()
	s := memory.NewMemoryStore()
	m := &models.Movie{Title: "M", Year: 2020}
	require.NoError(t, s.CreateMovie(ctx, m))

	boom := errors.New("boom")
	err := store.Atomically(ctx, s, func(tx store.Store) error {
		m.Title = "changed"
		require.NoError(t, tx.UpdateMovie(ctx, m))
		require.NoError(t, tx.CreateMovie(ctx, &models.Movie{Title: "N", Year: 2021}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetMovie(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "M", got.Title)

	movies, err := s.ListMovies(ctx)
	require.NoError(t, err)
	assert.Len(t, movies, 1)

	// The id sequence is restored too.
	next := &models.Movie{Title: "N", Year: 2021}
	require.NoError(t, s.CreateMovie(ctx, next))
	assert.Equal(t, m.ID+1, next.ID)
}

func TestRollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := memory.NewMemoryStore()

	outside := &models.Actor{Name: "outside"}
	done := make(chan error, 1)
	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx store.Store) error {
		require.NoError(t, tx.CreateActor(ctx, &models.Actor{Name: "inside"}))
		go func() { done <- s.CreateActor(ctx, outside) }()
		select {
		case err := <-done:
			t.Error("write outside the transaction ran while it was open")
			done <- err
		case <-time.After(50 * time.Millisecond):
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, <-done)

	got, err := s.GetActor(ctx, outside.ID)
	require.NoError(t, err)
	require.NotNil(t, got, "acknowledged create survives the rollback")
	assert.Equal(t, "outside", got.Name)

	next := &models.Actor{Name: "next"}
	require.NoError(t, s.CreateActor(ctx, next))
	assert.NotEqual(t, outside.ID, next.ID)

	actors, err := s.ListActors(ctx)
	require.NoError(t, err)
	assert.Len(t, actors, 2)
}

func TestStoredRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.NewMemoryStore()
	a := &models.Actor{Name: "A", Filmography: []models.MovieID{3, 1, 3}}
	require.NoError(t, s.CreateActor(ctx, a))

	a.Name = "mutated"
	got, err := s.GetActor(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, []models.MovieID{1, 3}, got.Filmography)
}
