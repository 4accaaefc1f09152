package relation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/store"
)

// undo restores one record to the state it had before a journaled write.
type undo struct {
	desc string
	fn   func(ctx context.Context) error
}

// journal is a store.Store that remembers how to revert every update made
// through it. Deletes are not revertible; callers issue them last.
type journal struct {
	store.Store
	entries []undo
}

func newJournal(s store.Store) *journal {
	return &journal{Store: s}
}

func (j *journal) UpdateActor(ctx context.Context, actor *models.Actor) error {
	prev, err := j.Store.GetActor(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := j.Store.UpdateActor(ctx, actor); err != nil {
		return err
	}
	if prev != nil {
		j.entries = append(j.entries, undo{
			desc: actor.ID.Ref(),
			fn:   func(ctx context.Context) error { return j.Store.UpdateActor(ctx, prev) },
		})
	}
	return nil
}

func (j *journal) UpdateMovie(ctx context.Context, movie *models.Movie) error {
	prev, err := j.Store.GetMovie(ctx, movie.ID)
	if err != nil {
		return err
	}
	if err := j.Store.UpdateMovie(ctx, movie); err != nil {
		return err
	}
	if prev != nil {
		j.entries = append(j.entries, undo{
			desc: movie.ID.Ref(),
			fn:   func(ctx context.Context) error { return j.Store.UpdateMovie(ctx, prev) },
		})
	}
	return nil
}

// rollback replays the journal newest first. It keeps going after a failed
// undo so that as many records as possible are restored.
func (j *journal) rollback(ctx context.Context, log zerolog.Logger) {
	// The request context may already be cancelled; undo writes must still run.
	ctx = context.WithoutCancel(ctx)
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		if err := e.fn(ctx); err != nil {
			log.Error().Err(err).Str("record", e.desc).Msg("compensating write failed, relation may be one-sided")
			continue
		}
		log.Debug().Str("record", e.desc).Msg("compensating write applied")
	}
	j.entries = nil
}
