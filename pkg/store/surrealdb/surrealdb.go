// Package surrealdb provides a SurrealDB implementation of the
// [github.com/cinedb/cinedb/pkg/store.Store] interface using native SurrealQL.
//
// # Record Layout
//
// Actors live in the actor table and movies in the movie table, keyed by
// integer record ids (actor:7, movie:3). Relation sets are stored on each
// record as arrays of record links:
//
//	actor:7 { name: "A", date_of_birth: "1990-01-01", filmography: [movie:3] }
//	movie:3 { title: "M", year: 2020, cast: [actor:7] }
//
// [github.com/cinedb/cinedb/pkg/models.ActorID] and
// [github.com/cinedb/cinedb/pkg/models.MovieID] marshal to record ids through
// their MarshalCBOR methods, so the models need no SurrealDB specific copy
// of their relation sets.
//
// # Id Assignment
//
// SurrealDB generates random string ids by default. To keep ids integer the
// store draws them from a counter record per table (sequence:actor,
// sequence:movie) incremented by an UPSERT.
//
// # Consistency
//
// Writes are single-record operations and [SurrealStore] does not implement
// [github.com/cinedb/cinedb/pkg/store.Transactor]. The relation manager
// compensates failed two-sided writes instead.
package surrealdb

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/store"
)

// Config holds connection settings.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// SurrealStore implements the Store interface on a SurrealDB connection.
type SurrealStore struct {
	db *surrealdb.DB
}

var _ store.Store = (*SurrealStore)(nil)

// actorRecord is the stored shape of an actor. The id is returned by the
// database and never written.
type actorRecord struct {
	ID          *surrealmodels.RecordID `json:"id,omitempty"`
	Name        string                  `json:"name"`
	DateOfBirth string                  `json:"date_of_birth"`
	Filmography []models.MovieID        `json:"filmography"`
}

type movieRecord struct {
	ID    *surrealmodels.RecordID `json:"id,omitempty"`
	Title string                  `json:"title"`
	Year  int                     `json:"year"`
	Cast  []models.ActorID        `json:"cast"`
}

type sequenceResult struct {
	Value int64 `json:"value"`
}

// NewSurrealStore connects, signs in when credentials are set and selects
// the namespace and database.
func NewSurrealStore(ctx context.Context, cfg Config) (*SurrealStore, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to SurrealDB")
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, errors.Wrap(err, "failed to authenticate")
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, errors.Wrap(err, "failed to use namespace/database")
	}

	return &SurrealStore{db: db}, nil
}

// Migrate defines the tables. SurrealDB would create them on first write,
// but defining them up front lets reads on an empty database succeed.
func (s *SurrealStore) Migrate(ctx context.Context) error {
	query := strings.Join([]string{
		"DEFINE TABLE IF NOT EXISTS " + models.ActorTable + " SCHEMALESS",
		"DEFINE TABLE IF NOT EXISTS " + models.MovieTable + " SCHEMALESS",
		"DEFINE TABLE IF NOT EXISTS sequence SCHEMALESS",
	}, "; ")
	_, err := surrealdb.Query[any](ctx, s.db, query, nil)
	return errors.Wrap(err, "define tables")
}

// Close closes the database connection
func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// nextID increments the counter of table and returns the new value.
func (s *SurrealStore) nextID(ctx context.Context, table string) (int64, error) {
	query := "UPSERT type::thing('sequence', $tb) SET value += 1 RETURN value"
	result, err := surrealdb.Query[[]sequenceResult](ctx, s.db, query, map[string]any{"tb": table})
	if err != nil {
		return 0, errors.Wrapf(err, "next %s id", table)
	}
	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return 0, fmt.Errorf("next %s id: empty sequence result", table)
	}
	return (*result)[0].Result[0].Value, nil
}

// Actor operations

func (s *SurrealStore) CreateActor(ctx context.Context, actor *models.Actor) error {
	n, err := s.nextID(ctx, models.ActorTable)
	if err != nil {
		return err
	}
	actor.ID = models.ActorID(n)
	if _, err := surrealdb.Create[actorRecord](ctx, s.db, actor.ID.RecordID(), toActorRecord(actor)); err != nil {
		return errors.Wrap(err, "create actor")
	}
	return nil
}

func (s *SurrealStore) GetActor(ctx context.Context, id models.ActorID) (*models.Actor, error) {
	rec, err := surrealdb.Select[actorRecord](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get actor %d", id)
	}
	if rec == nil || rec.ID == nil {
		return nil, nil
	}
	return rec.toModel()
}

func (s *SurrealStore) ListActors(ctx context.Context) ([]*models.Actor, error) {
	result, err := surrealdb.Query[[]actorRecord](ctx, s.db, "SELECT * FROM type::table($tb)", map[string]any{
		"tb": models.ActorTable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list actors")
	}
	var actors []*models.Actor
	if result != nil && len(*result) > 0 {
		for _, rec := range (*result)[0].Result {
			a, err := rec.toModel()
			if err != nil {
				return nil, err
			}
			actors = append(actors, a)
		}
	}
	slices.SortFunc(actors, func(a, b *models.Actor) int { return cmp.Compare(a.ID, b.ID) })
	return actors, nil
}

func (s *SurrealStore) UpdateActor(ctx context.Context, actor *models.Actor) error {
	existing, err := s.GetActor(ctx, actor.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	if _, err := surrealdb.Update[actorRecord](ctx, s.db, actor.ID.RecordID(), toActorRecord(actor)); err != nil {
		return errors.Wrapf(err, "update actor %d", actor.ID)
	}
	return nil
}

func (s *SurrealStore) DeleteActor(ctx context.Context, id models.ActorID) error {
	existing, err := s.GetActor(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	if _, err := surrealdb.Delete[actorRecord](ctx, s.db, id.RecordID()); err != nil {
		return errors.Wrapf(err, "delete actor %d", id)
	}
	return nil
}

// Movie operations

func (s *SurrealStore) CreateMovie(ctx context.Context, movie *models.Movie) error {
	n, err := s.nextID(ctx, models.MovieTable)
	if err != nil {
		return err
	}
	movie.ID = models.MovieID(n)
	if _, err := surrealdb.Create[movieRecord](ctx, s.db, movie.ID.RecordID(), toMovieRecord(movie)); err != nil {
		return errors.Wrap(err, "create movie")
	}
	return nil
}

func (s *SurrealStore) GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error) {
	rec, err := surrealdb.Select[movieRecord](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get movie %d", id)
	}
	if rec == nil || rec.ID == nil {
		return nil, nil
	}
	return rec.toModel()
}

func (s *SurrealStore) ListMovies(ctx context.Context) ([]*models.Movie, error) {
	result, err := surrealdb.Query[[]movieRecord](ctx, s.db, "SELECT * FROM type::table($tb)", map[string]any{
		"tb": models.MovieTable,
	})
	if err != nil {
		return nil, errors.Wrap(err, "list movies")
	}
	var movies []*models.Movie
	if result != nil && len(*result) > 0 {
		for _, rec := range (*result)[0].Result {
			m, err := rec.toModel()
			if err != nil {
				return nil, err
			}
			movies = append(movies, m)
		}
	}
	slices.SortFunc(movies, func(a, b *models.Movie) int { return cmp.Compare(a.ID, b.ID) })
	return movies, nil
}

func (s *SurrealStore) UpdateMovie(ctx context.Context, movie *models.Movie) error {
	existing, err := s.GetMovie(ctx, movie.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	if _, err := surrealdb.Update[movieRecord](ctx, s.db, movie.ID.RecordID(), toMovieRecord(movie)); err != nil {
		return errors.Wrapf(err, "update movie %d", movie.ID)
	}
	return nil
}

func (s *SurrealStore) DeleteMovie(ctx context.Context, id models.MovieID) error {
	existing, err := s.GetMovie(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}
	if _, err := surrealdb.Delete[movieRecord](ctx, s.db, id.RecordID()); err != nil {
		return errors.Wrapf(err, "delete movie %d", id)
	}
	return nil
}

// Record conversion

func toActorRecord(a *models.Actor) actorRecord {
	return actorRecord{
		Name:        a.Name,
		DateOfBirth: a.DateOfBirth.String(),
		Filmography: append(make([]models.MovieID, 0, len(a.Filmography)), a.Filmography...),
	}
}

func (r actorRecord) toModel() (*models.Actor, error) {
	if r.ID == nil {
		return nil, fmt.Errorf("actor record without id")
	}
	n, err := models.RecordNumber(r.ID.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "actor record %v", r.ID)
	}
	a := &models.Actor{ID: models.ActorID(n), Name: r.Name, Filmography: r.Filmography}
	if r.DateOfBirth != "" {
		if a.DateOfBirth, err = models.ParseDate(r.DateOfBirth); err != nil {
			return nil, errors.Wrapf(err, "actor record %v", r.ID)
		}
	}
	slices.Sort(a.Filmography)
	a.Filmography = slices.Compact(a.Filmography)
	return a, nil
}

func toMovieRecord(m *models.Movie) movieRecord {
	return movieRecord{
		Title: m.Title,
		Year:  m.Year,
		Cast:  append(make([]models.ActorID, 0, len(m.Cast)), m.Cast...),
	}
}

func (r movieRecord) toModel() (*models.Movie, error) {
	if r.ID == nil {
		return nil, fmt.Errorf("movie record without id")
	}
	n, err := models.RecordNumber(r.ID.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "movie record %v", r.ID)
	}
	m := &models.Movie{ID: models.MovieID(n), Title: r.Title, Year: r.Year, Cast: r.Cast}
	slices.Sort(m.Cast)
	m.Cast = slices.Compact(m.Cast)
	return m, nil
}

// isNotFound recognizes the decode errors the SDK reports for empty selects.
func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}
