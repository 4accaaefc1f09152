package cinedb_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/cinedb/cinedb/pkg/cinedb"
	"github.com/cinedb/cinedb/pkg/client"
)

type APITestSuite struct {
	suite.Suite
	app    *cinedb.App
	server *httptest.Server
	client *client.Client
	ctx    context.Context
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

// SetupTest gives every test a fresh in-memory store.
func (s *APITestSuite) SetupTest() {
	app, err := cinedb.New(&cinedb.Config{
		Store:      cinedb.StoreMemory,
		ServerPort: "0",
		LogWriter:  io.Discard,
	})
	s.Require().NoError(err)

	s.app = app
	s.server = httptest.NewServer(app.Handler())
	s.client = client.NewClient(s.server.URL)
	s.ctx = context.Background()
}

func (s *APITestSuite) TearDownTest() {
	s.server.Close()
	s.Require().NoError(s.app.Close())
}

func (s *APITestSuite) requireAPIError(err error, status int, message string) {
	s.Require().Error(err)
	var apiErr *client.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(status, apiErr.StatusCode)
	s.Equal(message, apiErr.Message)
}

func (s *APITestSuite) createActor(name, dob string) *client.Actor {
	actor, err := s.client.CreateActor(s.ctx, client.Fields{"name": name, "date_of_birth": dob})
	s.Require().NoError(err)
	return actor
}

func (s *APITestSuite) createMovie(title string, year any) *client.Movie {
	movie, err := s.client.CreateMovie(s.ctx, client.Fields{"title": title, "year": year})
	s.Require().NoError(err)
	return movie
}

func (s *APITestSuite) TestHealth() {
	health, err := s.client.Health(s.ctx)
	s.Require().NoError(err)
	s.Equal("healthy", health["status"])
	s.Equal(cinedb.StoreMemory, health["store"])
	s.Equal(false, health["read_only"])
}

func (s *APITestSuite) TestRelationScenario() {
	actor := s.createActor("A", "1990-01-01")
	s.NotZero(actor.ID)
	movie := s.createMovie("M", "2020")
	s.Equal(2020, movie.Year)

	linked, err := s.client.AddMovieToActor(s.ctx, actor.ID, movie.ID)
	s.Require().NoError(err)
	s.Equal("[movie:1]", linked.Filmography)
	s.Equal("A", linked.Name)

	// The movie side sees the actor too.
	cast, err := s.client.AddActorToMovie(s.ctx, movie.ID, actor.ID)
	s.Require().NoError(err)
	s.Equal("[actor:1]", cast.Cast)

	cleared, err := s.client.ClearActor(s.ctx, actor.ID)
	s.Require().NoError(err)
	s.Equal("[]", cleared.Filmography)

	cast, err = s.client.ClearMovie(s.ctx, movie.ID)
	s.Require().NoError(err)
	s.Equal("[]", cast.Cast, "clearing the actor removed it from the cast")
}

func (s *APITestSuite) TestAddRelationIsIdempotent() {
	actor := s.createActor("A", "1990-01-01")
	first := s.createMovie("M1", 2001)
	second := s.createMovie("M2", 2002)

	for range 2 {
		_, err := s.client.AddMovieToActor(s.ctx, actor.ID, first.ID)
		s.Require().NoError(err)
	}
	linked, err := s.client.AddMovieToActor(s.ctx, actor.ID, second.ID)
	s.Require().NoError(err)
	s.Equal("[movie:1, movie:2]", linked.Filmography)

	movie, err := s.client.AddActorToMovie(s.ctx, first.ID, actor.ID)
	s.Require().NoError(err)
	s.Equal("[actor:1]", movie.Cast)
}

func (s *APITestSuite) TestRoundTrip() {
	actor := s.createActor("Keanu Reeves", "1964-09-02")
	got, err := s.client.GetActor(s.ctx, actor.ID)
	s.Require().NoError(err)
	s.Equal(client.Actor{ID: actor.ID, Name: "Keanu Reeves", DateOfBirth: "1964-09-02"}, *got)

	movie := s.createMovie("The Matrix", 1999)
	gotMovie, err := s.client.GetMovie(s.ctx, movie.ID)
	s.Require().NoError(err)
	s.Equal(client.Movie{ID: movie.ID, Title: "The Matrix", Year: 1999}, *gotMovie)
}

func (s *APITestSuite) TestList() {
	s.createActor("A", "1990-01-01")
	s.createActor("B", "1991-02-03")
	s.createMovie("M", 2020)

	actors, err := s.client.ListActors(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(actors, 2)
	s.Equal("A", actors[0].Name)
	s.Equal("B", actors[1].Name)

	movies, err := s.client.ListMovies(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(movies, 1)
	s.Empty(movies[0].Cast, "listings do not carry relations")
}

func (s *APITestSuite) TestGetUnknownActor() {
	_, err := s.client.GetActor(s.ctx, 999999)
	s.requireAPIError(err, http.StatusBadRequest, "Record with such id does not exist")

	_, err = s.client.GetMovie(s.ctx, 999999)
	s.requireAPIError(err, http.StatusBadRequest, "Record with such id does not exist")
}

func (s *APITestSuite) TestCreateValidation() {
	_, err := s.client.CreateMovie(s.ctx, client.Fields{"title": "", "year": "2020"})
	s.requireAPIError(err, http.StatusBadRequest, "All fields must be filled: title")

	_, err = s.client.CreateActor(s.ctx, client.Fields{"name": "A"})
	s.requireAPIError(err, http.StatusBadRequest, "All fields must be filled: date_of_birth")

	_, err = s.client.CreateActor(s.ctx, client.Fields{"name": "A", "date_of_birth": "1990-01-01", "age": 30})
	s.requireAPIError(err, http.StatusBadRequest, "Invalid field: age")

	_, err = s.client.CreateActor(s.ctx, client.Fields{"name": "A", "date_of_birth": "01/01/1990"})
	s.requireAPIError(err, http.StatusBadRequest, "Date of birth must be in format YYYY-MM-DD")

	_, err = s.client.CreateMovie(s.ctx, client.Fields{"title": "M", "year": "soon"})
	s.requireAPIError(err, http.StatusBadRequest, "Year must be an integer")

	actors, err := s.client.ListActors(s.ctx)
	s.Require().NoError(err)
	s.Empty(actors)
}

func (s *APITestSuite) TestUpdate() {
	actor := s.createActor("A", "1990-01-01")

	updated, err := s.client.UpdateActor(s.ctx, actor.ID, client.Fields{"name": "B"})
	s.Require().NoError(err)
	s.Equal("B", updated.Name)
	s.Equal("1990-01-01", updated.DateOfBirth)

	_, err = s.client.UpdateActor(s.ctx, actor.ID, client.Fields{"name": ""})
	s.requireAPIError(err, http.StatusBadRequest, "All fields must be filled: name")

	_, err = s.client.UpdateActor(s.ctx, actor.ID, client.Fields{"filmography": "[movie:1]"})
	s.requireAPIError(err, http.StatusBadRequest, "Invalid field: filmography")

	_, err = s.client.UpdateActor(s.ctx, 42, client.Fields{"name": "C"})
	s.requireAPIError(err, http.StatusBadRequest, "Record with such id does not exist")

	movie := s.createMovie("M", 2020)
	updatedMovie, err := s.client.UpdateMovie(s.ctx, movie.ID, client.Fields{"year": "2021"})
	s.Require().NoError(err)
	s.Equal(2021, updatedMovie.Year)
	s.Equal("M", updatedMovie.Title)
}

func (s *APITestSuite) TestDeleteCascades() {
	actor := s.createActor("A", "1990-01-01")
	kept := s.createActor("B", "1991-01-01")
	movie := s.createMovie("M", 2020)
	_, err := s.client.AddActorToMovie(s.ctx, movie.ID, actor.ID)
	s.Require().NoError(err)
	_, err = s.client.AddActorToMovie(s.ctx, movie.ID, kept.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.client.DeleteActor(s.ctx, actor.ID))

	_, err = s.client.GetActor(s.ctx, actor.ID)
	s.requireAPIError(err, http.StatusBadRequest, "Record with such id does not exist")

	// Re-adding an existing link returns the current cast without changes.
	cast, err := s.client.AddActorToMovie(s.ctx, movie.ID, kept.ID)
	s.Require().NoError(err)
	s.Equal("[actor:2]", cast.Cast)

	s.Require().NoError(s.client.DeleteMovie(s.ctx, movie.ID))
	cleared, err := s.client.ClearActor(s.ctx, kept.ID)
	s.Require().NoError(err)
	s.Equal("[]", cleared.Filmography)

	err = s.client.DeleteMovie(s.ctx, movie.ID)
	s.requireAPIError(err, http.StatusBadRequest, "Record with such id does not exist")
}

func (s *APITestSuite) TestRelationErrors() {
	actor := s.createActor("A", "1990-01-01")

	_, err := s.client.AddMovieToActor(s.ctx, actor.ID, 77)
	s.requireAPIError(err, http.StatusBadRequest, "Movie with such id does not exist")

	_, err = s.client.AddMovieToActor(s.ctx, 77, 1)
	s.requireAPIError(err, http.StatusBadRequest, "Actor with such id does not exist")

	_, err = s.client.ClearMovie(s.ctx, 77)
	s.requireAPIError(err, http.StatusBadRequest, "Record with such id does not exist")
}

func (s *APITestSuite) TestReadOnlyMode() {
	actor := s.createActor("A", "1990-01-01")
	s.app.SetReadOnly(true)

	_, err := s.client.CreateActor(s.ctx, client.Fields{"name": "B", "date_of_birth": "1990-01-01"})
	s.requireAPIError(err, http.StatusServiceUnavailable, "operation denied: application is in read-only mode")

	movie, err := s.client.CreateMovie(s.ctx, client.Fields{"title": "M", "year": 2020})
	s.Require().Error(err)
	s.Nil(movie)

	err = s.client.DeleteActor(s.ctx, actor.ID)
	s.requireAPIError(err, http.StatusServiceUnavailable, "operation denied: application is in read-only mode")

	got, err := s.client.GetActor(s.ctx, actor.ID)
	s.Require().NoError(err, "reads keep working")
	s.Equal("A", got.Name)

	health, err := s.client.Health(s.ctx)
	s.Require().NoError(err)
	s.Equal(true, health["read_only"])

	s.app.SetReadOnly(false)
	s.createMovie("M", 2020)
}

func (s *APITestSuite) TestReadOnlyKeepsLookupErrors() {
	movie := s.createMovie("M", 2020)
	s.app.SetReadOnly(true)

	_, err := s.client.AddActorToMovie(s.ctx, 999999, 1)
	s.requireAPIError(err, http.StatusBadRequest, "Movie with such id does not exist")

	_, err = s.client.AddMovieToActor(s.ctx, 999999, movie.ID)
	s.requireAPIError(err, http.StatusBadRequest, "Actor with such id does not exist")

	err = s.client.DeleteActor(s.ctx, 999999)
	s.requireAPIError(err, http.StatusBadRequest, "Record with such id does not exist")

	_, err = s.client.ClearMovie(s.ctx, movie.ID)
	s.Require().NoError(err, "clearing an empty cast writes nothing")
}
