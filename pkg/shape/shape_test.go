package shape_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/shape"
)

func TestProject(t *testing.T) {
	record := map[string]any{"id": int64(1), "title": "M", "year": 2020, "cast": []string{"actor:1"}, "secret": true}

	got := shape.Project(record, models.MovieFields)

	assert.Equal(t, shape.Record{"id": int64(1), "title": "M", "year": 2020}, got)
	assert.Contains(t, record, "secret", "input must not be modified")
}

func TestProjectSkipsAbsentFields(t *testing.T) {
	got := shape.Project(map[string]any{"name": "A"}, models.ActorFields)
	assert.Equal(t, shape.Record{"name": "A"}, got)
}

func TestRefs(t *testing.T) {
	assert.Equal(t, "[]", shape.Refs(nil))
	assert.Equal(t, "[movie:1]", shape.Refs([]string{"movie:1"}))
	assert.Equal(t, "[movie:1, movie:2]", shape.Refs([]string{"movie:1", "movie:2"}))
}

func TestActorWithFilmography(t *testing.T) {
	a := &models.Actor{ID: 4, Name: "A", DateOfBirth: models.NewDate(1990, time.January, 1)}
	a.AddMovie(9)
	a.AddMovie(2)

	assert.Equal(t, shape.Record{
		"id":            int64(4),
		"name":          "A",
		"date_of_birth": "1990-01-01",
		"filmography":   "[movie:2, movie:9]",
	}, shape.ActorWithFilmography(a))
	assert.NotContains(t, shape.Actor(a), "filmography")
}

func TestMovieWithCast(t *testing.T) {
	m := &models.Movie{ID: 2, Title: "M", Year: 2020}
	assert.Equal(t, "[]", shape.MovieWithCast(m)["cast"])

	m.AddActor(4)
	m.AddActor(4)
	assert.Equal(t, "[actor:4]", shape.MovieWithCast(m)["cast"])
}
