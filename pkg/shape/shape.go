// Package shape projects stored records onto their public fields.
package shape

import (
	"strings"

	"github.com/cinedb/cinedb/pkg/models"
)

// Record is a response body for one entity.
type Record map[string]any

// Project returns a new Record holding only the whitelisted keys of record.
// Whitelisted keys missing from record are left out.
func Project(record map[string]any, whitelist models.Fields) Record {
	out := make(Record, len(whitelist))
	for _, field := range whitelist {
		if v, ok := record[field]; ok {
			out[field] = v
		}
	}
	return out
}

// Refs renders a relation set for display: "[movie:1, movie:2]", or "[]"
// when empty.
func Refs(refs []string) string {
	return "[" + strings.Join(refs, ", ") + "]"
}

// Actor projects a onto the actor whitelist.
func Actor(a *models.Actor) Record {
	return Project(a.Record(), models.ActorFields)
}

// Movie projects m onto the movie whitelist.
func Movie(m *models.Movie) Record {
	return Project(m.Record(), models.MovieFields)
}

// ActorWithFilmography is Actor plus the filmography in display form.
func ActorWithFilmography(a *models.Actor) Record {
	r := Actor(a)
	r[models.FieldFilmography] = Refs(a.FilmographyRefs())
	return r
}

// MovieWithCast is Movie plus the cast in display form.
func MovieWithCast(m *models.Movie) Record {
	r := Movie(m)
	r[models.FieldCast] = Refs(m.CastRefs())
	return r
}

// Actors projects every actor.
func Actors(actors []*models.Actor) []Record {
	out := make([]Record, 0, len(actors))
	for _, a := range actors {
		out = append(out, Actor(a))
	}
	return out
}

// Movies projects every movie.
func Movies(movies []*models.Movie) []Record {
	out := make([]Record, 0, len(movies))
	for _, m := range movies {
		out = append(out, Movie(m))
	}
	return out
}
