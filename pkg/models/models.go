package models

import (
	"slices"
)

// Field names accepted in writes and exposed in responses.
const (
	FieldID          = "id"
	FieldRelationID  = "relation_id"
	FieldName        = "name"
	FieldDateOfBirth = "date_of_birth"
	FieldFilmography = "filmography"
	FieldTitle       = "title"
	FieldYear        = "year"
	FieldCast        = "cast"
)

// Fields is a static whitelist of public field names.
type Fields []string

// Has reports whether name is whitelisted.
func (f Fields) Has(name string) bool {
	return slices.Contains(f, name)
}

// Whitelists. The relation collections are deliberately absent; relation
// endpoints add them explicitly in display form.
var (
	ActorFields = Fields{FieldID, FieldName, FieldDateOfBirth}
	MovieFields = Fields{FieldID, FieldTitle, FieldYear}
)

// Actor is a performer. Filmography holds the ids of the movies the actor
// appears in; it mirrors Movie.Cast.
type Actor struct {
	ID          ActorID   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	DateOfBirth Date      `gorm:"type:date;not null" json:"date_of_birth"`
	Filmography []MovieID `gorm:"-" json:"filmography"`
}

// NewActor builds an actor from validated values.
func NewActor(values map[string]any) *Actor {
	a := &Actor{}
	a.Apply(values)
	return a
}

// Apply copies validated values onto a. Keys other than the writable fields
// are ignored.
func (a *Actor) Apply(values map[string]any) {
	if v, ok := values[FieldName].(string); ok {
		a.Name = v
	}
	if v, ok := values[FieldDateOfBirth].(Date); ok {
		a.DateOfBirth = v
	}
}

// Record returns every attribute of a, relation set included.
func (a *Actor) Record() map[string]any {
	return map[string]any{
		FieldID:          int64(a.ID),
		FieldName:        a.Name,
		FieldDateOfBirth: a.DateOfBirth.String(),
		FieldFilmography: a.FilmographyRefs(),
	}
}

// FilmographyRefs renders the filmography as movie:<id> references.
func (a *Actor) FilmographyRefs() []string {
	refs := make([]string, 0, len(a.Filmography))
	for _, id := range a.Filmography {
		refs = append(refs, id.Ref())
	}
	return refs
}

// AddMovie adds id to the filmography. It reports whether the set changed.
func (a *Actor) AddMovie(id MovieID) bool {
	var changed bool
	a.Filmography, changed = addID(a.Filmography, id)
	return changed
}

// RemoveMovie removes id from the filmography. It reports whether the set changed.
func (a *Actor) RemoveMovie(id MovieID) bool {
	var changed bool
	a.Filmography, changed = removeID(a.Filmography, id)
	return changed
}

// HasMovie reports whether id is in the filmography.
func (a *Actor) HasMovie(id MovieID) bool {
	return slices.Contains(a.Filmography, id)
}

// Clone returns a deep copy of a.
func (a *Actor) Clone() *Actor {
	c := *a
	c.Filmography = slices.Clone(a.Filmography)
	return &c
}

func (Actor) TableName() string { return "actors" }

// Movie is a film. Cast holds the ids of the actors appearing in it; it
// mirrors Actor.Filmography.
type Movie struct {
	ID    MovieID   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title string    `gorm:"not null" json:"title"`
	Year  int       `gorm:"not null" json:"year"`
	Cast  []ActorID `gorm:"-" json:"cast"`
}

// NewMovie builds a movie from validated values.
func NewMovie(values map[string]any) *Movie {
	m := &Movie{}
	m.Apply(values)
	return m
}

// Apply copies validated values onto m.
func (m *Movie) Apply(values map[string]any) {
	if v, ok := values[FieldTitle].(string); ok {
		m.Title = v
	}
	if v, ok := values[FieldYear].(int); ok {
		m.Year = v
	}
}

// Record returns every attribute of m, relation set included.
func (m *Movie) Record() map[string]any {
	return map[string]any{
		FieldID:    int64(m.ID),
		FieldTitle: m.Title,
		FieldYear:  m.Year,
		FieldCast:  m.CastRefs(),
	}
}

// CastRefs renders the cast as actor:<id> references.
func (m *Movie) CastRefs() []string {
	refs := make([]string, 0, len(m.Cast))
	for _, id := range m.Cast {
		refs = append(refs, id.Ref())
	}
	return refs
}

// AddActor adds id to the cast. It reports whether the set changed.
func (m *Movie) AddActor(id ActorID) bool {
	var changed bool
	m.Cast, changed = addID(m.Cast, id)
	return changed
}

// RemoveActor removes id from the cast. It reports whether the set changed.
func (m *Movie) RemoveActor(id ActorID) bool {
	var changed bool
	m.Cast, changed = removeID(m.Cast, id)
	return changed
}

// HasActor reports whether id is in the cast.
func (m *Movie) HasActor(id ActorID) bool {
	return slices.Contains(m.Cast, id)
}

// Clone returns a deep copy of m.
func (m *Movie) Clone() *Movie {
	c := *m
	c.Cast = slices.Clone(m.Cast)
	return &c
}

func (Movie) TableName() string { return "movies" }

// CastMember is one row of the actor/movie association. The SQL backend
// stores the relation in a single join table; both relation sets are read
// from it.
type CastMember struct {
	ActorID ActorID `gorm:"primaryKey;autoIncrement:false"`
	MovieID MovieID `gorm:"primaryKey;autoIncrement:false;index"`
}

func (CastMember) TableName() string { return "movie_cast" }

// addID inserts id keeping the set sorted and duplicate free.
func addID[T ~int64](set []T, id T) ([]T, bool) {
	i, found := slices.BinarySearch(set, id)
	if found {
		return set, false
	}
	return slices.Insert(set, i, id), true
}

func removeID[T ~int64](set []T, id T) ([]T, bool) {
	i, found := slices.BinarySearch(set, id)
	if !found {
		return set, false
	}
	return slices.Delete(set, i, i+1), true
}
