package models_test

import (
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedb/cinedb/pkg/models"
)

func TestRelationSetsStaySortedAndUnique(t *testing.T) {
	a := &models.Actor{ID: 1}
	assert.True(t, a.AddMovie(5))
	assert.True(t, a.AddMovie(2))
	assert.False(t, a.AddMovie(5))
	assert.Equal(t, []models.MovieID{2, 5}, a.Filmography)
	assert.Equal(t, []string{"movie:2", "movie:5"}, a.FilmographyRefs())

	assert.True(t, a.RemoveMovie(2))
	assert.False(t, a.RemoveMovie(2))
	assert.Equal(t, []models.MovieID{5}, a.Filmography)
}

func TestCloneIsDeep(t *testing.T) {
	m := &models.Movie{ID: 1, Title: "M", Year: 2020, Cast: []models.ActorID{1}}
	c := m.Clone()
	c.AddActor(2)
	assert.Equal(t, []models.ActorID{1}, m.Cast)
}

func TestApply(t *testing.T) {
	dob := models.NewDate(1990, time.January, 1)
	a := models.NewActor(map[string]any{"name": "A", "date_of_birth": dob})
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, dob, a.DateOfBirth)

	m := models.NewMovie(map[string]any{"title": "M", "year": 2020})
	m.Apply(map[string]any{"year": 2021})
	assert.Equal(t, "M", m.Title)
	assert.Equal(t, 2021, m.Year)
}

func TestIDRecordLinkCBOR(t *testing.T) {
	data, err := cbor.Marshal(models.MovieID(3))
	require.NoError(t, err)

	var tag cbor.Tag
	require.NoError(t, cbor.Unmarshal(data, &tag))
	assert.Equal(t, uint64(8), tag.Number)

	var id models.MovieID
	require.NoError(t, cbor.Unmarshal(data, &id))
	assert.Equal(t, models.MovieID(3), id)

	var wrong models.ActorID
	assert.Error(t, cbor.Unmarshal(data, &wrong))
}

func TestParseID(t *testing.T) {
	id, err := models.ParseID(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = models.ParseID("1.5")
	assert.Error(t, err)
}

func TestDateJSONAndScan(t *testing.T) {
	d := models.NewDate(1990, time.January, 1)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"1990-01-01"`, string(data))

	var back models.Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, d.Equal(back.Time))

	var scanned models.Date
	require.NoError(t, scanned.Scan("1990-01-01T00:00:00Z"))
	assert.Equal(t, "1990-01-01", scanned.String())

	require.NoError(t, scanned.Scan(time.Date(2001, 5, 6, 13, 0, 0, 0, time.Local)))
	assert.Equal(t, "2001-05-06", scanned.String())

	v, err := models.Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
