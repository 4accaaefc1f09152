package validate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedb/cinedb/pkg/apperr"
	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/request"
	"github.com/cinedb/cinedb/pkg/validate"
)

func existsIn(ids ...int64) validate.ExistsFunc {
	return func(_ context.Context, id int64) (bool, error) {
		for _, known := range ids {
			if known == id {
				return true, nil
			}
		}
		return false, nil
	}
}

func TestValidateCreate(t *testing.T) {
	v := validate.New()

	t.Run("actor", func(t *testing.T) {
		values, err := v.ValidateCreate(validate.ActorRules, request.Data{
			"name":          "A",
			"date_of_birth": "1990-01-01",
		})
		require.NoError(t, err)
		assert.Equal(t, "A", values["name"])
		assert.Equal(t, models.NewDate(1990, time.January, 1), values["date_of_birth"])
	})

	t.Run("movie year as string and number", func(t *testing.T) {
		for _, year := range []any{"2020", json.Number("2020"), " 2020 "} {
			values, err := v.ValidateCreate(validate.MovieRules, request.Data{"title": "M", "year": year})
			require.NoError(t, err)
			assert.Equal(t, 2020, values["year"])
		}
	})

	t.Run("id is implicitly allowed and dropped", func(t *testing.T) {
		values, err := v.ValidateCreate(validate.MovieRules, request.Data{"id": "5", "title": "M", "year": "2020"})
		require.NoError(t, err)
		assert.NotContains(t, values, "id")
	})
}

func TestValidateCreateRejectsMissingFields(t *testing.T) {
	v := validate.New()
	cases := map[string]request.Data{
		"absent title":   {"year": "2020"},
		"empty title":    {"title": "", "year": "2020"},
		"null year":      {"title": "M", "year": nil},
		"empty list":     {"title": []any{}, "year": "2020"},
		"nothing at all": {},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.ValidateCreate(validate.MovieRules, data)
			require.ErrorIs(t, err, apperr.MissingField)
			assert.Contains(t, err.Error(), apperr.MsgFieldsRequired)
		})
	}
}

func TestValidateCreateRejectsUnknownFields(t *testing.T) {
	v := validate.New()

	_, err := v.ValidateCreate(validate.ActorRules, request.Data{
		"name":          "A",
		"date_of_birth": "1990-01-01",
		"filmography":   "movie:1",
	})
	require.ErrorIs(t, err, apperr.UnknownField)
	assert.Equal(t, "Invalid field: filmography", err.Error())

	// Unknown keys are rejected even when other fields are malformed.
	_, err = v.ValidateCreate(validate.ActorRules, request.Data{
		"name":          "A",
		"date_of_birth": "yesterday",
		"zeta":          1,
		"alpha":         2,
	})
	require.ErrorIs(t, err, apperr.UnknownField)
	assert.Equal(t, "Invalid fields: alpha, zeta", err.Error())
}

func TestValidateCreateRejectsInvalidFormats(t *testing.T) {
	v := validate.New()

	_, err := v.ValidateCreate(validate.ActorRules, request.Data{"name": "A", "date_of_birth": "01/01/1990"})
	require.ErrorIs(t, err, apperr.InvalidFormat)
	assert.Equal(t, "Date of birth must be in format YYYY-MM-DD", err.Error())

	_, err = v.ValidateCreate(validate.ActorRules, request.Data{"name": "A", "date_of_birth": "1990-02-30"})
	require.ErrorIs(t, err, apperr.InvalidFormat)

	// Unpadded months and days are not accepted.
	_, err = v.ValidateCreate(validate.ActorRules, request.Data{"name": "A", "date_of_birth": "1990-1-1"})
	require.ErrorIs(t, err, apperr.InvalidFormat)

	_, err = v.ValidateCreate(validate.MovieRules, request.Data{"title": "M", "year": "twenty"})
	require.ErrorIs(t, err, apperr.InvalidFormat)
	assert.Equal(t, "Year must be an integer", err.Error())

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "year", e.Field)
}

func TestValidateUpdate(t *testing.T) {
	v := validate.New()
	ctx := context.Background()

	id, values, err := v.ValidateUpdate(ctx, validate.MovieRules, request.Data{"id": json.Number("3"), "year": "1999"}, existsIn(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, validate.Values{"year": 1999}, values)

	id, values, err = v.ValidateUpdate(ctx, validate.MovieRules, request.Data{"id": "3"}, existsIn(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.Empty(t, values)
}

func TestValidateUpdateErrors(t *testing.T) {
	v := validate.New()
	ctx := context.Background()

	cases := []struct {
		name    string
		data    request.Data
		kind    error
		message string
	}{
		{"missing id", request.Data{"title": "M"}, apperr.MissingID, apperr.MsgNoID},
		{"empty id", request.Data{"id": "", "title": "M"}, apperr.MissingID, apperr.MsgNoID},
		{"non integer id", request.Data{"id": "abc"}, apperr.InvalidID, apperr.MsgIDNotInteger},
		{"unknown id", request.Data{"id": "42", "title": "M"}, apperr.NotFound, apperr.MsgRecordNotFound},
		{"empty provided field", request.Data{"id": "3", "title": ""}, apperr.MissingField, ""},
		{"unknown field", request.Data{"id": "3", "rating": "5"}, apperr.UnknownField, "Invalid field: rating"},
		{"bad year", request.Data{"id": "3", "year": "1999.5"}, apperr.InvalidFormat, "Year must be an integer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := v.ValidateUpdate(ctx, validate.MovieRules, tc.data, existsIn(3))
			require.ErrorIs(t, err, tc.kind)
			if tc.message != "" {
				assert.Equal(t, tc.message, err.Error())
			}
		})
	}
}

func TestValidateUpdatePropagatesLookupErrors(t *testing.T) {
	boom := errors.New("store down")
	_, _, err := validate.New().ValidateUpdate(context.Background(), validate.ActorRules, request.Data{"id": "1"},
		func(context.Context, int64) (bool, error) { return false, boom })
	require.ErrorIs(t, err, boom)
	assert.False(t, apperr.IsRequestError(err))
}
