// Package validate checks normalized request data against per-entity rules
// and coerces typed fields.
//
// Format checks are go-playground/validator tags applied to the textual
// form of each value; a field that passes its tag is then converted by the
// rule's Coerce function.
package validate

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cinedb/cinedb/pkg/apperr"
	"github.com/cinedb/cinedb/pkg/models"
	"github.com/cinedb/cinedb/pkg/request"
)

// Values holds validated, coerced field values keyed by field name.
type Values map[string]any

// Format is the textual format of a typed field.
type Format struct {
	// Tag is a validator tag applied to the string form of the value.
	Tag string
	// Message is returned to the client when Tag fails.
	Message string
	// Coerce converts a value that passed Tag into its stored type.
	Coerce func(string) (any, error)
}

// Rules describes what a valid write of one entity looks like.
type Rules struct {
	Entity    string
	Whitelist models.Fields
	Formats   map[string]Format
}

// Required returns the fields a create call must carry: every whitelisted
// field except the id.
func (r Rules) Required() []string {
	fields := make([]string, 0, len(r.Whitelist))
	for _, f := range r.Whitelist {
		if f != models.FieldID {
			fields = append(fields, f)
		}
	}
	return fields
}

var (
	ActorRules = Rules{
		Entity:    models.ActorTable,
		Whitelist: models.ActorFields,
		Formats: map[string]Format{
			models.FieldDateOfBirth: {
				Tag:     "datetime=" + models.DateLayout,
				Message: "Date of birth must be in format YYYY-MM-DD",
				Coerce: func(s string) (any, error) {
					return models.ParseDate(s)
				},
			},
		},
	}

	MovieRules = Rules{
		Entity:    models.MovieTable,
		Whitelist: models.MovieFields,
		Formats: map[string]Format{
			models.FieldYear: {
				Tag:     "integer",
				Message: "Year must be an integer",
				Coerce: func(s string) (any, error) {
					return strconv.Atoi(strings.TrimSpace(s))
				},
			},
		},
	}
)

// ExistsFunc reports whether a record with the given id is stored.
type ExistsFunc func(ctx context.Context, id int64) (bool, error)

// Validator applies Rules to request data. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("integer", isInteger)
	return &Validator{validate: v}
}

func isInteger(fl validator.FieldLevel) bool {
	_, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
	return err == nil
}

// ValidateCreate checks a create payload. Every required field must be
// present and non-empty, no key may fall outside the whitelist, and typed
// fields must parse.
func (v *Validator) ValidateCreate(rules Rules, data request.Data) (Values, error) {
	for _, field := range rules.Required() {
		if request.IsEmpty(data[field]) {
			return nil, apperr.Missing(field)
		}
	}
	if err := checkWhitelist(rules, data); err != nil {
		return nil, err
	}
	return v.coerce(rules, data)
}

// ValidateUpdate checks an update payload and returns the target id. The id
// must be present, integer and stored; the remaining fields are optional but
// each one provided must be non-empty, whitelisted and well formed.
func (v *Validator) ValidateUpdate(ctx context.Context, rules Rules, data request.Data, exists ExistsFunc) (int64, Values, error) {
	id, err := ParseID(data[models.FieldID])
	if err != nil {
		return 0, nil, err
	}
	ok, err := exists(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, apperr.New(apperr.NotFound, models.FieldID, apperr.MsgRecordNotFound)
	}

	for _, field := range sortedKeys(data) {
		if field != models.FieldID && request.IsEmpty(data[field]) {
			return 0, nil, apperr.Missing(field)
		}
	}
	if err := checkWhitelist(rules, data); err != nil {
		return 0, nil, err
	}
	values, err := v.coerce(rules, data)
	if err != nil {
		return 0, nil, err
	}
	return id, values, nil
}

// ParseID validates a raw id value: MissingId when absent or empty,
// InvalidId when it is not an integer.
func ParseID(raw any) (int64, error) {
	if request.IsEmpty(raw) {
		return 0, apperr.New(apperr.MissingID, models.FieldID, apperr.MsgNoID)
	}
	id, err := models.ParseID(request.Stringify(raw))
	if err != nil {
		return 0, apperr.New(apperr.InvalidID, models.FieldID, apperr.MsgIDNotInteger)
	}
	return id, nil
}

func checkWhitelist(rules Rules, data request.Data) error {
	var unknown []string
	for _, key := range sortedKeys(data) {
		if key != models.FieldID && !rules.Whitelist.Has(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		return apperr.Unknown(unknown...)
	}
	return nil
}

// coerce converts every supplied non-id field. Callers have already
// rejected keys outside the whitelist.
func (v *Validator) coerce(rules Rules, data request.Data) (Values, error) {
	values := make(Values, len(data))
	for _, field := range sortedKeys(data) {
		if field == models.FieldID {
			continue
		}
		text := request.Stringify(data[field])
		format, typed := rules.Formats[field]
		if !typed {
			values[field] = text
			continue
		}
		if err := v.validate.Var(text, format.Tag); err != nil {
			return nil, apperr.New(apperr.InvalidFormat, field, format.Message)
		}
		coerced, err := format.Coerce(text)
		if err != nil {
			return nil, apperr.New(apperr.InvalidFormat, field, format.Message)
		}
		values[field] = coerced
	}
	return values, nil
}

func sortedKeys(data request.Data) []string {
	keys := data.Keys()
	sort.Strings(keys)
	return keys
}
