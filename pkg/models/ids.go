package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Table names, shared by every backend and by relation references.
const (
	ActorTable = "actor"
	MovieTable = "movie"
)

// recordIDTag is the CBOR tag SurrealDB uses for record ids.
const recordIDTag = 8

// ActorID is the store-assigned primary key of an actor.
type ActorID int64

// MovieID is the store-assigned primary key of a movie.
type MovieID int64

// ParseID parses an integer primary key, accepting surrounding whitespace and
// an optional sign.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func (id ActorID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id ActorID) Ref() string    { return ActorTable + ":" + id.String() }

func (id ActorID) RecordID() surrealmodels.RecordID {
	return surrealmodels.NewRecordID(ActorTable, int64(id))
}

func (id ActorID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  recordIDTag,
		Content: []any{ActorTable, int64(id)},
	})
}

func (id *ActorID) UnmarshalCBOR(data []byte) error {
	n, err := unmarshalCBORID(data, ActorTable)
	if err != nil {
		return err
	}
	*id = ActorID(n)
	return nil
}

func (id MovieID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id MovieID) Ref() string    { return MovieTable + ":" + id.String() }

func (id MovieID) RecordID() surrealmodels.RecordID {
	return surrealmodels.NewRecordID(MovieTable, int64(id))
}

func (id MovieID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  recordIDTag,
		Content: []any{MovieTable, int64(id)},
	})
}

func (id *MovieID) UnmarshalCBOR(data []byte) error {
	n, err := unmarshalCBORID(data, MovieTable)
	if err != nil {
		return err
	}
	*id = MovieID(n)
	return nil
}

// unmarshalCBORID decodes a SurrealDB record id (tag 8 around [table, id])
// whose id part is an integer.
func unmarshalCBORID(data []byte, expectedTable string) (int64, error) {
	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return 0, fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}
	if tag.Number != recordIDTag {
		return 0, fmt.Errorf("expected RecordID tag (%d), got %d", recordIDTag, tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return 0, fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}
	table, ok := arr[0].(string)
	if !ok || table != expectedTable {
		return 0, fmt.Errorf("expected table %s, got %v", expectedTable, arr[0])
	}
	return RecordNumber(arr[1])
}

// RecordNumber converts the id part of a record id into an int64.
func RecordNumber(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return ParseID(n)
	default:
		return 0, fmt.Errorf("unsupported record id type %T", v)
	}
}
