// Package request turns an incoming HTTP request into a uniform key-value
// mapping, whatever transport encoding the client used.
//
// JSON bodies and form-encoded bodies both end up as a [Data] value. Nothing
// is validated here: unknown keys, empty values and malformed numbers are all
// passed through for the validator to judge.
package request

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// maxBodyBytes bounds how much of a request body is read.
const maxBodyBytes = 1 << 20

// ErrPayload is returned for bodies that cannot be read as an object.
var ErrPayload = fmt.Errorf("invalid request payload")

// Data is the normalized request payload. Values are strings (form bodies)
// or JSON scalars and containers, with numbers kept as json.Number.
type Data map[string]any

// Normalize extracts the body of r as Data.
//
// A body declared as JSON must decode into an object. Form-encoded and
// multipart bodies contribute the first value of every key. An empty body,
// or one with any other content type, yields an empty Data.
func Normalize(r *http.Request) (Data, error) {
	if r.Body == nil {
		return Data{}, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		return decodeJSON(r.Body)
	case mediaType == "application/x-www-form-urlencoded":
		return decodeForm(r)
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayload, err)
		}
		return fromValues(r.MultipartForm.Value), nil
	default:
		return Data{}, nil
	}
}

func decodeJSON(body io.Reader) (Data, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Data{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data Data
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrPayload)
	}
	return data, nil
}

func decodeForm(r *http.Request) (Data, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	return fromValues(r.PostForm), nil
}

func fromValues(values map[string][]string) Data {
	data := make(Data, len(values))
	for key, vs := range values {
		if len(vs) > 0 {
			data[key] = vs[0]
		}
	}
	return data
}

// Has reports whether key was supplied, even with an empty value.
func (d Data) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// String renders the value under key as text. Missing keys and null values
// render as "".
func (d Data) String(key string) string {
	return Stringify(d[key])
}

// Keys returns the supplied keys.
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	return keys
}

// Stringify renders a decoded value as text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}

// IsEmpty reports whether a decoded value counts as not filled in: null, an
// empty string, or an empty list or object.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

// ID returns the value of key from the query string, falling back to the
// body. ok is false when neither carries a non-empty value.
func ID(r *http.Request, data Data, key string) (string, bool) {
	if v := r.URL.Query().Get(key); v != "" {
		return v, true
	}
	if IsEmpty(data[key]) {
		return "", false
	}
	return data.String(key), true
}
