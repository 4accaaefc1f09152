// Package client provides a Go HTTP client for the cinedb API.
//
// [Client] mirrors the server's endpoints: collection listings, single
// record CRUD for actors and movies, and the two relation endpoints. Errors
// returned by the server come back as [*APIError], carrying the status code
// and the server's message:
//
//	c := client.NewClient("http://localhost:8080")
//
//	actor, err := c.CreateActor(ctx, client.Fields{
//		"name":          "Keanu Reeves",
//		"date_of_birth": "1964-09-02",
//	})
//
//	movie, err := c.CreateMovie(ctx, client.Fields{"title": "The Matrix", "year": 1999})
//
//	actor, err = c.AddMovieToActor(ctx, actor.ID, movie.ID)
//	fmt.Println(actor.Filmography) // [movie:1]
//
// Write calls take [Fields] rather than typed structs so that callers can
// send exactly the keys they want, including ones the server will reject.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Fields is a request body.
type Fields map[string]any

// Actor is an actor as returned by the API. Filmography is only set by the
// relation endpoints.
type Actor struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"`
	Filmography string `json:"filmography,omitempty"`
}

// Movie is a movie as returned by the API. Cast is only set by the relation
// endpoints.
type Movie struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Year  int    `json:"year"`
	Cast  string `json:"cast,omitempty"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status=%d, message=%s", e.StatusCode, e.Message)
}

// Client provides typed access to the cinedb REST API. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL, which includes the
// scheme and host but no trailing slash.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// doRequest performs an HTTP request with a JSON body when body is non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// decodeResponse decodes the JSON response into target, or the error body
// into an *APIError.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
			payload.Error = string(body)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, target any) error {
	resp, err := c.doRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}

func idQuery(id int64) url.Values {
	return url.Values{"id": {strconv.FormatInt(id, 10)}}
}

func withID(id int64, fields Fields) Fields {
	body := make(Fields, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["id"] = id
	return body
}

// Health checks the health status of the server.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var result map[string]any
	if err := c.call(ctx, http.MethodGet, "/health", nil, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Actors

// ListActors returns every actor.
func (c *Client) ListActors(ctx context.Context) ([]Actor, error) {
	var result []Actor
	if err := c.call(ctx, http.MethodGet, "/api/actors", nil, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetActor retrieves an actor by id.
func (c *Client) GetActor(ctx context.Context, id int64) (*Actor, error) {
	var result Actor
	if err := c.call(ctx, http.MethodGet, "/api/actor", idQuery(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateActor creates an actor from fields.
func (c *Client) CreateActor(ctx context.Context, fields Fields) (*Actor, error) {
	var result Actor
	if err := c.call(ctx, http.MethodPost, "/api/actor", nil, fields, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateActor changes the given fields of actor id.
func (c *Client) UpdateActor(ctx context.Context, id int64, fields Fields) (*Actor, error) {
	var result Actor
	if err := c.call(ctx, http.MethodPut, "/api/actor", nil, withID(id, fields), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteActor deletes actor id and removes it from every cast.
func (c *Client) DeleteActor(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, "/api/actor", idQuery(id), nil, nil)
}

// AddMovieToActor links actor and movie on both sides.
func (c *Client) AddMovieToActor(ctx context.Context, actorID, movieID int64) (*Actor, error) {
	var result Actor
	body := Fields{"id": actorID, "relation_id": movieID}
	if err := c.call(ctx, http.MethodPut, "/api/actor-relations", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClearActor empties the actor's filmography.
func (c *Client) ClearActor(ctx context.Context, actorID int64) (*Actor, error) {
	var result Actor
	if err := c.call(ctx, http.MethodDelete, "/api/actor-relations", nil, Fields{"id": actorID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Movies

// ListMovies returns every movie.
func (c *Client) ListMovies(ctx context.Context) ([]Movie, error) {
	var result []Movie
	if err := c.call(ctx, http.MethodGet, "/api/movies", nil, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetMovie retrieves a movie by id.
func (c *Client) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	var result Movie
	if err := c.call(ctx, http.MethodGet, "/api/movie", idQuery(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateMovie creates a movie from fields.
func (c *Client) CreateMovie(ctx context.Context, fields Fields) (*Movie, error) {
	var result Movie
	if err := c.call(ctx, http.MethodPost, "/api/movie", nil, fields, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateMovie changes the given fields of movie id.
func (c *Client) UpdateMovie(ctx context.Context, id int64, fields Fields) (*Movie, error) {
	var result Movie
	if err := c.call(ctx, http.MethodPut, "/api/movie", nil, withID(id, fields), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteMovie deletes movie id and removes it from every filmography.
func (c *Client) DeleteMovie(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, "/api/movie", idQuery(id), nil, nil)
}

// AddActorToMovie links movie and actor on both sides.
func (c *Client) AddActorToMovie(ctx context.Context, movieID, actorID int64) (*Movie, error) {
	var result Movie
	body := Fields{"id": movieID, "relation_id": actorID}
	if err := c.call(ctx, http.MethodPut, "/api/movie-relations", nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClearMovie empties the movie's cast.
func (c *Client) ClearMovie(ctx context.Context, movieID int64) (*Movie, error) {
	var result Movie
	if err := c.call(ctx, http.MethodDelete, "/api/movie-relations", nil, Fields{"id": movieID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
