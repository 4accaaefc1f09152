// Package cinedb implements the cinedb HTTP service: a CRUD API over actors
// and movies joined by a many-to-many relation.
//
// # Request flow
//
// Every handler follows the same pipeline:
//
//  1. [github.com/cinedb/cinedb/pkg/request.Normalize] turns a JSON or
//     form-encoded body into a uniform key-value map.
//  2. [github.com/cinedb/cinedb/pkg/validate] checks it against the
//     entity's whitelist and coerces typed fields.
//  3. The store (single-record writes) or the relation manager (anything
//     touching both sides of the association) applies the change.
//  4. [github.com/cinedb/cinedb/pkg/shape] projects the result onto the
//     entity's public fields.
//
// Errors from the request taxonomy in [github.com/cinedb/cinedb/pkg/apperr]
// are answered with 400 and {"error": message}. Writes rejected in
// read-only mode get 503, anything unexpected 500.
//
// # Stores
//
// The -store flag selects memory (default), postgres or surrealdb. Setting
// -redis-addr puts a Redis cache-aside layer in front of whichever is
// chosen. All of them sit behind a read-only switch that can be flipped at
// runtime with [App.SetReadOnly].
//
// # Observability
//
// Logs are structured (zerolog), with one access line per request carrying
// the X-Request-ID. Prometheus metrics are served on /metrics.
package cinedb
