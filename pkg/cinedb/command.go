package cinedb

// Command represents a discrete application operation with its specific configuration.
//
// Parse returns one of the implementations below; Main dispatches it to the
// matching method on [App].
//
// Current command implementations:
//   - [MigrateCommand]: Database schema migration
//   - [RunCommand]: HTTP server startup and operation
type Command interface {
	// Name returns the command identifier, matching the CLI sub-command name.
	Name() string
}

// MigrateCommand prepares the configured store's schema.
//
// Store-specific behavior:
//   - [github.com/cinedb/cinedb/pkg/store/postgres.PostgresStore]: GORM AutoMigrate of the
//     actors, movies and movie_cast tables
//   - [github.com/cinedb/cinedb/pkg/store/surrealdb.SurrealStore]: defines the actor, movie and
//     sequence tables
//   - [github.com/cinedb/cinedb/pkg/store/memory.MemoryStore]: nothing to do
//
// The command is safe to run repeatedly. It is rejected in read-only mode.
//
// Example usage:
//
//	cinedb -store postgres migrate
type MigrateCommand struct{}

// Name returns "migrate".
func (c *MigrateCommand) Name() string {
	return "migrate"
}

// RunCommand starts the HTTP server.
//
// The server runs until its context is cancelled or the listener fails.
// See [App.Handler] for the routes it serves.
//
// Example usage:
//
//	cinedb run                                 # In-memory store on :8080
//	cinedb -store postgres -port 8090 run      # PostgreSQL from POSTGRES_DSN
//	cinedb -redis-addr localhost:6379 run      # Cache reads in Redis
//	cinedb -read-only run                      # Reject all writes
type RunCommand struct{}

// Name returns "run".
func (c *RunCommand) Name() string {
	return "run"
}
