package cinedb

import (
	"context"
	"fmt"
)

// Main is the main entry point for the cinedb application.
// It parses args, builds the [App] and executes the requested command.
// Tests can call it directly; cancelling ctx stops a running server.
//
// # Command Line Usage
//
//	cinedb [flags] run
//	cinedb [flags] migrate
//
// # Environment Variables
//
//	POSTGRES_DSN     - PostgreSQL connection string
//	SURREALDB_URL    - SurrealDB WebSocket URL (default: ws://localhost:8000/rpc)
//	SURREALDB_NS     - SurrealDB namespace (default: cinedb)
//	SURREALDB_DB     - SurrealDB database (default: cinedb)
//	SURREALDB_USER   - SurrealDB username (default: root)
//	SURREALDB_PASS   - SurrealDB password (default: root)
//	REDIS_ADDR       - Redis host:port; enables the record cache
//	REDIS_PASSWORD   - Redis password
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(config)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *MigrateCommand:
		if err := app.Migrate(ctx, c); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case *RunCommand:
		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}
