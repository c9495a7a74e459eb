// Package bench defines the contract every Postgres client adapter
// implements, the entities they map rows into, and the schema lifecycle
// shared by all benchmark operations.
package bench

import (
	"context"
	"errors"
)

var (
	// ErrNoRows is returned when a fetch expected at least one row.
	ErrNoRows = errors.New("no rows in result set")

	// ErrOffsetOutOfRange is returned by FetchLast when the table holds
	// fewer than LastRowOffset+1 rows.
	ErrOffsetOutOfRange = errors.New("row offset out of range")

	// ErrInvalidState is returned when a Session method is called in a
	// state that does not allow it.
	ErrInvalidState = errors.New("invalid session state")
)

// Client is the surface a library adapter exposes to the harness.
// Implementations wrap the library's native error with %w.
type Client interface {
	// Exec runs a single side-effecting statement such as DDL.
	Exec(ctx context.Context, statement string) error

	// InsertUser inserts the fixed row ("User 0", "hair color 0").
	InsertUser(ctx context.Context) error

	// InsertUsers inserts n rows named "User {i}" with hair color
	// "hair color {i}" for i in [0, n).
	InsertUsers(ctx context.Context, n int) error

	FetchAll(ctx context.Context) ([]User, error)

	// FetchFirst returns the first row in the result set's natural order.
	FetchFirst(ctx context.Context) (User, error)

	// FetchLast returns the row at LastRowOffset in natural order.
	FetchLast(ctx context.Context) (User, error)

	// OneRelation returns the user RelationUserID and all of its posts.
	OneRelation(ctx context.Context) (User, []Post, error)

	// AllRelations returns every user paired with its own posts.
	AllRelations(ctx context.Context) ([]UserPosts, error)

	Close() error
}

// Factory opens a Client for the given connection string.
type Factory func(ctx context.Context, dsn string) (Client, error)

// Adapter describes one library binding known to the harness.
type Adapter struct {
	Name    string
	Kind    string
	Library string
	Open    Factory
}
