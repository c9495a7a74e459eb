// Package pqclient binds database/sql with the lib/pq driver to the
// benchmark contract.
package pqclient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/workload"
)

// Adapter registers the lib/pq client with the harness.
var Adapter = bench.Adapter{
	Name:    "pq",
	Kind:    "sync driver",
	Library: "github.com/lib/pq",
	Open:    Open,
}

// Client is a bench.Client over a *sql.DB limited to one connection.
type Client struct {
	db *sql.DB
}

// Open builds a pq connector for dsn and checks the server answers.
func Open(ctx context.Context, dsn string) (_ bench.Client, status error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	db := sql.OpenDB(connector)
	defer func() {
		if status != nil {
			_ = db.Close()
		}
	}()

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Exec(ctx context.Context, statement string) error {
	if _, err := c.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}

func (c *Client) InsertUser(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, bench.InsertUserSQL, workload.First.Name, workload.First.HairColor)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// InsertUsers streams the fixture rows through COPY inside a transaction.
func (c *Client) InsertUsers(ctx context.Context, n int) (status error) {
	users := workload.Users(n)
	if len(users) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if status != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("users", "name", "hair_color"))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	for _, u := range users {
		if _, err := stmt.ExecContext(ctx, u.Name, u.HairColor); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copy row: %w", err)
		}
	}

	// An Exec without arguments flushes the buffered rows.
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("copy %d users: %w", n, err)
	}

	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func scanUser(row interface{ Scan(...any) error }) (bench.User, error) {
	var u bench.User
	err := row.Scan(&u.ID, &u.Name, &u.HairColor, &u.CreatedAt)

	return u, err
}

func (c *Client) FetchAll(ctx context.Context) ([]bench.User, error) {
	rows, err := c.db.QueryContext(ctx, bench.SelectUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}
	defer rows.Close()

	var users []bench.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("fetch all: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}

	return users, nil
}

func (c *Client) FetchFirst(ctx context.Context) (bench.User, error) {
	u, err := scanUser(c.db.QueryRowContext(ctx, bench.SelectUsersSQL))
	if errors.Is(err, sql.ErrNoRows) {
		return bench.User{}, fmt.Errorf("fetch first: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch first: %w", err)
	}

	return u, nil
}

// FetchLast steps over the first bench.LastRowOffset rows without
// decoding them.
func (c *Client) FetchLast(ctx context.Context) (bench.User, error) {
	rows, err := c.db.QueryContext(ctx, bench.SelectUsersSQL)
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch last: %w", err)
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		if i < bench.LastRowOffset {
			continue
		}

		u, err := scanUser(rows)
		if err != nil {
			return bench.User{}, fmt.Errorf("fetch last: %w", err)
		}

		return u, nil
	}

	if err := rows.Err(); err != nil {
		return bench.User{}, fmt.Errorf("fetch last: %w", err)
	}

	return bench.User{}, fmt.Errorf("fetch last: %w", bench.ErrOffsetOutOfRange)
}

// relationRow holds the scan targets of one aggregated relation row.
type relationRow struct {
	user     bench.User
	ids      pq.Int64Array
	titles   pq.StringArray
	contents pq.StringArray
}

func (r *relationRow) targets() []any {
	return []any{
		&r.user.ID, &r.user.Name, &r.user.HairColor, &r.user.CreatedAt,
		&r.ids, &r.titles, &r.contents,
	}
}

func (r *relationRow) posts() []bench.Post {
	ids := make([]int32, len(r.ids))
	for i, id := range r.ids {
		ids[i] = int32(id)
	}

	return bench.ZipPosts(r.user.ID, ids, r.titles, r.contents)
}

func (c *Client) OneRelation(ctx context.Context) (bench.User, []bench.Post, error) {
	var r relationRow

	err := c.db.QueryRowContext(ctx, bench.SelectUserWithPostsSQL, bench.RelationUserID).Scan(r.targets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return bench.User{}, nil, fmt.Errorf("one relation: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: %w", err)
	}

	return r.user, r.posts(), nil
}

func (c *Client) AllRelations(ctx context.Context) ([]bench.UserPosts, error) {
	rows, err := c.db.QueryContext(ctx, bench.SelectUsersWithPostsSQL)
	if err != nil {
		return nil, fmt.Errorf("all relations: %w", err)
	}
	defer rows.Close()

	var out []bench.UserPosts
	for rows.Next() {
		var r relationRow
		if err := rows.Scan(r.targets()...); err != nil {
			return nil, fmt.Errorf("all relations: %w", err)
		}

		out = append(out, bench.UserPosts{User: r.user, Posts: r.posts()})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("all relations: %w", err)
	}

	return out, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}
