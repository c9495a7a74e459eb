// Package pgxclient binds a single synchronous pgx connection to the
// benchmark contract.
package pgxclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/workload"
)

// Adapter registers the pgx client with the harness.
var Adapter = bench.Adapter{
	Name:    "pgx",
	Kind:    "sync driver",
	Library: "github.com/jackc/pgx/v5",
	Open:    Open,
}

type user struct {
	ID        int32     `db:"id"`
	Name      string    `db:"name"`
	HairColor *string   `db:"hair_color"`
	CreatedAt time.Time `db:"created_at"`
}

func (u user) toBench() bench.User {
	return bench.User{
		ID:        u.ID,
		Name:      u.Name,
		HairColor: u.HairColor,
		CreatedAt: u.CreatedAt,
	}
}

// Client is a bench.Client over one *pgx.Conn.
type Client struct {
	conn *pgx.Conn
}

// Open connects to dsn.
func Open(ctx context.Context, dsn string) (bench.Client, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Exec(ctx context.Context, statement string) error {
	if _, err := c.conn.Exec(ctx, statement); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}

func (c *Client) InsertUser(ctx context.Context) error {
	_, err := c.conn.Exec(ctx, bench.InsertUserSQL, workload.First.Name, workload.First.HairColor)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// InsertUsers streams the fixture rows with COPY.
func (c *Client) InsertUsers(ctx context.Context, n int) error {
	users := workload.Users(n)
	if len(users) == 0 {
		return nil
	}

	_, err := c.conn.CopyFrom(ctx,
		pgx.Identifier{"users"},
		[]string{"name", "hair_color"},
		pgx.CopyFromSlice(len(users), func(i int) ([]any, error) {
			return []any{users[i].Name, users[i].HairColor}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy %d users: %w", n, err)
	}

	return nil
}

func (c *Client) FetchAll(ctx context.Context) ([]bench.User, error) {
	rows, err := c.conn.Query(ctx, bench.SelectUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[user])
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}

	out := make([]bench.User, len(users))
	for i, u := range users {
		out[i] = u.toBench()
	}

	return out, nil
}

func (c *Client) FetchFirst(ctx context.Context) (bench.User, error) {
	rows, err := c.conn.Query(ctx, bench.SelectUsersSQL)
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch first: %w", err)
	}

	u, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[user])
	if errors.Is(err, pgx.ErrNoRows) {
		return bench.User{}, fmt.Errorf("fetch first: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch first: %w", err)
	}

	return u.toBench(), nil
}

// FetchLast walks the full result set and decodes only the row at
// bench.LastRowOffset.
func (c *Client) FetchLast(ctx context.Context) (bench.User, error) {
	rows, err := c.conn.Query(ctx, bench.SelectUsersSQL)
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch last: %w", err)
	}
	defer rows.Close()

	for i := 0; rows.Next(); i++ {
		if i < bench.LastRowOffset {
			continue
		}

		u, err := pgx.RowToStructByName[user](rows)
		if err != nil {
			return bench.User{}, fmt.Errorf("fetch last: %w", err)
		}

		return u.toBench(), nil
	}

	if err := rows.Err(); err != nil {
		return bench.User{}, fmt.Errorf("fetch last: %w", err)
	}

	return bench.User{}, fmt.Errorf("fetch last: %w", bench.ErrOffsetOutOfRange)
}

func (c *Client) OneRelation(ctx context.Context) (bench.User, []bench.Post, error) {
	var (
		u        bench.User
		ids      []int32
		titles   []string
		contents []string
	)

	err := c.conn.QueryRow(ctx, bench.SelectUserWithPostsSQL, bench.RelationUserID).
		Scan(&u.ID, &u.Name, &u.HairColor, &u.CreatedAt, &ids, &titles, &contents)
	if errors.Is(err, pgx.ErrNoRows) {
		return bench.User{}, nil, fmt.Errorf("one relation: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: %w", err)
	}

	return u, bench.ZipPosts(u.ID, ids, titles, contents), nil
}

func (c *Client) AllRelations(ctx context.Context) ([]bench.UserPosts, error) {
	rows, err := c.conn.Query(ctx, bench.SelectUsersWithPostsSQL)
	if err != nil {
		return nil, fmt.Errorf("all relations: %w", err)
	}

	var (
		out      []bench.UserPosts
		u        bench.User
		ids      []int32
		titles   []string
		contents []string
	)

	_, err = pgx.ForEachRow(rows,
		[]any{&u.ID, &u.Name, &u.HairColor, &u.CreatedAt, &ids, &titles, &contents},
		func() error {
			out = append(out, bench.UserPosts{
				User:  u,
				Posts: bench.ZipPosts(u.ID, ids, titles, contents),
			})

			// Scan targets are reused; a non-nil pointer would be written through.
			u = bench.User{}
			ids, titles, contents = nil, nil, nil

			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("all relations: %w", err)
	}

	return out, nil
}

func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return c.conn.Close(ctx)
}
