// Package ksqlclient binds ksql, through its pgx v5 adapter, to the
// benchmark contract.
package ksqlclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vingarcia/ksql"
	kpgx "github.com/vingarcia/ksql/adapters/kpgx5"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/workload"
)

// Adapter registers the ksql client with the harness.
var Adapter = bench.Adapter{
	Name:    "ksql",
	Kind:    "lightweight mapper",
	Library: "github.com/vingarcia/ksql",
	Open:    Open,
}

var usersTable = ksql.NewTable("users")

type user struct {
	ID        int32     `ksql:"id"`
	Name      string    `ksql:"name"`
	HairColor *string   `ksql:"hair_color"`
	CreatedAt time.Time `ksql:"created_at,skipInserts"`
}

func (u user) toBench() bench.User {
	return bench.User(u)
}

func toBenchUsers(users []user) []bench.User {
	out := make([]bench.User, len(users))
	for i, u := range users {
		out[i] = u.toBench()
	}

	return out
}

type post struct {
	ID      int32  `ksql:"id"`
	Title   string `ksql:"title"`
	Content string `ksql:"content"`
	Author  int32  `ksql:"author"`
}

func toBenchPosts(posts []post) []bench.Post {
	out := make([]bench.Post, len(posts))
	for i, p := range posts {
		out[i] = bench.Post(p)
	}

	return out
}

func newUser(u bench.NewUser) *user {
	hairColor := u.HairColor

	return &user{Name: u.Name, HairColor: &hairColor}
}

// Client is a bench.Client over a ksql.DB backed by kpgx.
type Client struct {
	db ksql.DB
}

// Open connects through the kpgx adapter with a single connection.
func Open(ctx context.Context, dsn string) (bench.Client, error) {
	db, err := kpgx.New(ctx, dsn, ksql.Config{
		MaxOpenConns: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Exec(ctx context.Context, statement string) error {
	if _, err := c.db.Exec(ctx, statement); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}

func (c *Client) InsertUser(ctx context.Context) error {
	if err := c.db.Insert(ctx, usersTable, newUser(workload.First)); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// InsertUsers inserts the fixture one row at a time inside a single
// transaction.
func (c *Client) InsertUsers(ctx context.Context, n int) error {
	fixture := workload.Users(n)
	if len(fixture) == 0 {
		return nil
	}

	err := c.db.Transaction(ctx, func(tx ksql.Provider) error {
		for _, u := range fixture {
			if err := tx.Insert(ctx, usersTable, newUser(u)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("insert %d users: %w", n, err)
	}

	return nil
}

func (c *Client) FetchAll(ctx context.Context) ([]bench.User, error) {
	var users []user
	if err := c.db.Query(ctx, &users, `FROM users`); err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}

	return toBenchUsers(users), nil
}

func (c *Client) FetchFirst(ctx context.Context) (bench.User, error) {
	var u user

	err := c.db.QueryOne(ctx, &u, `FROM users`)
	if errors.Is(err, ksql.ErrRecordNotFound) {
		return bench.User{}, fmt.Errorf("fetch first: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch first: %w", err)
	}

	return u.toBench(), nil
}

func (c *Client) FetchLast(ctx context.Context) (bench.User, error) {
	var u user

	err := c.db.QueryOne(ctx, &u, `FROM users OFFSET $1 LIMIT 1`, bench.LastRowOffset)
	if errors.Is(err, ksql.ErrRecordNotFound) {
		return bench.User{}, fmt.Errorf("fetch last: %w: %w", bench.ErrOffsetOutOfRange, err)
	}
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch last: %w", err)
	}

	return u.toBench(), nil
}

func (c *Client) OneRelation(ctx context.Context) (bench.User, []bench.Post, error) {
	var u user

	err := c.db.QueryOne(ctx, &u, `FROM users WHERE id = $1`, bench.RelationUserID)
	if errors.Is(err, ksql.ErrRecordNotFound) {
		return bench.User{}, nil, fmt.Errorf("one relation: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: user: %w", err)
	}

	var posts []post
	if err := c.db.Query(ctx, &posts, `FROM posts WHERE author = $1 ORDER BY id`, u.ID); err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: posts: %w", err)
	}

	return u.toBench(), toBenchPosts(posts), nil
}

func (c *Client) AllRelations(ctx context.Context) ([]bench.UserPosts, error) {
	var users []user
	if err := c.db.Query(ctx, &users, `FROM users`); err != nil {
		return nil, fmt.Errorf("all relations: users: %w", err)
	}

	var posts []post
	if err := c.db.Query(ctx, &posts, `FROM posts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("all relations: posts: %w", err)
	}

	return bench.GroupPosts(toBenchUsers(users), toBenchPosts(posts)), nil
}

func (c *Client) Close() error {
	return c.db.Close()
}
