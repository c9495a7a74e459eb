// Package pgxasync binds a pgxpool pool to the benchmark contract.
// Multi-statement operations queue their statements on a pgx.Batch, send
// them in one pipelined round trip and block on the BatchResults, so each
// method still returns only after the server has answered.
package pgxasync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/workload"
)

// Adapter registers the pgxpool client with the harness.
var Adapter = bench.Adapter{
	Name:    "pgxasync",
	Kind:    "async driver",
	Library: "github.com/jackc/pgx/v5/pgxpool",
	Open:    Open,
}

const (
	selectUserByIDSQL      = bench.SelectUsersSQL + ` WHERE id = $1`
	selectPostsByAuthorSQL = bench.SelectPostsSQL + ` WHERE author = $1 ORDER BY id`
	selectPostsByIDSQL     = bench.SelectPostsSQL + ` ORDER BY id`
)

type user struct {
	ID        int32     `db:"id"`
	Name      string    `db:"name"`
	HairColor *string   `db:"hair_color"`
	CreatedAt time.Time `db:"created_at"`
}

func (u user) toBench() bench.User {
	return bench.User{ID: u.ID, Name: u.Name, HairColor: u.HairColor, CreatedAt: u.CreatedAt}
}

type post struct {
	ID      int32  `db:"id"`
	Title   string `db:"title"`
	Content string `db:"content"`
	Author  int32  `db:"author"`
}

func toBenchUsers(users []user) []bench.User {
	out := make([]bench.User, len(users))
	for i, u := range users {
		out[i] = u.toBench()
	}

	return out
}

func toBenchPosts(posts []post) []bench.Post {
	out := make([]bench.Post, len(posts))
	for i, p := range posts {
		out[i] = bench.Post(p)
	}

	return out
}

// Client is a bench.Client over a single-connection pgxpool.Pool.
type Client struct {
	pool *pgxpool.Pool
}

// Open creates the pool and verifies it can reach the server.
func Open(ctx context.Context, dsn string) (bench.Client, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	// Trials never overlap, so one connection is enough.
	cfg.MaxConns = 1
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	cfg.ConnConfig.StatementCacheCapacity = 256

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Client{pool: pool}, nil
}

func (c *Client) Exec(ctx context.Context, statement string) error {
	if _, err := c.pool.Exec(ctx, statement); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}

func (c *Client) InsertUser(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, bench.InsertUserSQL, workload.First.Name, workload.First.HairColor)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// InsertUsers queues one INSERT per fixture row and sends them as a
// single batch.
func (c *Client) InsertUsers(ctx context.Context, n int) error {
	users := workload.Users(n)
	if len(users) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, u := range users {
		batch.Queue(bench.InsertUserSQL, u.Name, u.HairColor)
	}

	if err := c.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %d users: %w", n, err)
	}

	return nil
}

func (c *Client) FetchAll(ctx context.Context) ([]bench.User, error) {
	rows, err := c.pool.Query(ctx, bench.SelectUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[user])
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}

	return toBenchUsers(users), nil
}

func (c *Client) FetchFirst(ctx context.Context) (bench.User, error) {
	var u bench.User

	err := c.pool.QueryRow(ctx, bench.SelectUsersSQL).
		Scan(&u.ID, &u.Name, &u.HairColor, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return bench.User{}, fmt.Errorf("fetch first: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch first: %w", err)
	}

	return u, nil
}

// FetchLast loads the whole table and indexes it.
func (c *Client) FetchLast(ctx context.Context) (bench.User, error) {
	users, err := c.FetchAll(ctx)
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch last: %w", err)
	}

	if len(users) <= bench.LastRowOffset {
		return bench.User{}, fmt.Errorf("fetch last: %d rows: %w", len(users), bench.ErrOffsetOutOfRange)
	}

	return users[bench.LastRowOffset], nil
}

// OneRelation pipelines the user and post queries in one batch.
func (c *Client) OneRelation(ctx context.Context) (bench.User, []bench.Post, error) {
	batch := &pgx.Batch{}
	batch.Queue(selectUserByIDSQL, bench.RelationUserID)
	batch.Queue(selectPostsByAuthorSQL, bench.RelationUserID)

	results := c.pool.SendBatch(ctx, batch)
	defer results.Close()

	rows, err := results.Query()
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: user: %w", err)
	}

	u, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[user])
	if errors.Is(err, pgx.ErrNoRows) {
		return bench.User{}, nil, fmt.Errorf("one relation: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: user: %w", err)
	}

	rows, err = results.Query()
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: posts: %w", err)
	}

	posts, err := pgx.CollectRows(rows, pgx.RowToStructByName[post])
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: posts: %w", err)
	}

	if err := results.Close(); err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: %w", err)
	}

	return u.toBench(), toBenchPosts(posts), nil
}

// AllRelations pipelines the user and post scans in one batch and groups
// posts by author.
func (c *Client) AllRelations(ctx context.Context) ([]bench.UserPosts, error) {
	batch := &pgx.Batch{}
	batch.Queue(bench.SelectUsersSQL)
	batch.Queue(selectPostsByIDSQL)

	results := c.pool.SendBatch(ctx, batch)
	defer results.Close()

	rows, err := results.Query()
	if err != nil {
		return nil, fmt.Errorf("all relations: users: %w", err)
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[user])
	if err != nil {
		return nil, fmt.Errorf("all relations: users: %w", err)
	}

	rows, err = results.Query()
	if err != nil {
		return nil, fmt.Errorf("all relations: posts: %w", err)
	}

	posts, err := pgx.CollectRows(rows, pgx.RowToStructByName[post])
	if err != nil {
		return nil, fmt.Errorf("all relations: posts: %w", err)
	}

	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("all relations: %w", err)
	}

	return bench.GroupPosts(toBenchUsers(users), toBenchPosts(posts)), nil
}

func (c *Client) Close() error {
	c.pool.Close()

	return nil
}
