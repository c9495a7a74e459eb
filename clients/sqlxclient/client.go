// Package sqlxclient binds jmoiron/sqlx, running over the lib/pq driver,
// to the benchmark contract. Rows map onto tagged structs; relations come
// back as one json_agg column per user.
package sqlxclient

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	_ "github.com/lib/pq"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/workload"
)

// Adapter registers the sqlx client with the harness.
var Adapter = bench.Adapter{
	Name:    "sqlx",
	Kind:    "lightweight mapper",
	Library: "github.com/jmoiron/sqlx",
	Open:    Open,
}

const driverName = "postgres"

const (
	insertUserNamedSQL = `INSERT INTO users (name, hair_color) VALUES (:name, :hair_color)`

	relationColumns = `SELECT u.id, u.name, u.hair_color, u.created_at,
	COALESCE(json_agg(json_build_object(
		'id', p.id, 'title', p.title, 'content', p.content, 'author', p.author
	) ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '[]') AS posts
FROM users u
LEFT JOIN posts p ON p.author = u.id`

	relationGroupBy = `GROUP BY u.id, u.name, u.hair_color, u.created_at`

	selectUserWithPostsSQL  = relationColumns + "\nWHERE u.id = $1\n" + relationGroupBy
	selectUsersWithPostsSQL = relationColumns + "\n" + relationGroupBy
)

type newUser struct {
	Name      string `db:"name"`
	HairColor string `db:"hair_color"`
}

type user struct {
	ID        int32     `db:"id"`
	Name      string    `db:"name"`
	HairColor *string   `db:"hair_color"`
	CreatedAt time.Time `db:"created_at"`
}

func (u user) toBench() bench.User {
	return bench.User(u)
}

type userWithPosts struct {
	user
	Posts types.JSONText `db:"posts"`
}

func (r userWithPosts) decode() (bench.UserPosts, error) {
	posts := []bench.Post{}
	if err := json.Unmarshal(r.Posts, &posts); err != nil {
		return bench.UserPosts{}, fmt.Errorf("decode posts of user %d: %w", r.ID, err)
	}

	return bench.UserPosts{User: r.toBench(), Posts: posts}, nil
}

// Client is a bench.Client over a single-connection *sqlx.DB.
type Client struct {
	db *sqlx.DB
}

// Open connects through the lib/pq driver.
func Open(ctx context.Context, dsn string) (bench.Client, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db.SetMaxOpenConns(1)

	return &Client{db: db}, nil
}

func (c *Client) Exec(ctx context.Context, statement string) error {
	if _, err := c.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}

func (c *Client) InsertUser(ctx context.Context) error {
	_, err := c.db.NamedExecContext(ctx, insertUserNamedSQL, newUser(workload.First))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// InsertUsers expands the fixture slice into one multi-row VALUES list.
func (c *Client) InsertUsers(ctx context.Context, n int) error {
	fixture := workload.Users(n)
	if len(fixture) == 0 {
		return nil
	}

	rows := make([]newUser, len(fixture))
	for i, u := range fixture {
		rows[i] = newUser(u)
	}

	if _, err := c.db.NamedExecContext(ctx, insertUserNamedSQL, rows); err != nil {
		return fmt.Errorf("insert %d users: %w", n, err)
	}

	return nil
}

func (c *Client) selectUsers(ctx context.Context) ([]user, error) {
	var users []user
	if err := c.db.SelectContext(ctx, &users, bench.SelectUsersSQL); err != nil {
		return nil, err
	}

	return users, nil
}

func (c *Client) FetchAll(ctx context.Context) ([]bench.User, error) {
	users, err := c.selectUsers(ctx)
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
	var u user

	err := c.db.GetContext(ctx, &u, bench.SelectUsersSQL)
	if errors.Is(err, sql.ErrNoRows) {
		return bench.User{}, fmt.Errorf("fetch first: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch first: %w", err)
	}

	return u.toBench(), nil
}

// FetchLast maps the whole table and indexes it.
func (c *Client) FetchLast(ctx context.Context) (bench.User, error) {
	users, err := c.selectUsers(ctx)
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch last: %w", err)
	}

	if len(users) <= bench.LastRowOffset {
		return bench.User{}, fmt.Errorf("fetch last: %d rows: %w", len(users), bench.ErrOffsetOutOfRange)
	}

	return users[bench.LastRowOffset].toBench(), nil
}

func (c *Client) OneRelation(ctx context.Context) (bench.User, []bench.Post, error) {
	var row userWithPosts

	err := c.db.GetContext(ctx, &row, selectUserWithPostsSQL, bench.RelationUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return bench.User{}, nil, fmt.Errorf("one relation: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: %w", err)
	}

	up, err := row.decode()
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: %w", err)
	}

	return up.User, up.Posts, nil
}

func (c *Client) AllRelations(ctx context.Context) ([]bench.UserPosts, error) {
	var rows []userWithPosts
	if err := c.db.SelectContext(ctx, &rows, selectUsersWithPostsSQL); err != nil {
		return nil, fmt.Errorf("all relations: %w", err)
	}

	out := make([]bench.UserPosts, len(rows))
	for i, r := range rows {
		up, err := r.decode()
		if err != nil {
			return nil, fmt.Errorf("all relations: %w", err)
		}
		out[i] = up
	}

	return out, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}
