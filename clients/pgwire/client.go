// Package pgwire binds the low-level pgconn wire-protocol connection to the
// benchmark contract. Parameters and results travel in text format and are
// decoded by hand; there is no type registry or row mapping.
package pgwire

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/workload"
)

// Adapter registers the wire-protocol client with the harness.
var Adapter = bench.Adapter{
	Name:    "pgwire",
	Kind:    "raw protocol",
	Library: "github.com/jackc/pgx/v5/pgconn",
	Open:    Open,
}

// pipelineChunk bounds how many inserts are queued before a Sync.
const pipelineChunk = 1_000

// Client is a bench.Client over one *pgconn.PgConn.
type Client struct {
	conn *pgconn.PgConn
}

// connConfig parses dsn and pins the session DateStyle, since
// parseTimestamp only understands ISO output.
func connConfig(dsn string) (*pgconn.Config, error) {
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.RuntimeParams["DateStyle"] = dateStyle

	return cfg, nil
}

// Open connects to dsn.
func Open(ctx context.Context, dsn string) (bench.Client, error) {
	cfg, err := connConfig(dsn)
	if err != nil {
		return nil, err
	}

	conn, err := pgconn.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Exec(ctx context.Context, statement string) error {
	if _, err := c.conn.Exec(ctx, statement).ReadAll(); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}

func insertArgs(u bench.NewUser) [][]byte {
	return [][]byte{[]byte(u.Name), []byte(u.HairColor)}
}

func (c *Client) InsertUser(ctx context.Context) error {
	rr := c.conn.ExecParams(ctx, bench.InsertUserSQL, insertArgs(workload.First), nil, nil, nil)
	if _, err := rr.Close(); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// InsertUsers pipelines one parameterised INSERT per fixture row, syncing
// every pipelineChunk rows.
func (c *Client) InsertUsers(ctx context.Context, n int) error {
	users := workload.Users(n)

	for start := 0; start < len(users); start += pipelineChunk {
		end := min(start+pipelineChunk, len(users))
		if err := c.pipelineInsert(ctx, users[start:end]); err != nil {
			return fmt.Errorf("insert %d users: %w", n, err)
		}
	}

	return nil
}

func (c *Client) pipelineInsert(ctx context.Context, users []bench.NewUser) (status error) {
	p := c.conn.StartPipeline(ctx)
	defer func() {
		if err := p.Close(); err != nil && status == nil {
			status = err
		}
	}()

	for _, u := range users {
		p.SendQueryParams(bench.InsertUserSQL, insertArgs(u), nil, nil, nil)
	}

	if err := p.Sync(); err != nil {
		return err
	}

	for {
		res, err := p.GetResults()
		if err != nil {
			return err
		}

		switch r := res.(type) {
		case *pgconn.ResultReader:
			if _, err := r.Close(); err != nil {
				return err
			}
		case *pgconn.PipelineSync:
			return nil
		}
	}
}

// query runs sql with text arguments and hands each raw row to fn. The row
// is only valid for the duration of the call.
func (c *Client) query(ctx context.Context, sql string, args [][]byte, fn func(row [][]byte) error) error {
	rr := c.conn.ExecParams(ctx, sql, args, nil, nil, nil)

	for rr.NextRow() {
		if err := fn(rr.Values()); err != nil {
			_, _ = rr.Close()
			return err
		}
	}

	_, err := rr.Close()

	return err
}

func (c *Client) FetchAll(ctx context.Context) ([]bench.User, error) {
	var users []bench.User

	err := c.query(ctx, bench.SelectUsersSQL, nil, func(row [][]byte) error {
		u, err := decodeUser(row)
		if err != nil {
			return err
		}
		users = append(users, u)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch all: %w", err)
	}

	return users, nil
}

func (c *Client) FetchFirst(ctx context.Context) (bench.User, error) {
	var (
		first bench.User
		found bool
	)

	err := c.query(ctx, bench.SelectUsersSQL, nil, func(row [][]byte) error {
		if found {
			return nil
		}

		u, err := decodeUser(row)
		if err != nil {
			return err
		}
		first, found = u, true

		return nil
	})
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch first: %w", err)
	}

	if !found {
		return bench.User{}, fmt.Errorf("fetch first: %w", bench.ErrNoRows)
	}

	return first, nil
}

// FetchLast reads the full result set and decodes only the row at
// bench.LastRowOffset.
func (c *Client) FetchLast(ctx context.Context) (bench.User, error) {
	var (
		last  bench.User
		found bool
		i     int
	)

	err := c.query(ctx, bench.SelectUsersSQL, nil, func(row [][]byte) error {
		defer func() { i++ }()

		if i != bench.LastRowOffset {
			return nil
		}

		u, err := decodeUser(row)
		if err != nil {
			return err
		}
		last, found = u, true

		return nil
	})
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch last: %w", err)
	}

	if !found {
		return bench.User{}, fmt.Errorf("fetch last: %d rows: %w", i, bench.ErrOffsetOutOfRange)
	}

	return last, nil
}

func (c *Client) OneRelation(ctx context.Context) (bench.User, []bench.Post, error) {
	var (
		up    bench.UserPosts
		found bool
	)

	args := [][]byte{[]byte(strconv.Itoa(bench.RelationUserID))}

	err := c.query(ctx, bench.SelectUserWithPostsSQL, args, func(row [][]byte) error {
		var err error
		up, err = decodeUserWithPosts(row)
		found = err == nil

		return err
	})
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: %w", err)
	}

	if !found {
		return bench.User{}, nil, fmt.Errorf("one relation: %w", bench.ErrNoRows)
	}

	return up.User, up.Posts, nil
}

func (c *Client) AllRelations(ctx context.Context) ([]bench.UserPosts, error) {
	var out []bench.UserPosts

	err := c.query(ctx, bench.SelectUsersWithPostsSQL, nil, func(row [][]byte) error {
		up, err := decodeUserWithPosts(row)
		if err != nil {
			return err
		}
		out = append(out, up)

		return nil
	})
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
