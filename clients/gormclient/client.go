// Package gormclient binds the gorm ORM, with its postgres dialector, to
// the benchmark contract. Relations are loaded with Preload.
package gormclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/workload"
)

// Adapter registers the gorm client with the harness.
var Adapter = bench.Adapter{
	Name:    "gorm",
	Kind:    "full orm",
	Library: "gorm.io/gorm",
	Open:    Open,
}

// insertBatch bounds the rows of one generated INSERT.
const insertBatch = 1_000

type user struct {
	ID        int32 `gorm:"primaryKey"`
	Name      string
	HairColor *string
	CreatedAt time.Time `gorm:"<-:false"`
	Posts     []post    `gorm:"foreignKey:Author"`
}

func (user) TableName() string { return "users" }

func (u user) toBench() bench.User {
	return bench.User{ID: u.ID, Name: u.Name, HairColor: u.HairColor, CreatedAt: u.CreatedAt}
}

func (u user) benchPosts() []bench.Post {
	out := make([]bench.Post, len(u.Posts))
	for i, p := range u.Posts {
		out[i] = bench.Post(p)
	}

	return out
}

type post struct {
	ID      int32 `gorm:"primaryKey"`
	Title   string
	Content string
	Author  int32
}

func (post) TableName() string { return "posts" }

func newUser(u bench.NewUser) user {
	hairColor := u.HairColor

	return user{Name: u.Name, HairColor: &hairColor}
}

func postsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// Client is a bench.Client over a *gorm.DB holding one connection.
type Client struct {
	db *gorm.DB
}

// Open opens the dialector with logging silenced and statement caching on.
func Open(ctx context.Context, dsn string) (bench.Client, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Exec(ctx context.Context, statement string) error {
	if err := c.db.WithContext(ctx).Exec(statement).Error; err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return nil
}

func (c *Client) InsertUser(ctx context.Context) error {
	u := newUser(workload.First)
	if err := c.db.WithContext(ctx).Create(&u).Error; err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (c *Client) InsertUsers(ctx context.Context, n int) error {
	fixture := workload.Users(n)
	if len(fixture) == 0 {
		return nil
	}

	users := make([]user, len(fixture))
	for i, u := range fixture {
		users[i] = newUser(u)
	}

	if err := c.db.WithContext(ctx).CreateInBatches(&users, insertBatch).Error; err != nil {
		return fmt.Errorf("insert %d users: %w", n, err)
	}

	return nil
}

func (c *Client) FetchAll(ctx context.Context) ([]bench.User, error) {
	var users []user
	if err := c.db.WithContext(ctx).Find(&users).Error; err != nil {
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

	err := c.db.WithContext(ctx).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return bench.User{}, fmt.Errorf("fetch first: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch first: %w", err)
	}

	return u.toBench(), nil
}

func (c *Client) FetchLast(ctx context.Context) (bench.User, error) {
	var u user

	err := c.db.WithContext(ctx).Offset(bench.LastRowOffset).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return bench.User{}, fmt.Errorf("fetch last: %w: %w", bench.ErrOffsetOutOfRange, err)
	}
	if err != nil {
		return bench.User{}, fmt.Errorf("fetch last: %w", err)
	}

	return u.toBench(), nil
}

func (c *Client) OneRelation(ctx context.Context) (bench.User, []bench.Post, error) {
	var u user

	err := c.db.WithContext(ctx).Preload("Posts", postsByID).Take(&u, bench.RelationUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return bench.User{}, nil, fmt.Errorf("one relation: %w: %w", bench.ErrNoRows, err)
	}
	if err != nil {
		return bench.User{}, nil, fmt.Errorf("one relation: %w", err)
	}

	return u.toBench(), u.benchPosts(), nil
}

func (c *Client) AllRelations(ctx context.Context) ([]bench.UserPosts, error) {
	var users []user
	if err := c.db.WithContext(ctx).Preload("Posts", postsByID).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("all relations: %w", err)
	}

	out := make([]bench.UserPosts, len(users))
	for i, u := range users {
		out[i] = bench.UserPosts{User: u.toBench(), Posts: u.benchPosts()}
	}

	return out, nil
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return sqlDB.Close()
}
