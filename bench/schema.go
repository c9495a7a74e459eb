package bench

import (
	"context"
	"fmt"
)

// DropSchema removes both benchmark tables if present.
var DropSchema = []string{
	`DROP TABLE IF EXISTS posts`,
	`DROP TABLE IF EXISTS users`,
}

// CreateSchema creates the users and posts tables.
var CreateSchema = []string{
	`CREATE TABLE users (
	id SERIAL PRIMARY KEY,
	name VARCHAR NOT NULL,
	hair_color VARCHAR,
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE posts (
	id SERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	author INTEGER REFERENCES users(id) ON DELETE CASCADE ON UPDATE RESTRICT
)`,
}

// TearDownSchema drops both tables, posts first.
var TearDownSchema = []string{
	`DROP TABLE posts`,
	`DROP TABLE users`,
}

// SeedPostsSQL returns a statement inserting perUser posts for every
// existing user, titled "Post number {p} for user {uid}" with content
// "abc" cycled to PostContentLength characters.
func SeedPostsSQL(perUser int) string {
	return fmt.Sprintf(`INSERT INTO posts (title, content, author)
SELECT 'Post number ' || p || ' for user ' || u.id,
	left(repeat('abc', %d), %d),
	u.id
FROM users u CROSS JOIN generate_series(0, %d) AS p
ORDER BY u.id, p`, PostContentLength/3+1, PostContentLength, perUser-1)
}

// Setup recreates the schema and seeds users and, when postsPerUser is
// positive, posts for every user.
func Setup(ctx context.Context, c Client, users, postsPerUser int) error {
	if users < 0 || postsPerUser < 0 {
		return fmt.Errorf("setup: negative counts (users=%d posts=%d)", users, postsPerUser)
	}

	for _, stmt := range DropSchema {
		if err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
	}

	for _, stmt := range CreateSchema {
		if err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if users > 0 {
		if err := c.InsertUsers(ctx, users); err != nil {
			return fmt.Errorf("seed %d users: %w", users, err)
		}
	}

	if users > 0 && postsPerUser > 0 {
		if err := c.Exec(ctx, SeedPostsSQL(postsPerUser)); err != nil {
			return fmt.Errorf("seed %d posts per user: %w", postsPerUser, err)
		}
	}

	return nil
}

// TearDown drops the schema created by Setup.
func TearDown(ctx context.Context, c Client) error {
	for _, stmt := range TearDownSchema {
		if err := c.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("tear down: %w", err)
		}
	}

	return nil
}
