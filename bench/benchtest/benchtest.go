// Package benchtest is the shared battery every bench.Client adapter runs
// against a live Postgres database.
package benchtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/workload"
)

// DSN returns the test database connection string, skipping tb when none
// is configured.
func DSN(tb testing.TB) string {
	tb.Helper()

	for _, key := range []string{"ORMBENCH_DATABASE_URL", "DATABASE_URL"} {
		if dsn := os.Getenv(key); dsn != "" {
			return dsn
		}
	}

	tb.Skip("ORMBENCH_DATABASE_URL not set")

	return ""
}

// Open starts a session for a and seeds it; the schema is torn down and
// the client closed when tb finishes.
func Open(ctx context.Context, tb testing.TB, a bench.Adapter, dsn string, users, postsPerUser int) bench.Client {
	tb.Helper()

	s, err := bench.Open(ctx, a, dsn)
	require.NoError(tb, err)
	tb.Cleanup(func() {
		if err := s.Close(); err != nil {
			tb.Errorf("close: %v", err)
		}
	})

	require.NoError(tb, s.Setup(ctx, users, postsPerUser))
	tb.Cleanup(func() {
		if err := s.TearDown(ctx); err != nil {
			tb.Errorf("tear down: %v", err)
		}
	})

	c, err := s.Client()
	require.NoError(tb, err)

	return c
}

// RunAll runs every contract test as a subtest of t.
func RunAll(ctx context.Context, t *testing.T, a bench.Adapter, dsn string) {
	tests := []struct {
		name string
		fn   func(context.Context, *testing.T, bench.Adapter, string)
	}{
		{"InsertUsersFetchAllCount", TestInsertUsersFetchAllCount},
		{"SetupEmptyInsertOne", TestSetupEmptyInsertOne},
		{"InsertUserTwice", TestInsertUserTwice},
		{"FetchFirstInFetchAll", TestFetchFirstInFetchAll},
		{"FetchFirstEmpty", TestFetchFirstEmpty},
		{"FetchLastOffset", TestFetchLastOffset},
		{"FetchLastTooFewRows", TestFetchLastTooFewRows},
		{"OneRelation", TestOneRelation},
		{"AllRelations", TestAllRelations},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(ctx, t, a, dsn)
		})
	}
}

// TestInsertUsersFetchAllCount checks that InsertUsers(n) then FetchAll
// returns exactly n rows.
func TestInsertUsersFetchAllCount(ctx context.Context, t *testing.T, a bench.Adapter, dsn string) {
	for _, n := range []int{0, 1, 17, bench.BatchSize} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			c := Open(ctx, t, a, dsn, 0, 0)

			require.NoError(t, c.InsertUsers(ctx, n))

			users, err := c.FetchAll(ctx)
			require.NoError(t, err)
			require.Len(t, users, n)

			seen := make(map[int32]bool, n)
			for _, u := range users {
				require.False(t, seen[u.ID], "duplicate id %d", u.ID)
				seen[u.ID] = true
			}
		})
	}
}

// TestSetupEmptyInsertOne checks the boundary scenario setup(0),
// insertUsers(1), fetchAll.
func TestSetupEmptyInsertOne(ctx context.Context, t *testing.T, a bench.Adapter, dsn string) {
	c := Open(ctx, t, a, dsn, 0, 0)

	require.NoError(t, c.InsertUsers(ctx, 1))

	users, err := c.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "User 0", users[0].Name)
	require.NotNil(t, users[0].HairColor)
	require.Equal(t, "hair color 0", *users[0].HairColor)
	require.NotZero(t, users[0].ID)
	require.False(t, users[0].CreatedAt.IsZero(), "created_at not assigned")
}

func TestInsertUserTwice(ctx context.Context, t *testing.T, a bench.Adapter, dsn string) {
	c := Open(ctx, t, a, dsn, 0, 0)

	require.NoError(t, c.InsertUser(ctx))
	require.NoError(t, c.InsertUser(ctx))

	users, err := c.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	for _, u := range users {
		require.Equal(t, "User 0", u.Name)
	}
}

func TestFetchFirstInFetchAll(ctx context.Context, t *testing.T, a bench.Adapter, dsn string) {
	c := Open(ctx, t, a, dsn, 5, 0)

	first, err := c.FetchFirst(ctx)
	require.NoError(t, err)

	users, err := c.FetchAll(ctx)
	require.NoError(t, err)
	require.Contains(t, ids(users), first.ID)
}

func TestFetchFirstEmpty(ctx context.Context, t *testing.T, a bench.Adapter, dsn string) {
	c := Open(ctx, t, a, dsn, 0, 0)

	_, err := c.FetchFirst(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, bench.ErrNoRows), "got %v", err)
}

// TestFetchLastOffset checks that with exactly BulkUsers rows FetchLast
// returns the row at LastRowOffset of the natural enumeration.
func TestFetchLastOffset(ctx context.Context, t *testing.T, a bench.Adapter, dsn string) {
	c := Open(ctx, t, a, dsn, bench.BulkUsers, 0)

	last, err := c.FetchLast(ctx)
	require.NoError(t, err)

	users, err := c.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, bench.BulkUsers)
	require.Equal(t, users[bench.LastRowOffset].ID, last.ID)
	require.Equal(t, users[bench.LastRowOffset].Name, last.Name)
}

func TestFetchLastTooFewRows(ctx context.Context, t *testing.T, a bench.Adapter, dsn string) {
	c := Open(ctx, t, a, dsn, 10, 0)

	_, err := c.FetchLast(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, bench.ErrOffsetOutOfRange), "got %v", err)
}

func TestOneRelation(ctx context.Context, t *testing.T, a bench.Adapter, dsn string) {
	c := Open(ctx, t, a, dsn, bench.RelationUsers, bench.RelationPostsPerUser)

	user, posts, err := c.OneRelation(ctx)
	require.NoError(t, err)
	require.EqualValues(t, bench.RelationUserID, user.ID)
	require.Len(t, posts, bench.RelationPostsPerUser)

	for i, p := range posts {
		require.EqualValues(t, bench.RelationUserID, p.Author)
		require.Equal(t, workload.PostTitle(i, bench.RelationUserID), p.Title)
		require.Equal(t, workload.PostContent(), p.Content)
	}

	requireAscending(t, posts)
}

func TestAllRelations(ctx context.Context, t *testing.T, a bench.Adapter, dsn string) {
	c := Open(ctx, t, a, dsn, bench.RelationUsers, bench.RelationPostsPerUser)

	all, err := c.AllRelations(ctx)
	require.NoError(t, err)
	require.Len(t, all, bench.RelationUsers)

	seen := make(map[int32]int32, bench.RelationUsers*bench.RelationPostsPerUser)
	for _, up := range all {
		require.Len(t, up.Posts, bench.RelationPostsPerUser, "user %d", up.User.ID)
		requireAscending(t, up.Posts)

		for _, p := range up.Posts {
			require.Equal(t, up.User.ID, p.Author)

			owner, dup := seen[p.ID]
			require.False(t, dup, "post %d listed under users %d and %d", p.ID, owner, up.User.ID)
			seen[p.ID] = up.User.ID
		}
	}

	require.Len(t, seen, bench.RelationUsers*bench.RelationPostsPerUser)
}

// requireAscending checks posts are ordered by strictly increasing id.
func requireAscending(t *testing.T, posts []bench.Post) {
	t.Helper()

	for i := 1; i < len(posts); i++ {
		require.Greater(t, posts[i].ID, posts[i-1].ID, "post %d out of order", i)
	}
}

func ids(users []bench.User) []int32 {
	out := make([]int32, len(users))
	for i, u := range users {
		out[i] = u.ID
	}

	return out
}
