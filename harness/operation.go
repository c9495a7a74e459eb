package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/weiihann/ormbench/bench"
)

// Group selects the sampler an operation is measured with.
type Group string

const (
	// GroupNormal holds the cheap operations.
	GroupNormal Group = "normal"

	// GroupLarge holds operations that touch the whole table and get
	// fewer samples.
	GroupLarge Group = "large"
)

// Operation is one benchmarked unit of work. Users and PostsPerUser are
// seeded by Setup before timing starts; Body is the timed part.
type Operation struct {
	Name         string
	Users        int
	PostsPerUser int
	Group        Group
	Body         func(ctx context.Context, c bench.Client) error
}

// Operations returns every benchmark operation in report order.
func Operations() []Operation {
	return []Operation{
		{
			Name:  "query_one",
			Users: 1,
			Group: GroupNormal,
			Body: func(ctx context.Context, c bench.Client) error {
				_, err := c.FetchFirst(ctx)
				return err
			},
		},
		{
			Name:  "query_all",
			Users: bench.BulkUsers,
			Group: GroupLarge,
			Body: func(ctx context.Context, c bench.Client) error {
				_, err := c.FetchAll(ctx)
				return err
			},
		},
		{
			Name:  "insert_one",
			Group: GroupNormal,
			Body: func(ctx context.Context, c bench.Client) error {
				return c.InsertUser(ctx)
			},
		},
		{
			Name:  "batch_insert",
			Group: GroupNormal,
			Body: func(ctx context.Context, c bench.Client) error {
				return c.InsertUsers(ctx, bench.BatchSize)
			},
		},
		{
			Name:  "fetch_first",
			Users: bench.BulkUsers,
			Group: GroupNormal,
			Body: func(ctx context.Context, c bench.Client) error {
				_, err := c.FetchFirst(ctx)
				return err
			},
		},
		{
			Name:  "fetch_last",
			Users: bench.BulkUsers,
			Group: GroupLarge,
			Body: func(ctx context.Context, c bench.Client) error {
				_, err := c.FetchLast(ctx)
				return err
			},
		},
		{
			Name:         "one_relation",
			Users:        bench.RelationUsers,
			PostsPerUser: bench.RelationPostsPerUser,
			Group:        GroupNormal,
			Body: func(ctx context.Context, c bench.Client) error {
				_, _, err := c.OneRelation(ctx)
				return err
			},
		},
		{
			Name:         "all_relations",
			Users:        bench.RelationUsers,
			PostsPerUser: bench.RelationPostsPerUser,
			Group:        GroupLarge,
			Body: func(ctx context.Context, c bench.Client) error {
				_, err := c.AllRelations(ctx)
				return err
			},
		},
	}
}

// OperationNames returns the names of Operations.
func OperationNames() []string {
	ops := Operations()
	names := make([]string, len(ops))

	for i, op := range ops {
		names[i] = op.Name
	}

	return names
}

// LookupOperations resolves operation names, keeping report order. An
// empty list selects every operation.
func LookupOperations(names []string) ([]Operation, error) {
	all := Operations()
	if len(names) == 0 {
		return all, nil
	}

	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[strings.TrimSpace(name)] = true
	}

	var out []Operation
	for _, op := range all {
		if want[op.Name] {
			out = append(out, op)
			delete(want, op.Name)
		}
	}

	for name := range want {
		return nil, fmt.Errorf(
			"unknown operation %q (known: %s)",
			name, strings.Join(OperationNames(), ", "),
		)
	}

	return out, nil
}
