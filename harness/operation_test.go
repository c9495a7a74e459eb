package harness

import (
	"testing"

	"github.com/weiihann/ormbench/bench"
)

func TestOperationTable(t *testing.T) {
	tests := []struct {
		name         string
		users        int
		postsPerUser int
		group        Group
	}{
		{"query_one", 1, 0, GroupNormal},
		{"query_all", bench.BulkUsers, 0, GroupLarge},
		{"insert_one", 0, 0, GroupNormal},
		{"batch_insert", 0, 0, GroupNormal},
		{"fetch_first", bench.BulkUsers, 0, GroupNormal},
		{"fetch_last", bench.BulkUsers, 0, GroupLarge},
		{"one_relation", bench.RelationUsers, bench.RelationPostsPerUser, GroupNormal},
		{"all_relations", bench.RelationUsers, bench.RelationPostsPerUser, GroupLarge},
	}

	ops := Operations()
	if len(ops) != len(tests) {
		t.Fatalf("len(Operations()) = %d, want %d", len(ops), len(tests))
	}

	for i, tt := range tests {
		op := ops[i]

		if op.Name != tt.name {
			t.Errorf("ops[%d].Name = %q, want %q", i, op.Name, tt.name)
		}
		if op.Users != tt.users || op.PostsPerUser != tt.postsPerUser {
			t.Errorf("%s seeds %d/%d, want %d/%d",
				op.Name, op.Users, op.PostsPerUser, tt.users, tt.postsPerUser)
		}
		if op.Group != tt.group {
			t.Errorf("%s group = %q, want %q", op.Name, op.Group, tt.group)
		}
		if op.Body == nil {
			t.Errorf("%s has no body", op.Name)
		}
	}
}

func TestLookupOperations(t *testing.T) {
	ops, err := LookupOperations([]string{"all_relations", " query_one"})
	if err != nil {
		t.Fatalf("LookupOperations: %v", err)
	}

	// Report order wins over argument order.
	if len(ops) != 2 || ops[0].Name != "query_one" || ops[1].Name != "all_relations" {
		t.Errorf("LookupOperations = %v", ops)
	}

	all, err := LookupOperations(nil)
	if err != nil || len(all) != len(Operations()) {
		t.Errorf("LookupOperations(nil) = %d ops, %v", len(all), err)
	}

	if _, err := LookupOperations([]string{"insert_many"}); err == nil {
		t.Error("expected error for unknown operation")
	}
}
