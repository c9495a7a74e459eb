package pgxasync

import (
	"context"
	"testing"

	"github.com/weiihann/ormbench/bench/benchtest"
)

func TestContract(t *testing.T) {
	benchtest.RunAll(context.Background(), t, Adapter, benchtest.DSN(t))
}

func TestToBenchPosts(t *testing.T) {
	posts := toBenchPosts([]post{{ID: 1, Title: "t", Content: "c", Author: 42}})

	if len(posts) != 1 {
		t.Fatalf("len = %d, want 1", len(posts))
	}
	if posts[0].Author != 42 || posts[0].Title != "t" {
		t.Errorf("posts[0] = %+v", posts[0])
	}
}

func TestOpenRejectsMalformedDSN(t *testing.T) {
	if _, err := Open(context.Background(), "postgres://%zz"); err == nil {
		t.Error("expected error for malformed dsn")
	}
}
