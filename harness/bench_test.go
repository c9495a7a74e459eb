package harness_test

import (
	"context"
	"testing"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/bench/benchtest"
	"github.com/weiihann/ormbench/clients"
	"github.com/weiihann/ormbench/harness"
)

// BenchmarkOperations exposes every operation and adapter pair to
// go test -bench, e.g. -bench 'Operations/fetch_last/pgx$'.
func BenchmarkOperations(b *testing.B) {
	ctx := context.Background()
	dsn := benchtest.DSN(b)

	for _, op := range harness.Operations() {
		b.Run(op.Name, func(b *testing.B) {
			for _, a := range clients.Known() {
				b.Run(a.Name, func(b *testing.B) {
					benchmarkOne(ctx, b, op, a, dsn)
				})
			}
		})
	}
}

func benchmarkOne(ctx context.Context, b *testing.B, op harness.Operation, a bench.Adapter, dsn string) {
	c := benchtest.Open(ctx, b, a, dsn, op.Users, op.PostsPerUser)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := op.Body(ctx, c); err != nil {
			b.Fatalf("%s/%s: %s", op.Name, a.Name, err)
		}
	}
}
