package harness

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/bench/benchtest"
)

var errBoom = errors.New("boom")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quickSamplers() map[Group]Sampler {
	return map[Group]Sampler{
		GroupNormal: {Samples: 2},
		GroupLarge:  {Samples: 1},
	}
}

func mustOps(t *testing.T, names ...string) []Operation {
	t.Helper()

	ops, err := LookupOperations(names)
	require.NoError(t, err)

	return ops
}

func TestRunAllOperationsOnFake(t *testing.T) {
	fake := benchtest.NewFake()
	r := NewRunner("fake://", []bench.Adapter{fake.Adapter("fake")}, quickSamplers(), quietLogger())

	run, err := r.Run(context.Background(), Operations())
	require.NoError(t, err)
	require.NoError(t, run.Err())

	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.False(t, run.Finished.Before(run.Started))
	require.Len(t, run.Results, len(Operations()))

	for _, res := range run.Results {
		assert.True(t, res.OK(), "%s: %s", res.Operation, res.Error)
		assert.Equal(t, "fake", res.Client)
		assert.Positive(t, res.Samples, res.Operation)
		assert.GreaterOrEqual(t, res.Iterations, res.Samples, res.Operation)
	}

	assert.Equal(t, OperationNames(), run.Operations())

	// Every operation tears its schema down and closes its session.
	assert.Equal(t, len(Operations()), fake.Count("Close"))
}

func TestRunFailFastPerAdapter(t *testing.T) {
	broken := benchtest.NewFake()
	broken.Fail["FetchAll"] = errBoom
	healthy := benchtest.NewFake()

	r := NewRunner("fake://", []bench.Adapter{
		broken.Adapter("broken"),
		healthy.Adapter("healthy"),
	}, quickSamplers(), quietLogger())

	run, err := r.Run(context.Background(), mustOps(t, "query_one", "query_all", "insert_one"))
	require.NoError(t, err)
	require.Len(t, run.Results, 6)

	byKey := map[string]Result{}
	for _, res := range run.Results {
		byKey[res.Client+"/"+res.Operation] = res
	}

	assert.True(t, byKey["broken/query_one"].OK())
	assert.Contains(t, byKey["broken/query_all"].Error, "boom")
	assert.False(t, byKey["broken/query_all"].Skipped)
	assert.True(t, byKey["broken/insert_one"].Skipped)
	assert.Contains(t, byKey["broken/insert_one"].Error, "query_all")

	for _, op := range []string{"query_one", "query_all", "insert_one"} {
		assert.True(t, byKey["healthy/"+op].OK(), op)
	}

	assert.ErrorIs(t, run.Err(), errBoom)
	assert.Zero(t, broken.Count("InsertUser"))
}

func TestRunSetupFailure(t *testing.T) {
	fake := benchtest.NewFake()
	fake.Fail["Exec"] = errBoom

	r := NewRunner("fake://", []bench.Adapter{fake.Adapter("fake")}, quickSamplers(), quietLogger())

	run, err := r.Run(context.Background(), mustOps(t, "query_one", "insert_one"))
	require.NoError(t, err)
	require.Len(t, run.Results, 2)

	assert.ErrorIs(t, run.Results[0].Err(), errBoom)
	assert.True(t, run.Results[1].Skipped)
	assert.Nil(t, run.Results[1].Err())
	assert.Zero(t, fake.Count("FetchFirst"))
	assert.Equal(t, 1, fake.Count("Close"))
}

// dropFails is a Fake whose tear-down statement for posts fails.
type dropFails struct {
	*benchtest.Fake
}

func (d dropFails) Exec(ctx context.Context, statement string) error {
	if statement == "DROP TABLE posts" {
		return errBoom
	}

	return d.Fake.Exec(ctx, statement)
}

func TestRunTearDownFailure(t *testing.T) {
	fake := benchtest.NewFake()
	a := bench.Adapter{
		Name: "x",
		Open: func(context.Context, string) (bench.Client, error) {
			return dropFails{fake}, nil
		},
	}

	r := NewRunner("fake://", []bench.Adapter{a}, quickSamplers(), quietLogger())

	run, err := r.Run(context.Background(), mustOps(t, "query_one", "insert_one"))
	require.NoError(t, err)
	require.Len(t, run.Results, 2)

	failed := run.Results[0]
	assert.Equal(t, "query_one", failed.Operation)
	assert.False(t, failed.Skipped)
	assert.ErrorIs(t, failed.Err(), errBoom)
	assert.Contains(t, failed.Error, "tear down")
	assert.Zero(t, failed.Samples)
	assert.Zero(t, failed.Mean)

	assert.True(t, run.Results[1].Skipped)
	assert.Contains(t, run.Results[1].Error, "query_one")
	assert.ErrorIs(t, run.Err(), errBoom)

	// The body ran and the session was still closed.
	assert.Positive(t, fake.Count("FetchFirst"))
	assert.Equal(t, 1, fake.Count("Close"))
}

func TestRunNilLogger(t *testing.T) {
	fake := benchtest.NewFake()
	r := NewRunner("fake://", []bench.Adapter{fake.Adapter("fake")}, quickSamplers(), nil)

	require.NotNil(t, r.Logger)

	run, err := r.Run(context.Background(), mustOps(t, "query_one"))
	require.NoError(t, err)
	assert.NoError(t, run.Err())
}

func TestRunOpenFailure(t *testing.T) {
	fake := benchtest.NewFake()
	fake.Fail["Open"] = errBoom

	r := NewRunner("fake://", []bench.Adapter{fake.Adapter("fake")}, quickSamplers(), quietLogger())

	run, err := r.Run(context.Background(), mustOps(t, "query_one"))
	require.NoError(t, err)

	assert.ErrorIs(t, run.Err(), errBoom)
	assert.Zero(t, fake.Count("Exec"))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := benchtest.NewFake()
	r := NewRunner("fake://", []bench.Adapter{fake.Adapter("fake")}, quickSamplers(), quietLogger())

	run, err := r.Run(ctx, Operations())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, run)
	assert.Empty(t, run.Results)
	assert.Zero(t, fake.Count("FetchFirst"))
}

func TestRunValidation(t *testing.T) {
	fake := benchtest.NewFake()
	adapters := []bench.Adapter{fake.Adapter("fake")}

	tests := []struct {
		name     string
		adapters []bench.Adapter
		samplers map[Group]Sampler
		ops      []Operation
	}{
		{"no adapters", nil, quickSamplers(), Operations()},
		{"no operations", adapters, quickSamplers(), nil},
		{"missing group", adapters, map[Group]Sampler{GroupNormal: {Samples: 1}}, Operations()},
		{"zero samples", adapters, map[Group]Sampler{GroupNormal: {}, GroupLarge: {Samples: 1}}, Operations()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner("fake://", tt.adapters, tt.samplers, quietLogger())

			_, err := r.Run(context.Background(), tt.ops)
			assert.Error(t, err)
		})
	}

	assert.Zero(t, fake.Count("Open"))
}

func TestNewRunnerDefaultSamplers(t *testing.T) {
	r := NewRunner("", nil, nil, quietLogger())

	assert.Equal(t, 25, r.Samplers[GroupNormal].Samples)
	assert.Equal(t, 10, r.Samplers[GroupLarge].Samples)
}

func TestRunByOperation(t *testing.T) {
	run := &Run{Results: []Result{
		{Operation: "a", Client: "x"},
		{Operation: "b", Client: "x"},
		{Operation: "a", Client: "y"},
	}}

	got := run.ByOperation("a")
	require.Len(t, got, 2)
	assert.Equal(t, "y", got[1].Client)
	assert.Equal(t, []string{"a", "b"}, run.Operations())
	assert.NoError(t, run.Err())
}
