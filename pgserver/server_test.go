package pgserver

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weiihann/ormbench/bench"
	"github.com/weiihann/ormbench/clients/pqclient"
)

func TestConnString(t *testing.T) {
	tests := []struct {
		dir, db string
		want    string
	}{
		{"/tmp/pg", "", "user=postgres host=/tmp/pg sslmode=disable"},
		{"/tmp/pg", "ormbench", "user=postgres host=/tmp/pg sslmode=disable dbname=ormbench"},
	}

	for _, tt := range tests {
		if got := connString(tt.dir, tt.db); got != tt.want {
			t.Errorf("connString(%q, %q) = %q, want %q", tt.dir, tt.db, got, tt.want)
		}
	}
}

func TestResolvePgCtlMissing(t *testing.T) {
	if _, err := resolvePgCtl(filepath.Join(t.TempDir(), "pg_ctl")); err == nil {
		t.Error("expected error for missing pg_ctl")
	}
}

func TestStartStop(t *testing.T) {
	if _, err := exec.LookPath("pg_ctl"); err != nil {
		t.Skip("pg_ctl not on PATH")
	}
	if os.Geteuid() == 0 {
		t.Skip("initdb refuses to run as root")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := filepath.Join(t.TempDir(), "data")

	s, err := Start(ctx, logger, dir, "")
	require.NoError(t, err)

	c, err := pqclient.Open(ctx, s.DSN())
	require.NoError(t, err)
	require.NoError(t, bench.Setup(ctx, c, 3, 0))

	users, err := c.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	require.NoError(t, bench.TearDown(ctx, c))
	require.NoError(t, c.Close())
	require.NoError(t, s.Stop())

	// A second start reuses the initialized directory.
	s, err = Start(ctx, logger, dir, "")
	require.NoError(t, err)
	require.NoError(t, s.Stop())
}
