// Package pgserver initializes and runs a private Postgres server for a
// benchmark run. The server only listens on a unix socket inside its data
// directory and trusts local connections.
package pgserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/lib/pq"
)

// Database is the database created for the benchmark tables.
const Database = "ormbench"

const superuser = "postgres"

// Server is a running private Postgres instance.
type Server struct {
	dataDir string
	pgctl   string
	logger  *slog.Logger
}

// DSN returns the key/value connection string for the benchmark database.
// Every client library in the repository accepts this form.
func (s *Server) DSN() string {
	return connString(s.dataDir, Database)
}

func connString(dataDir, database string) string {
	cs := fmt.Sprintf("user=%s host=%s sslmode=disable", superuser, dataDir)
	if database != "" {
		cs += " dbname=" + database
	}

	return cs
}

// resolvePgCtl finds the pg_ctl binary, looking it up on PATH when bin is
// empty.
func resolvePgCtl(bin string) (string, error) {
	if bin == "" {
		found, err := exec.LookPath("pg_ctl")
		if err != nil {
			return "", fmt.Errorf("find pg_ctl: %w", err)
		}
		bin = found
	}

	abs, err := filepath.Abs(bin)
	if err != nil {
		return "", fmt.Errorf("resolve pg_ctl: %w", err)
	}

	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("stat pg_ctl: %w", err)
	}

	return abs, nil
}

// Start initializes dataDir on first use, starts the server and creates
// the benchmark database if missing. pgctl may be empty to use pg_ctl from
// PATH.
func Start(ctx context.Context, logger *slog.Logger, dataDir, pgctl string) (*Server, error) {
	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	pgctl, err = resolvePgCtl(pgctl)
	if err != nil {
		return nil, err
	}

	s := &Server{
		dataDir: dataDir,
		pgctl:   pgctl,
		logger:  logger.With(slog.String("data_dir", dataDir)),
	}

	if _, err := os.Stat(dataDir); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat data dir: %w", err)
		}

		if err := s.init(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.start(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// init runs initdb in a temporary sibling directory and renames it into
// place once it succeeds.
func (s *Server) init(ctx context.Context) (status error) {
	if err := os.MkdirAll(filepath.Dir(s.dataDir), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	tmpDir, err := os.MkdirTemp(filepath.Dir(s.dataDir), ".pgdir")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if status != nil {
			_ = os.RemoveAll(tmpDir)
		}
	}()

	cmd := exec.CommandContext(ctx, s.pgctl, "initdb",
		"-D", tmpDir,
		"-o", "--auth-host=reject",
		"-o", "--auth-local=trust",
		"-o", "-U "+superuser,
		"-o", "-c listen_addresses=''",
		"-o", "-c unix_socket_directories="+s.dataDir,
		"-o", "-c logging_collector=on",
	)

	s.logger.InfoContext(ctx, "initializing postgres data directory",
		slog.Any("cmd", cmd.Args),
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("initdb: %w\noutput: %s", err, out)
	}

	if err := os.Rename(tmpDir, s.dataDir); err != nil {
		return fmt.Errorf("move data dir into place: %w", err)
	}

	return nil
}

func (s *Server) start(ctx context.Context) (status error) {
	action := "start"
	if _, err := os.Stat(filepath.Join(s.dataDir, "postmaster.pid")); err == nil {
		action = "restart"
	}

	cmd := exec.CommandContext(ctx, s.pgctl, action, "-D", s.dataDir, "--wait")

	s.logger.InfoContext(ctx, "starting postgres", slog.Any("cmd", cmd.Args))

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pg_ctl %s: %w\noutput: %s", action, err, out)
	}
	defer func() {
		if status != nil {
			_ = s.Stop()
		}
	}()

	return s.createDatabase(ctx)
}

// createDatabase connects without a target database and creates Database
// when it does not exist yet.
func (s *Server) createDatabase(ctx context.Context) error {
	connector, err := pq.NewConnector(connString(s.dataDir, ""))
	if err != nil {
		return fmt.Errorf("connector: %w", err)
	}

	db := sql.OpenDB(connector)
	defer db.Close()

	err = db.QueryRowContext(ctx, `SELECT FROM pg_database WHERE datname = $1`, Database).Scan()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.InfoContext(ctx, "creating database", slog.String("database", Database))

		if _, err := db.ExecContext(ctx, `CREATE DATABASE `+pq.QuoteIdentifier(Database)); err != nil {
			return fmt.Errorf("create database: %w", err)
		}
	case err != nil:
		return fmt.Errorf("look up database: %w", err)
	default:
		s.logger.DebugContext(ctx, "database exists", slog.String("database", Database))
	}

	return nil
}

// Stop shuts the server down and waits for it to exit.
func (s *Server) Stop() error {
	cmd := exec.Command(s.pgctl, "stop", "-D", s.dataDir, "--wait")

	s.logger.Info("stopping postgres", slog.Any("cmd", cmd.Args))

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pg_ctl stop: %w\noutput: %s", err, out)
	}

	return nil
}
