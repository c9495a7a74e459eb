package bench

import (
	"context"
	"fmt"
)

// State is a Session lifecycle state.
type State int

const (
	Uninitialized State = iota
	Connected
	SchemaReady
	TornDown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Connected:
		return "connected"
	case SchemaReady:
		return "schema-ready"
	case TornDown:
		return "torn-down"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session drives one Client through
// Uninitialized -> Connected -> SchemaReady -> TornDown.
type Session struct {
	adapter Adapter
	client  Client
	state   State
}

// Open creates the adapter's client and returns a Connected session.
func Open(ctx context.Context, a Adapter, dsn string) (*Session, error) {
	if a.Open == nil {
		return nil, fmt.Errorf("open %s: adapter has no factory", a.Name)
	}

	c, err := a.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.Name, err)
	}

	return &Session{adapter: a, client: c, state: Connected}, nil
}

// Name returns the adapter name.
func (s *Session) Name() string { return s.adapter.Name }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Setup creates the schema and seeds it. Only valid when Connected.
func (s *Session) Setup(ctx context.Context, users, postsPerUser int) error {
	if s.state != Connected {
		return fmt.Errorf("setup %s in state %s: %w", s.adapter.Name, s.state, ErrInvalidState)
	}

	if err := Setup(ctx, s.client, users, postsPerUser); err != nil {
		return fmt.Errorf("setup %s: %w", s.adapter.Name, err)
	}

	s.state = SchemaReady

	return nil
}

// Client returns the client for running operations. Only valid when the
// schema is ready.
func (s *Session) Client() (Client, error) {
	if s.state != SchemaReady {
		return nil, fmt.Errorf("client %s in state %s: %w", s.adapter.Name, s.state, ErrInvalidState)
	}

	return s.client, nil
}

// TearDown drops the schema. Only valid when the schema is ready; the
// session ends up TornDown even if dropping fails.
func (s *Session) TearDown(ctx context.Context) error {
	if s.state != SchemaReady {
		return fmt.Errorf("tear down %s in state %s: %w", s.adapter.Name, s.state, ErrInvalidState)
	}

	s.state = TornDown

	if err := TearDown(ctx, s.client); err != nil {
		return fmt.Errorf("tear down %s: %w", s.adapter.Name, err)
	}

	return nil
}

// Close releases the client. It is safe to call more than once.
func (s *Session) Close() error {
	if s.client == nil {
		return nil
	}

	c := s.client
	s.client = nil
	s.state = TornDown

	if err := c.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.adapter.Name, err)
	}

	return nil
}
