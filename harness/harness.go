package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/weiihann/ormbench/bench"
)

// Runner drives every operation against every adapter. A failure stops
// the failing adapter's series; the other adapters continue.
type Runner struct {
	DSN      string
	Adapters []bench.Adapter
	Samplers map[Group]Sampler
	Logger   *slog.Logger
}

// NewRunner creates a Runner. A nil samplers map selects DefaultSamplers
// and a nil logger discards log output.
func NewRunner(
	dsn string,
	adapters []bench.Adapter,
	samplers map[Group]Sampler,
	logger *slog.Logger,
) *Runner {
	if samplers == nil {
		samplers = DefaultSamplers()
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Runner{
		DSN:      dsn,
		Adapters: adapters,
		Samplers: samplers,
		Logger:   logger,
	}
}

func (r *Runner) validate(ops []Operation) error {
	if len(r.Adapters) == 0 {
		return errors.New("no client adapters selected")
	}

	if len(ops) == 0 {
		return errors.New("no operations selected")
	}

	for _, op := range ops {
		s, ok := r.Samplers[op.Group]
		if !ok {
			return fmt.Errorf("operation %s: no sampler for group %q", op.Name, op.Group)
		}

		if err := s.Validate(); err != nil {
			return fmt.Errorf("operation %s: %w", op.Name, err)
		}
	}

	return nil
}

// Run measures ops in order, each against every adapter. The returned Run
// holds per-adapter failures; the error is non-nil only for an invalid
// configuration or a cancelled ctx, in which case the partial Run is still
// returned.
func (r *Runner) Run(ctx context.Context, ops []Operation) (*Run, error) {
	if err := r.validate(ops); err != nil {
		return nil, err
	}

	run := &Run{ID: uuid.New(), Started: time.Now()}
	failed := make(map[string]string)

	logger := r.Logger.With(slog.String("run", run.ID.String()))

	for _, op := range ops {
		for _, a := range r.Adapters {
			res := Result{Operation: op.Name, Client: a.Name, Group: op.Group}

			if cause, ok := failed[a.Name]; ok {
				res.Skipped = true
				res.Error = "skipped: " + cause
				run.Results = append(run.Results, res)

				continue
			}

			summary, err := r.runOne(ctx, logger, op, a)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					run.Finished = time.Now()
					return run, ctxErr
				}

				res.err = fmt.Errorf("%s/%s: %w", a.Name, op.Name, err)
				res.Error = err.Error()
				failed[a.Name] = op.Name + " failed"

				logger.ErrorContext(ctx, "operation failed",
					slog.String("client", a.Name),
					slog.String("operation", op.Name),
					slog.String("error", err.Error()),
				)
			} else {
				res.Summary = summary
			}

			run.Results = append(run.Results, res)
		}
	}

	run.Finished = time.Now()

	return run, nil
}

// runOne opens a fresh session, seeds it, measures op and tears the
// schema down again. Only the sampler's body is timed.
func (r *Runner) runOne(
	ctx context.Context,
	logger *slog.Logger,
	op Operation,
	a bench.Adapter,
) (_ Summary, status error) {
	logger = logger.With(
		slog.String("client", a.Name),
		slog.String("operation", op.Name),
	)

	s, err := bench.Open(ctx, a, r.DSN)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if err := s.Close(); err != nil {
			status = errors.Join(status, fmt.Errorf("close: %w", err))
		}
	}()

	logger.DebugContext(ctx, "seeding",
		slog.Int("users", op.Users),
		slog.Int("posts_per_user", op.PostsPerUser),
	)

	if err := s.Setup(ctx, op.Users, op.PostsPerUser); err != nil {
		return Summary{}, err
	}

	c, err := s.Client()
	if err != nil {
		return Summary{}, err
	}

	sampler := r.Samplers[op.Group]

	m, measureErr := sampler.Measure(ctx, func(ctx context.Context) error {
		return op.Body(ctx, c)
	})

	if err := s.TearDown(ctx); err != nil {
		measureErr = errors.Join(measureErr, err)
	}

	if measureErr != nil {
		return Summary{}, measureErr
	}

	summary, err := Summarize(m)
	if err != nil {
		return Summary{}, err
	}

	logger.InfoContext(ctx, "operation measured",
		slog.Duration("mean", summary.Mean),
		slog.Duration("stddev", summary.StdDev),
		slog.Int("samples", summary.Samples),
		slog.Int("iterations", summary.Iterations),
	)

	return summary, nil
}
