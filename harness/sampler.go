package harness

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sampler times a body repeatedly. Each sample repeats the body until
// MinSampleTime has elapsed, at least once, and records the mean time per
// iteration.
type Sampler struct {
	WarmUp        int
	Samples       int
	MinSampleTime time.Duration
}

// DefaultSamplers returns the sampler of each operation group.
func DefaultSamplers() map[Group]Sampler {
	return map[Group]Sampler{
		GroupNormal: {WarmUp: 3, Samples: 25, MinSampleTime: 50 * time.Millisecond},
		GroupLarge:  {WarmUp: 1, Samples: 10},
	}
}

// Measurement is the raw output of one Sampler run.
type Measurement struct {
	Samples    []time.Duration
	Iterations int
}

var errInvalidSampler = errors.New("invalid sampler")

// Validate reports whether s can take at least one sample.
func (s Sampler) Validate() error {
	switch {
	case s.Samples < 1:
		return fmt.Errorf("%w: samples = %d", errInvalidSampler, s.Samples)
	case s.WarmUp < 0:
		return fmt.Errorf("%w: warm-up = %d", errInvalidSampler, s.WarmUp)
	case s.MinSampleTime < 0:
		return fmt.Errorf("%w: min sample time = %s", errInvalidSampler, s.MinSampleTime)
	}

	return nil
}

// Measure runs the warm-up iterations, then Samples timed samples. The
// first body error aborts the run. ctx is checked between iterations.
func (s Sampler) Measure(ctx context.Context, body func(context.Context) error) (Measurement, error) {
	if err := s.Validate(); err != nil {
		return Measurement{}, err
	}

	for i := 0; i < s.WarmUp; i++ {
		if err := ctx.Err(); err != nil {
			return Measurement{}, err
		}

		if err := body(ctx); err != nil {
			return Measurement{}, fmt.Errorf("warm-up %d: %w", i, err)
		}
	}

	m := Measurement{Samples: make([]time.Duration, 0, s.Samples)}

	for i := 0; i < s.Samples; i++ {
		var (
			iters   int
			elapsed time.Duration
		)

		for iters == 0 || elapsed < s.MinSampleTime {
			if err := ctx.Err(); err != nil {
				return m, err
			}

			start := time.Now()
			err := body(ctx)
			elapsed += time.Since(start)

			if err != nil {
				return m, fmt.Errorf("sample %d: %w", i, err)
			}

			iters++
		}

		m.Samples = append(m.Samples, elapsed/time.Duration(iters))
		m.Iterations += iters
	}

	return m, nil
}
