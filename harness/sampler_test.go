package harness

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSamplerCounts(t *testing.T) {
	tests := []struct {
		name      string
		sampler   Sampler
		wantCalls int
	}{
		{"no warm-up", Sampler{Samples: 5}, 5},
		{"warm-up", Sampler{WarmUp: 3, Samples: 4}, 7},
		{"single sample", Sampler{Samples: 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0

			m, err := tt.sampler.Measure(context.Background(), func(context.Context) error {
				calls++
				return nil
			})
			if err != nil {
				t.Fatalf("Measure: %v", err)
			}

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if len(m.Samples) != tt.sampler.Samples {
				t.Errorf("samples = %d, want %d", len(m.Samples), tt.sampler.Samples)
			}
			if m.Iterations != tt.sampler.Samples {
				t.Errorf("iterations = %d, want %d", m.Iterations, tt.sampler.Samples)
			}
		})
	}
}

func TestSamplerMinSampleTime(t *testing.T) {
	s := Sampler{Samples: 2, MinSampleTime: 5 * time.Millisecond}

	m, err := s.Measure(context.Background(), func(context.Context) error {
		time.Sleep(time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}

	if m.Iterations < 4 {
		t.Errorf("iterations = %d, want several per sample", m.Iterations)
	}

	for i, d := range m.Samples {
		if d < time.Millisecond {
			t.Errorf("sample %d = %s, want at least the body time", i, d)
		}
	}
}

func TestSamplerAbortsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	_, err := Sampler{WarmUp: 1, Samples: 10}.Measure(context.Background(), func(context.Context) error {
		calls++
		if calls == 3 {
			return boom
		}

		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSamplerWarmUpError(t *testing.T) {
	boom := errors.New("boom")

	m, err := Sampler{WarmUp: 2, Samples: 2}.Measure(context.Background(), func(context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if len(m.Samples) != 0 {
		t.Errorf("samples = %d, want 0", len(m.Samples))
	}
}

func TestSamplerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Sampler{Samples: 100}.Measure(ctx, func(context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}

		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSamplerValidate(t *testing.T) {
	tests := []struct {
		sampler Sampler
		valid   bool
	}{
		{Sampler{Samples: 1}, true},
		{Sampler{}, false},
		{Sampler{Samples: 1, WarmUp: -1}, false},
		{Sampler{Samples: 1, MinSampleTime: -time.Second}, false},
	}

	for _, tt := range tests {
		err := tt.sampler.Validate()
		if (err == nil) != tt.valid {
			t.Errorf("Validate(%+v) = %v, want valid %v", tt.sampler, err, tt.valid)
		}
	}
}
