package retry

import (
	"context"
	"math/rand"
	"time"
)

type Operation = func() error

type Config struct {
	MaxRetries    int
	BackoffFactor float64
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Jitter        time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxRetries:    5,
		BackoffFactor: 2.0,
		InitialDelay:  250 * time.Millisecond,
		MaxDelay:      15 * time.Second,
		Jitter:        50 * time.Millisecond,
	}
}

// NewOnceConfig retries a single time after a short delay. Used for the
// remote feed and model calls, where one transient failure is worth
// absorbing but a second failure should be reported to the caller.
func NewOnceConfig() *Config {
	return &Config{
		MaxRetries:    1,
		BackoffFactor: 1.0,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
		Jitter:        100 * time.Millisecond,
	}
}

type Retrier struct {
	config *Config
}

func NewRetrier(config *Config) *Retrier {
	return &Retrier{config: config}
}

// Do runs op until it succeeds, the attempt budget is spent, or ctx is
// cancelled during a backoff wait. The last operation error is returned.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var err error
	delay := r.config.InitialDelay
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == r.config.MaxRetries {
			return err
		}

		wait := delay + time.Duration(rnd.Float64()*float64(r.config.Jitter))
		if wait > r.config.MaxDelay {
			wait = r.config.MaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * r.config.BackoffFactor)
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}
	return err
}
