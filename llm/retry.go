package llm

import (
	"context"
	"strings"
	"time"

	"github.com/wardenkit/warden/errors"
)

// RetryConfig holds retry settings for provider calls.
type RetryConfig struct {
	MaxRetries  int           `toml:"max_retries" json:"max_retries"`
	InitBackoff time.Duration `toml:"init_backoff" json:"init_backoff"`
	MaxBackoff  time.Duration `toml:"max_backoff" json:"max_backoff"`
}

const (
	defaultMaxRetries  = 5
	defaultInitBackoff = 1 * time.Second
	defaultMaxBackoff  = 60 * time.Second
	backoffFactor      = 2.0
)

// effective fills unset fields with defaults.
func (c RetryConfig) effective() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.InitBackoff <= 0 {
		c.InitBackoff = defaultInitBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	return c
}

// withRetry runs call with exponential backoff. Only transient errors are
// retried; the final error is classified before being returned.
func withRetry(ctx context.Context, provider string, cfg RetryConfig, call func() error) error {
	cfg = cfg.effective()
	backoff := cfg.InitBackoff

	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		if !isTransient(err) || attempt == cfg.MaxRetries {
			return classify(provider, err)
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), provider+" request aborted")
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * backoffFactor)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
}

// classify maps a provider error onto the shared error taxonomy.
func classify(provider string, err error) error {
	switch {
	case isRateLimited(err):
		return errors.Throttled(provider+" rate limited", errors.WithCause(err))
	case isServerError(err):
		return errors.New(errors.KindUnavailable, provider+" unavailable", errors.WithCause(err))
	default:
		return errors.Wrap(err, provider+" request failed")
	}
}

func isTransient(err error) bool {
	return isRateLimited(err) || isServerError(err)
}

func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests") ||
		strings.Contains(s, "429") ||
		strings.Contains(s, "overloaded")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "500") ||
		strings.Contains(s, "502") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "504") ||
		strings.Contains(s, "internal server error") ||
		strings.Contains(s, "bad gateway") ||
		strings.Contains(s, "service unavailable") ||
		strings.Contains(s, "temporarily unavailable")
}
