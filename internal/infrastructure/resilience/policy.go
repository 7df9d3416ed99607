package resilience

import "time"

// CallKind selects the retry policy of a call. Every kind shares the
// per-operation circuit breaker.
type CallKind string

const (
	// CallFetch is an idempotent read: preview PDFs and artifact downloads.
	CallFetch CallKind = "fetch"
	// CallSubmit creates something on the backend (upload, processing) and
	// is never repeated.
	CallSubmit CallKind = "submit"
	// CallPublish announces an output-ready event. A duplicate only costs
	// the worker a cache hit.
	CallPublish CallKind = "publish"
)

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

type Config struct {
	Fetch   RetryPolicy
	Publish RetryPolicy
	Breaker BreakerPolicy
}

func DefaultConfig() Config {
	return Config{
		Fetch: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     400 * time.Millisecond,
			Multiplier:     2.0,
		},
		Publish: RetryPolicy{
			MaxAttempts:    2,
			InitialBackoff: 50 * time.Millisecond,
			MaxBackoff:     50 * time.Millisecond,
			Multiplier:     1.0,
		},
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      10,
			FailureRatio:     0.5,
			OpenTimeout:      30 * time.Second,
			HalfOpenMaxCalls: 2,
		},
	}
}

// Retry returns the policy for kind. Submissions always get one attempt.
func (c Config) Retry(kind CallKind) RetryPolicy {
	switch kind {
	case CallSubmit:
		return RetryPolicy{MaxAttempts: 1, Multiplier: 1}
	case CallPublish:
		return c.Publish
	default:
		return c.Fetch
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	out := c
	out.Fetch = out.Fetch.normalize(def.Fetch)
	out.Publish = out.Publish.normalize(def.Publish)

	if out.Breaker.MinRequests == 0 {
		out.Breaker.MinRequests = def.Breaker.MinRequests
	}
	if out.Breaker.FailureRatio <= 0 || out.Breaker.FailureRatio > 1 {
		out.Breaker.FailureRatio = def.Breaker.FailureRatio
	}
	if out.Breaker.OpenTimeout <= 0 {
		out.Breaker.OpenTimeout = def.Breaker.OpenTimeout
	}
	if out.Breaker.HalfOpenMaxCalls == 0 {
		out.Breaker.HalfOpenMaxCalls = def.Breaker.HalfOpenMaxCalls
	}
	return out
}

func (p RetryPolicy) normalize(def RetryPolicy) RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = def.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = def.MaxBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = def.Multiplier
	}
	return p
}
