package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirillkom/docstudio/internal/core/domain"
	"github.com/kirillkom/docstudio/internal/infrastructure/resilience"
)

type Config struct {
	WebPort  string
	LogLevel string
	Locale   string

	BackendURL            string
	BackendTimeoutSeconds int

	AllowedExtensions []string
	ProcessingTypes   []string
	MaxUploadMB       int

	SessionTTLMinutes int
	AlertFadeMS       int
	AlertRemoveMS     int

	PreviewMaxPages     int
	PreviewScale        float64
	PreviewConcurrency  int
	PreviewCachePath    string
	PreviewMaxPDFMB     int
	PreviewWorkerWaitMS int

	HistoryDSN   string
	HistoryLimit int

	NATSURL             string
	OutputEventsSubject string
	WorkerMetricsPort   string

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int

	ResilienceRetryMaxAttempts        int
	ResilienceRetryInitialBackoffMS   int
	ResilienceRetryMaxBackoffMS       int
	ResilienceRetryMultiplier         float64
	ResilienceBreakerEnabled          bool
	ResilienceBreakerMinRequests      int
	ResilienceBreakerFailureRatio     float64
	ResilienceBreakerOpenTimeoutMS    int
	ResilienceBreakerHalfOpenMaxCalls int
}

// LoadDotEnv reads a .env file into the process environment when one
// exists. Variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Load() Config {
	return Config{
		WebPort:  mustEnv("WEB_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),
		Locale:   mustEnv("LOCALE", "en"),

		BackendURL:            mustEnv("BACKEND_URL", "http://localhost:5000"),
		BackendTimeoutSeconds: mustEnvInt("BACKEND_TIMEOUT_SECONDS", 120),

		AllowedExtensions: mustEnvList("ALLOWED_EXTENSIONS", domain.DefaultAllowedExtensions),
		ProcessingTypes:   mustEnvList("PROCESSING_TYPES", domain.DefaultProcessingTypes),
		MaxUploadMB:       mustEnvInt("MAX_UPLOAD_MB", 25),

		SessionTTLMinutes: mustEnvInt("SESSION_TTL_MINUTES", 120),
		AlertFadeMS:       mustEnvInt("ALERT_FADE_MS", 5000),
		AlertRemoveMS:     mustEnvInt("ALERT_REMOVE_MS", 150),

		PreviewMaxPages:     mustEnvInt("PREVIEW_MAX_PAGES", domain.DefaultPreviewMaxPages),
		PreviewScale:        mustEnvFloat("PREVIEW_SCALE", domain.DefaultPreviewScale),
		PreviewConcurrency:  mustEnvInt("PREVIEW_CONCURRENCY", 3),
		PreviewCachePath:    mustEnv("PREVIEW_CACHE_PATH", "./data/previews"),
		PreviewMaxPDFMB:     mustEnvInt("PREVIEW_MAX_PDF_MB", 50),
		PreviewWorkerWaitMS: mustEnvInt("PREVIEW_WORKER_WAIT_MS", 15000),

		HistoryDSN:   mustEnv("HISTORY_DSN", ""),
		HistoryLimit: mustEnvInt("HISTORY_LIMIT", 100),

		NATSURL:             mustEnv("NATS_URL", ""),
		OutputEventsSubject: mustEnv("OUTPUT_EVENTS_SUBJECT", "docstudio.output.ready"),
		WorkerMetricsPort:   mustEnv("WORKER_METRICS_PORT", "9090"),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 20),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 0),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),

		ResilienceRetryMaxAttempts:        mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", 3),
		ResilienceRetryInitialBackoffMS:   mustEnvInt("RESILIENCE_RETRY_INITIAL_BACKOFF_MS", 100),
		ResilienceRetryMaxBackoffMS:       mustEnvInt("RESILIENCE_RETRY_MAX_BACKOFF_MS", 400),
		ResilienceRetryMultiplier:         mustEnvFloat("RESILIENCE_RETRY_MULTIPLIER", 2),
		ResilienceBreakerEnabled:          mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),
		ResilienceBreakerMinRequests:      mustEnvInt("RESILIENCE_BREAKER_MIN_REQUESTS", 10),
		ResilienceBreakerFailureRatio:     mustEnvFloat("RESILIENCE_BREAKER_FAILURE_RATIO", 0.5),
		ResilienceBreakerOpenTimeoutMS:    mustEnvInt("RESILIENCE_BREAKER_OPEN_TIMEOUT_MS", 30000),
		ResilienceBreakerHalfOpenMaxCalls: mustEnvInt("RESILIENCE_BREAKER_HALF_OPEN_MAX_CALLS", 2),
	}
}

func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// PreviewWorkerWait applies only when output events reach a worker.
func (c Config) PreviewWorkerWait() time.Duration {
	if c.NATSURL == "" {
		return 0
	}
	return time.Duration(c.PreviewWorkerWaitMS) * time.Millisecond
}

func (c Config) MaxPreviewBytes() int64 {
	return int64(c.PreviewMaxPDFMB) << 20
}

// Resilience maps the RESILIENCE_* knobs onto the fetch policy and the
// breaker. Submissions are never retried and publishing keeps its default.
func (c Config) Resilience() resilience.Config {
	cfg := resilience.DefaultConfig()
	cfg.Fetch = resilience.RetryPolicy{
		MaxAttempts:    c.ResilienceRetryMaxAttempts,
		InitialBackoff: time.Duration(c.ResilienceRetryInitialBackoffMS) * time.Millisecond,
		MaxBackoff:     time.Duration(c.ResilienceRetryMaxBackoffMS) * time.Millisecond,
		Multiplier:     c.ResilienceRetryMultiplier,
	}
	cfg.Breaker = resilience.BreakerPolicy{
		Enabled:          c.ResilienceBreakerEnabled,
		MinRequests:      uint32(max(c.ResilienceBreakerMinRequests, 0)),
		FailureRatio:     c.ResilienceBreakerFailureRatio,
		OpenTimeout:      time.Duration(c.ResilienceBreakerOpenTimeoutMS) * time.Millisecond,
		HalfOpenMaxCalls: uint32(max(c.ResilienceBreakerHalfOpenMaxCalls, 0)),
	}
	return cfg
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
