package webclient

import "time"

type Backend string

const (
	BackendNetHTTP   Backend = "nethttp"
	BackendRetryable Backend = "retryable"
)

// Config holds the settings every backend understands.
type Config struct {
	Backend Backend `envconfig:"BACKEND" default:"nethttp"`

	// Timeout bounds a single request, retries included.
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s"`

	// Retry settings, used by the retryable backend only.
	RetryMax     int           `envconfig:"RETRY_MAX" default:"2"`
	RetryWaitMin time.Duration `envconfig:"RETRY_WAIT_MIN" default:"500ms"`
	RetryWaitMax time.Duration `envconfig:"RETRY_WAIT_MAX" default:"5s"`

	// RequestsPerSecond caps outgoing requests; 0 means unlimited.
	RequestsPerSecond float64 `envconfig:"RPS" default:"0"`

	UserAgent string `envconfig:"USER_AGENT" default:"surfaudit/0.1"`
}

// DefaultConfig mirrors the envconfig defaults.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendNetHTTP,
		Timeout:      30 * time.Second,
		RetryMax:     2,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		UserAgent:    "surfaudit/0.1",
	}
}
