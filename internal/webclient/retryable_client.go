package webclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/raysh454/surfaudit/internal/logging"
)

// NewRetryableClient returns a NetHTTPClient whose transport retries
// connection errors and 5xx responses with exponential backoff.
func NewRetryableClient(cfg Config, logger logging.Logger) (*NetHTTPClient, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	rc.Logger = leveledLogger{logger.With(logging.Field{Key: "component", Value: "retryablehttp"})}

	rc.ErrorHandler = lastResponse

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rc.HTTPClient.Timeout = timeout

	std := rc.StandardClient()
	std.Timeout = timeout
	return newNetHTTPClient(cfg, logger, std, string(BackendRetryable))
}

// lastResponse hands back the final response once retries run out, so a
// probe still sees the body of an endpoint that keeps failing.
func lastResponse(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// leveledLogger adapts logging.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger logging.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.logger.Error(msg, kvFields(kv)...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.logger.Info(msg, kvFields(kv)...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.logger.Debug(msg, kvFields(kv)...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.logger.Warn(msg, kvFields(kv)...) }

func kvFields(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		var val any
		if i+1 < len(kv) {
			val = kv[i+1]
		}
		fields = append(fields, logging.Field{Key: key, Value: val})
	}
	return fields
}
