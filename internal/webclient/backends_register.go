package webclient

import "github.com/raysh454/surfaudit/internal/logging"

func init() {
	RegisterDefaultBackends()
}

// RegisterDefaultBackends registers the nethttp and retryable backends.
func RegisterDefaultBackends() {
	RegisterBackend(BackendNetHTTP, func(cfg Config, logger logging.Logger) (WebClient, error) {
		return NewNetHTTPClient(cfg, logger, nil)
	})

	RegisterBackend(BackendRetryable, func(cfg Config, logger logging.Logger) (WebClient, error) {
		return NewRetryableClient(cfg, logger)
	})
}
