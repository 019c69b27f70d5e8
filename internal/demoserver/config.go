package demoserver

// Config holds configuration for the demo server.
type Config struct {
	// Port is the port on which the demo server listens.
	Port int `envconfig:"PORT" default:"9999"`

	// Hardened starts the server with every reflection HTML-escaped.
	Hardened bool `envconfig:"HARDENED" default:"false"`

	// AccountID is the value of the account cookie handed to new visitors.
	AccountID string `envconfig:"ACCOUNT_ID" default:"7"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:      9999,
		AccountID: "7",
	}
}
