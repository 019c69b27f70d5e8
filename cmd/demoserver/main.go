// Command demoserver starts the reflective demo shop used to try out surfaudit.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999, or SURFAUDIT_DEMO_PORT.
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/kelseyhightower/envconfig"

	"github.com/raysh454/surfaudit/internal/demoserver"
	"github.com/raysh454/surfaudit/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()
	if err := envconfig.Process("SURFAUDIT_DEMO", &cfg); err != nil {
		log.Fatalf("Invalid demo config: %v", err)
	}

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	logger, err := logging.New(logging.Config{Level: "debug", Development: true}, "demoserver")
	if err != nil {
		log.Fatalf("Logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("reflective pages",
		logging.Field{Key: "search", Value: "POST /search (q)"},
		logging.Field{Key: "item", Value: "GET /item?id=1&ref=home (id)"},
		logging.Field{Key: "account", Value: "GET /account (account cookie)"},
		logging.Field{Key: "contact", Value: "POST /contact (name)"},
		logging.Field{Key: "hardened", Value: cfg.Hardened})

	server := demoserver.NewDemoServer(cfg, logger)
	if err := server.Start(); err != nil {
		logger.Error("server error", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}
