// Command surfaudit-server exposes scans over HTTP and WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/raysh454/surfaudit/internal/app"
	"github.com/raysh454/surfaudit/internal/logging"
	"github.com/raysh454/surfaudit/internal/server"
)

func main() {
	envFile := flag.String("env", ".env", "Optional dotenv file")
	flag.Parse()

	cfg, err := app.Load(*envFile)
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Log, "surfaudit-server")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	srvCfg := server.Config{AppConfig: cfg, Logger: logger}
	if err := envconfig.Process(app.EnvPrefix+"_SERVER", &srvCfg); err != nil {
		logger.Error("invalid server config", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	s, err := server.NewServer(srvCfg)
	if err != nil {
		logger.Error("cannot create server", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
	defer s.Close()

	httpSrv := s.HTTPServer()
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", logging.Field{Key: "error", Value: err.Error()})
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}
