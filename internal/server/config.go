package server

import (
	"github.com/raysh454/surfaudit/internal/app"
	"github.com/raysh454/surfaudit/internal/logging"
	"github.com/raysh454/surfaudit/internal/webclient"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string `envconfig:"ADDR" default:":8080"`

	AppConfig *app.Config    `ignored:"true"`
	Logger    logging.Logger `ignored:"true"`

	// WebClient overrides the client built from AppConfig.
	WebClient webclient.WebClient `ignored:"true"`
}
