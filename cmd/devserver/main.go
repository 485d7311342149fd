// Devserver is a local stand-in for the production backend: it serves the
// pusher-style websocket endpoint, the broadcasting-auth and channel-resolve
// APIs, and the OTP endpoints, so the client packages can be exercised
// end to end without real infrastructure.
//
// A transfer event can be injected at any time:
//
//	curl -X POST localhost:8080/api/trigger/transfer \
//	  -d '{"type":1,"status":1,"amount_usdt":100,"amount_vnd_real":2613000}'
package main

import (
	"context"
	"os"

	"github.com/dragonlab/mimokit/pkg/broadcast"
	"github.com/dragonlab/mimokit/pkg/config"
	"github.com/dragonlab/mimokit/pkg/httpserver"
	"github.com/dragonlab/mimokit/pkg/logger"
)

type appConfig struct {
	HTTP httpserver.Config

	// Token is the only bearer token the fake backend accepts.
	Token string `env:"DEV_TOKEN" envDefault:"dev-token"`
	// UserID selects the private channel suffix handed to clients.
	UserID string `env:"DEV_USER_ID" envDefault:"1"`
	// OTP is the code the verify endpoints accept.
	OTP string `env:"DEV_OTP" envDefault:"123456"`
}

func main() {
	log := logger.New(logger.WithFormat(logger.FormatText))
	logger.SetAsDefault(log)

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		log.Error("failed to load config", logger.Error(err))
		os.Exit(1)
	}

	broker := broadcast.NewMemoryBroadcaster[pushFrame](16)
	defer broker.Close()

	api := newAPI(cfg, broker, log)

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	if err := srv.Run(context.Background(), api.router()); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}
