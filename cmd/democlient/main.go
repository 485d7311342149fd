// Democlient runs the full client-side pipeline against a devserver: it
// connects the realtime transport, joins the user's private channel, and
// prints every transfer notification as a toast lifecycle on stdout.
//
// With REDIS_URL set, displayed notifications are also archived.
//
//	DEV_API_URL=http://localhost:8080 go run ./cmd/democlient
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dragonlab/mimokit/pkg/config"
	"github.com/dragonlab/mimokit/pkg/i18n"
	"github.com/dragonlab/mimokit/pkg/logger"
	"github.com/dragonlab/mimokit/pkg/notifications"
	"github.com/dragonlab/mimokit/pkg/realtime"
	"github.com/dragonlab/mimokit/pkg/redis"
	"github.com/dragonlab/mimokit/pkg/statemachine"
	"github.com/dragonlab/mimokit/pkg/tokenstore"
)

type appConfig struct {
	APIURL   string        `env:"DEV_API_URL" envDefault:"http://localhost:8080"`
	WSURL    string        `env:"DEV_WS_URL" envDefault:"ws://localhost:8080/ws"`
	Token    string        `env:"DEV_TOKEN" envDefault:"dev-token"`
	Language string        `env:"DEV_LANGUAGE" envDefault:"en"`
	Display  time.Duration `env:"DEV_TOAST_DURATION" envDefault:"5s"`

	Redis redis.Config
}

func main() {
	log := logger.New(logger.WithFormat(logger.FormatText))
	logger.SetAsDefault(log)

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		log.Error("failed to load config", logger.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tr, err := i18n.NewDefaultTranslator()
	if err != nil {
		log.Error("failed to load translations", logger.Error(err))
		os.Exit(1)
	}

	store := notifications.NewStore()
	defer store.Close()

	hubOpts := []notifications.HubOption{notifications.WithHubLogger(log)}
	if cfg.Redis.ConnectionURL != "" {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Error("redis unavailable, archive disabled", logger.Error(err))
		} else {
			defer client.Close()
			archive, err := notifications.NewRedisArchive(client, 100)
			if err != nil {
				log.Error("archive setup failed", logger.Error(err))
			} else {
				hubOpts = append(hubOpts, notifications.WithArchive(archive))
			}
		}
	}

	toast := notifications.NewToast(
		notifications.WithToastConfig(notifications.ToastConfig{DisplayDuration: cfg.Display}),
		notifications.WithToastTransitionHook(printToast),
	)
	hub := notifications.NewHub(store, toast, hubOpts...)

	manager, err := realtime.NewManager(func(token string) (realtime.Transport, error) {
		return realtime.NewWSTransport(cfg.WSURL, cfg.APIURL+"/api/broadcasting/auth", token,
			realtime.WithWSLogger(log),
		)
	}, realtime.WithManagerLogger(log))
	if err != nil {
		log.Error("manager setup failed", logger.Error(err))
		os.Exit(1)
	}

	formatter, err := realtime.NewFormatter(tr, cfg.Language)
	if err != nil {
		log.Error("formatter setup failed", logger.Error(err))
		os.Exit(1)
	}

	coord, err := realtime.NewCoordinator(
		manager,
		tokenstore.NewMemoryStoreWithToken(cfg.Token),
		store,
		formatter,
		cfg.APIURL+"/api/me/broadcast-channel",
		realtime.WithCoordinatorLogger(log),
	)
	if err != nil {
		log.Error("coordinator setup failed", logger.Error(err))
		os.Exit(1)
	}

	coord.Start(ctx)
	defer coord.Stop()

	if !coord.IsInitialized() {
		log.Error("realtime setup failed, nothing to display")
		os.Exit(1)
	}
	log.Info("listening for transfer notifications", logger.Channel(coord.Channel()))

	if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("hub stopped", logger.Error(err))
		os.Exit(1)
	}
}

func printToast(state statemachine.State, n *notifications.Notification) {
	if n == nil {
		return
	}
	switch state {
	case notifications.ToastVisible:
		fmt.Printf("[%s] %s\n%s\n", n.Severity, n.Title, n.Message)
	case notifications.ToastHidden:
		fmt.Println("---")
	}
}
