package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tokyojung/internal/auth"
	"tokyojung/internal/config"
	"tokyojung/internal/events"
	"tokyojung/internal/menu"
	"tokyojung/internal/orders"
	"tokyojung/internal/reports"
	"tokyojung/internal/server"
	"tokyojung/internal/users"
	"tokyojung/pkg/db"
	"tokyojung/pkg/log"
	"tokyojung/pkg/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal("service failed", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		log.Init(log.Config{})
		return err
	}

	log.Init(log.Config{Level: log.Level(cfg.LogLevel)})
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	// The broker is optional; without it events are in-process only.
	var mirror events.Mirror
	if cfg.RabbitMQURL != "" {
		broker, err := rabbitmq.Connect(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer broker.Close()
		mirror = events.NewAMQPMirror(broker)
	}
	hub := events.NewHub(mirror)

	userRepo := users.NewRepo(pool)
	authService := auth.NewService(cfg.JWTSecret, userRepo)
	userService := users.NewService(userRepo, auth.Hasher{})
	menuService := menu.NewService(menu.NewRepo(pool), hub)
	orderService := orders.NewService(orders.NewRepo(pool), hub, cfg.Location)
	reportService := reports.NewService(pool, cfg.Location)

	srv := server.New(cfg, server.Deps{
		Auth:    authService,
		Menu:    menuService,
		Orders:  orderService,
		Reports: reportService,
		Users:   userService,
		Hub:     hub,
		Pool:    pool,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	logger.Info().Str("port", cfg.Port).Str("timezone", cfg.Timezone).Msg("order pipeline started")
	return g.Wait()
}
