package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/memberclub-backend/api/routes"
	"github.com/angelmondragon/memberclub-backend/internal/cart"
	"github.com/angelmondragon/memberclub-backend/internal/catalog"
	"github.com/angelmondragon/memberclub-backend/internal/checkout"
	"github.com/angelmondragon/memberclub-backend/internal/members"
	"github.com/angelmondragon/memberclub-backend/internal/tiers"
	"github.com/angelmondragon/memberclub-backend/pkg/config"
	"github.com/angelmondragon/memberclub-backend/pkg/db"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
	"github.com/angelmondragon/memberclub-backend/pkg/metrics"
	"github.com/angelmondragon/memberclub-backend/pkg/migrate"
	"github.com/angelmondragon/memberclub-backend/pkg/outbox"
	"github.com/angelmondragon/memberclub-backend/pkg/redis"
)

const (
	serviceName     = "api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	reg := metrics.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(reg)

	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	tierRepo := tiers.NewRepository(conn)
	memberRepo := members.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	publisher := outbox.NewService(outbox.NewRepository(conn), logg)

	catalogService, err := catalog.NewService(catalogRepo, dbClient, cartRepo, publisher)
	if err != nil {
		return err
	}
	tierService, err := tiers.NewService(tierRepo, dbClient, memberRepo, publisher)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		TX:            dbClient,
		Entries:       cartRepo,
		Catalog:       catalogRepo,
		Tiers:         tierRepo,
		Members:       memberRepo,
		RestorePolicy: cfg.Cart.RestorePolicy,
		Logger:        logg,
		Metrics:       ledgerMetrics,
	})
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		TX:               dbClient,
		Entries:          cartRepo,
		Tiers:            tierRepo,
		Members:          memberRepo,
		Outbox:           publisher,
		CashbackValidity: cfg.Cart.CashbackValidity,
		Logger:           logg,
		Metrics:          ledgerMetrics,
	})
	if err != nil {
		return err
	}

	memberService, err := members.NewService(memberRepo, tierRepo, cfg.Password)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			reg,
			metrics.NewHTTPMetrics(reg),
			catalogService,
			tierService,
			cartService,
			checkoutService,
			memberService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
