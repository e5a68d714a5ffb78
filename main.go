package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eshop/internal/app"
	"eshop/internal/config"
	"eshop/internal/logging"
	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/seed"
	"eshop/internal/services"
	"eshop/pkg/rabbitmq"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the eshop command tree. Log output goes to out.
func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "eshop",
		Short:         "Nintendo e-shop catalog and account API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Optional config file (yaml, json, toml); environment variables take precedence")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), configPath, out)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the store schema and indexes",
			RunE: func(cmd *cobra.Command, args []string) error {
				env, err := bootstrap(cmd.Context(), configPath, out)
				if err != nil {
					return err
				}
				defer env.close()
				env.log.WithField("store", env.store.Driver).Info("Store schema is up to date")
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Wipe the store and load the sample accounts and catalog",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSeed(cmd.Context(), configPath, out)
			},
		},
	)
	return rootCmd
}

// environment is what every command needs: configuration, logger and a
// migrated store.
type environment struct {
	cfg   *config.Config
	log   *logrus.Logger
	store *repositories.Store
}

func bootstrap(ctx context.Context, configPath string, out io.Writer) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, out)
	if err != nil {
		return nil, err
	}
	if cfg.UsesDevSecret() {
		log.Warn("JWT_SECRET is not set; using the development secret")
	}

	store, err := repositories.Open(ctx, repositories.Options{
		Driver:        cfg.StoreDriver,
		DSN:           cfg.DatabaseDSN,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return &environment{cfg: cfg, log: log, store: store}, nil
}

func (e *environment) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.store.Close(ctx); err != nil {
		e.log.WithError(err).Error("Error closing store")
	}
}

// connectEvents returns nil when events are disabled or the broker is
// unreachable; the API keeps serving without them.
func connectEvents(cfg *config.Config, log *logrus.Logger) *rabbitmq.Client {
	if !cfg.EventsEnabled() {
		log.Info("RABBITMQ_URL not set; catalog events disabled")
		return nil
	}
	client, err := rabbitmq.NewClient(rabbitmq.Config{
		URL:    cfg.RabbitMQURL,
		Queue:  cfg.RabbitMQQueue,
		Logger: log,
	})
	if err != nil {
		log.WithError(err).Warn("Catalog events disabled")
		return nil
	}

	logEvent := func(event models.CatalogEvent) error {
		log.WithFields(logrus.Fields{
			"event":      event.Type,
			"product_id": event.ProductID,
			"actor_id":   event.ActorID,
		}).Info("Catalog event received")
		return nil
	}
	if err := client.ConsumeCatalogEvents(logEvent); err != nil {
		log.WithError(err).Warn("Failed to start catalog event consumer")
	}
	return client
}

func runServe(ctx context.Context, configPath string, out io.Writer) error {
	env, err := bootstrap(ctx, configPath, out)
	if err != nil {
		return err
	}
	defer env.close()

	deps := app.Deps{Config: env.cfg, Store: env.store, Logger: env.log}
	if client := connectEvents(env.cfg, env.log); client != nil {
		defer client.Close()
		deps.Events = client
	}

	application, err := app.NewApp(deps)
	if err != nil {
		return err
	}

	listenErr := make(chan error, 1)
	go func() {
		env.log.WithFields(logrus.Fields{
			"addr":  env.cfg.AppPort,
			"env":   env.cfg.AppEnv,
			"store": env.store.Driver,
		}).Info("Starting server")
		listenErr <- application.Fiber.Listen(env.cfg.AppPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		env.log.WithField("signal", sig.String()).Info("Shutting down server")
	}

	if err := application.Fiber.ShutdownWithTimeout(shutdownTimeout); err != nil {
		env.log.WithError(err).Error("Error during server shutdown")
	}
	env.log.Info("Server gracefully stopped")
	return nil
}

func runSeed(ctx context.Context, configPath string, out io.Writer) error {
	env, err := bootstrap(ctx, configPath, out)
	if err != nil {
		return err
	}
	defer env.close()

	auth := services.NewAuthService(env.store.Users, services.AuthConfig{
		Secret:     env.cfg.JWTSecret,
		TokenTTL:   env.cfg.JWTExpire,
		BcryptCost: env.cfg.BcryptCost,
	}, env.log)
	catalog := services.NewProductService(env.store.Products, nil, env.log)

	result, err := seed.Run(ctx, env.store, auth, catalog, env.log)
	if err != nil {
		return err
	}
	env.log.WithFields(logrus.Fields{
		"admin":    result.Admin.Email,
		"user":     result.Customer.Email,
		"products": len(result.Products),
	}).Info("Seed completed")
	return nil
}
