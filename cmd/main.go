package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/proposal-service/internal/db"
	"github.com/senyabanana/proposal-service/internal/handlers"
	"github.com/senyabanana/proposal-service/internal/mailer"
	"github.com/senyabanana/proposal-service/internal/metrics"
	"github.com/senyabanana/proposal-service/internal/middleware"
	"github.com/senyabanana/proposal-service/internal/models"
	"github.com/senyabanana/proposal-service/internal/repository"
	"github.com/senyabanana/proposal-service/internal/repository/memory"
	"github.com/senyabanana/proposal-service/internal/router"
	"github.com/senyabanana/proposal-service/internal/router/config"
	"github.com/senyabanana/proposal-service/internal/services"

	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "proposal-service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Proposal pricing and delivery tracking service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "Directory containing app.env")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	})

	var steps int
	migrateCmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("cannot load config: %w", err)
			}
			conn, err := db.ConnString(cfg)
			if err != nil {
				return err
			}
			if args[0] == "down" {
				return db.RollbackMigrations(cfg.MigrationURL, conn, steps)
			}
			if err := db.RunMigrations(cfg.MigrationURL, conn); err != nil {
				return err
			}
			log.Println("db migrated successfully")
			return nil
		},
	}
	migrateCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(migrateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func openStore(ctx context.Context, cfg config.Config) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		return memory.NewStore(), func() {}, nil
	case "postgres":
		conn, err := db.ConnString(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(cfg.MigrationURL, conn); err != nil {
			return nil, nil, err
		}
		log.Println("db migrated successfully")

		dbPool, err := db.InitDb(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing database: %w", err)
		}
		return repository.NewPostgresStore(dbPool), dbPool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func serve(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	gstRate, err := cfg.GSTRate()
	if err != nil {
		return fmt.Errorf("invalid DEFAULT_GST_RATE: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)
	m := metrics.New()
	mail := mailer.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom)

	quoteService := services.NewQuoteService(store, services.QuoteDefaults{
		Currency: cfg.DefaultCurrency,
		Pricing: models.PricingPolicy{
			GSTEnabled:       cfg.DefaultGSTEnabled,
			GSTRate:          gstRate,
			PricesIncludeGST: cfg.DefaultPricesIncludeGST,
		},
	}, logger)
	authoringService := services.NewAuthoringService(store, cfg.AuthoringHourCap, m, logger)
	projectService := services.NewProjectService(store, logger)
	publishService := services.NewPublishService(store, projectService, mail, m, services.PublishConfig{
		PortalURL:   cfg.PortalURL,
		NotifyEmail: cfg.NotifyEmail,
	}, logger)
	timeService := services.NewTimeService(store, m, logger)

	routes := router.InitRoutes(router.Handlers{
		Quotes:    handlers.NewQuoteHandler(quoteService, logger, cfg.RequestTimeout),
		Authoring: handlers.NewAuthoringHandler(authoringService, logger, cfg.RequestTimeout),
		Publish:   handlers.NewPublishHandler(publishService, logger, cfg.RequestTimeout),
		Delivery:  handlers.NewDeliveryHandler(projectService, timeService, logger, cfg.RequestTimeout),
		Ping:      handlers.PingHandler(store, cfg.RequestTimeout),
	}, middleware.NewAuth(cfg.JWTSecret), m, logger)

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           routes,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server is listening on %s...", cfg.ServerAddress)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
