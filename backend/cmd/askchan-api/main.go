package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/itchan-dev/askchan/backend/internal/mailbox"
	"github.com/itchan-dev/askchan/backend/internal/router"
	"github.com/itchan-dev/askchan/backend/internal/setup"
	"github.com/itchan-dev/askchan/backend/internal/storage/pg"
	"github.com/itchan-dev/askchan/shared/bus"
	"github.com/itchan-dev/askchan/shared/config"
	"github.com/itchan-dev/askchan/shared/jwt"
	"github.com/itchan-dev/askchan/shared/logger"
	sharedpg "github.com/itchan-dev/askchan/shared/storage/pg"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFolder string

	cmd := &cobra.Command{
		Use:           "askchan-api",
		Short:         "Q&A backend with reply-by-email",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")

	load := func() *config.Config {
		cfg := config.MustLoad(configFolder)
		logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)
		return cfg
	}

	cmd.AddCommand(newServeCommand(load))
	cmd.AddCommand(newMigrateCommand(load))
	cmd.AddCommand(newTokenCommand(load))
	return cmd
}

func newServeCommand(load func() *config.Config) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the inbound mail consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := load()
			deps, err := setup.SetupDependencies(cfg)
			if err != nil {
				return fmt.Errorf("setup: %w", err)
			}
			defer deps.Storage.Cleanup()

			if migrate {
				if err := sharedpg.Migrate(ctx, deps.Storage.DB().DB); err != nil {
					return err
				}
			}

			if cfg.Private.NatsURL != "" {
				b, err := bus.New(cfg.Private.NatsURL)
				if err != nil {
					return err
				}
				defer b.Close()
				if err := b.EnsureStream(mailbox.Stream, cfg.Public.InboundSubject); err != nil {
					return err
				}
				consumer, err := mailbox.New(deps.Inbound, cfg.Public.InboundSubject).Start(ctx, b)
				if err != nil {
					return fmt.Errorf("mailbox: %w", err)
				}
				defer consumer.Close()
			}

			r := router.New(deps)
			defer router.Stop(deps)

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Public.HttpPort),
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Log.Info("server started", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Log.Error("shutdown server", "error", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations before serving")
	return cmd
}

func newMigrateCommand(load func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := pg.New(load(), sharedpg.LightweightConnectionConfig())
			if err != nil {
				return err
			}
			defer storage.Cleanup()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := sharedpg.Migrate(ctx, storage.DB().DB); err != nil {
				return err
			}
			version, err := sharedpg.MigrationVersion(ctx, storage.DB().DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database at version %d\n", version)
			return nil
		},
	}
}

// newTokenCommand mints bearer tokens; identity is managed outside of this service.
func newTokenCommand(load func() *config.Config) *cobra.Command {
	var (
		email string
		admin bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Create the user if needed and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			storage, err := pg.New(cfg, sharedpg.LightweightConnectionConfig())
			if err != nil {
				return err
			}
			defer storage.Cleanup()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			user, err := storage.EnsureUser(ctx, email, admin)
			if err != nil {
				return err
			}
			token, err := jwt.New(cfg.JwtKey(), cfg.JwtTTL()).NewToken(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant admin rights")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
