package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/klabast/wb-services/treatment-calendar/internal/app"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	port        int
	storage     string
	storagePath string
	authFile    string
	natsURL     string
}

func newServeCmd(g *globals) *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(g.configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = f.port
			}
			if flags.Changed("storage") {
				cfg.Storage.Driver = f.storage
			}
			if flags.Changed("storage-path") {
				cfg.Storage.Path = f.storagePath
			}
			if flags.Changed("auth-file") {
				cfg.AuthFile = f.authFile
			}
			if flags.Changed("nats-url") {
				cfg.NATS.URL = f.natsURL
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, g.logger)
		},
	}

	cmd.Flags().IntVarP(&f.port, "port", "p", app.DefaultPort, "Port to listen on")
	cmd.Flags().StringVar(&f.storage, "storage", app.StorageMemory, "Snapshot storage: memory, file or sqlite")
	cmd.Flags().StringVar(&f.storagePath, "storage-path", "", "Snapshot file or database path")
	cmd.Flags().StringVar(&f.authFile, "auth-file", "", "Credentials file (default: auth.secret next to the binary)")
	cmd.Flags().StringVar(&f.natsURL, "nats-url", "", "Publish accepted programs to this NATS server")
	return cmd
}

func serve(ctx context.Context, cfg *app.Config, logger *zap.Logger) error {
	metrics := app.NewMetrics()

	persister, err := app.NewPersister(cfg, logger)
	if err != nil {
		return err
	}
	store := app.NewStore(persister, metrics, logger)
	defer store.Close()
	if err := store.Load(ctx); err != nil {
		return err
	}

	if cfg.NATS.URL != "" {
		pub, err := app.ConnectNATS(cfg.NATS.URL, cfg.NATS.Subject, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		store.AddNotifier(pub)
	}

	authPath, err := cfg.AuthFilePath()
	if err != nil {
		return err
	}
	creds, err := app.LoadAuthCredentials(authPath, logger)
	if err != nil {
		return err
	}

	server := app.NewServer(app.ServerOptions{
		Config:      cfg,
		Store:       store,
		Broker:      app.NewBroker(metrics, logger),
		Credentials: creds,
		Metrics:     metrics,
		Logger:      logger,
	})

	eg, ctx := errgroup.WithContext(ctx)

	// request contexts end with ctx so open event streams let Shutdown finish
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	eg.Go(func() error {
		logger.Info("Server starting",
			zap.String("url", fmt.Sprintf("%s:%d", cfg.ServerURL, cfg.Port)),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("auth", creds != nil))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
