package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/config"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/events"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/presence"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/server"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/store"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/store/memstore"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/store/postgres"
	canvassync "github.com/benpeays-blip/National-Church-Residences-sub005/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the canvas HTTP and gRPC server",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// Override PersistentPreRunE so we don't create a client connection.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (FUNDRAZOR_NATS_URL not set)")
		}

		canvasServer := server.NewCanvasServer(st, publisher)
		canvasServer.Presence.StartReaper(&presence.ReaperConfig{
			IdleAfter: cfg.PresenceIdle,
			OnEvict: func(s presence.Session) {
				logger.Debug("editor went idle", "canvas", s.CanvasID, "actor", s.Actor)
			},
		})
		grpcServer := server.NewGRPCServer(canvasServer, cfg.AuthToken)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			canvasServer.Presence.Stop()
			publisher.Close()
			st.Close()
			return err
		}

		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           canvasServer.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler, stopTrigger := startSync(cfg, st, logger)

		logger.Info("fundrazor server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"auth", cfg.AuthToken != "",
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if stopTrigger != nil {
			stopTrigger()
		}
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		canvasServer.Presence.Stop()
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// openStore picks the in-memory store for memory:// and Postgres otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.InMemory() {
		logger.Warn("using in-memory store; canvases are lost on restart")
		return memstore.New(), nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL, postgres.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return pg, nil
}

// startSync starts the export scheduler when a destination is configured.
// With NATS available, canvas events also trigger an early export. Both
// return values are nil when sync is off.
func startSync(cfg *config.Config, st store.Store, logger *slog.Logger) (*canvassync.Scheduler, func()) {
	if !cfg.SyncEnabled() {
		return nil, nil
	}

	var dests []canvassync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := canvassync.NewS3Destination(
			context.Background(),
			cfg.SyncS3Bucket,
			cfg.SyncS3Key,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, canvassync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	if len(dests) == 0 {
		return nil, nil
	}

	scheduler := canvassync.NewScheduler(st, dests, cfg.SyncInterval, canvassync.ExportOptions{IncludeEvents: cfg.SyncEvents}, logger)
	scheduler.Start()
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval, "events", cfg.SyncEvents)

	if cfg.NATSURL == "" {
		return scheduler, nil
	}
	sub, err := events.NewNATSSubscriber(cfg.NATSURL)
	if err != nil {
		logger.Error("failed to create sync trigger subscriber", "err", err)
		return scheduler, nil
	}
	cancel, err := scheduler.TriggerOn(sub, events.TopicCanvasAll)
	if err != nil {
		logger.Error("failed to subscribe sync trigger", "err", err)
		sub.Close()
		return scheduler, nil
	}
	return scheduler, func() {
		cancel()
		sub.Close()
	}
}
