package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gramly/internal/adapters/httpapi"
	feedapp "gramly/internal/core/feed/service"
	graphapp "gramly/internal/core/graph/service"
	userapp "gramly/internal/core/user/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Run the HTTP API. With REPAIR_ENABLED=true the desync repair worker runs alongside it.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer closeStores(st)

	// The in-memory store has nothing to migrate, and the other drivers are idempotent.
	if err := st.migrate(ctx); err != nil {
		return err
	}

	mediaStore, err := openMedia(settings, logger)
	if err != nil {
		return err
	}

	userSvc := userapp.NewUserService(st.users, mediaStore, st.cache, []byte(settings.JWTSecret), logger)
	graphSvc := graphapp.NewGraphService(st.users, st.posts, st.comments, st.journal, collector, logger)
	feedSvc := feedapp.NewFeedService(st.posts, st.comments, st.users, st.cache, logger)

	if settings.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	binding.EnableDecoderDisallowUnknownFields = true
	r := httpapi.SetupRoutes(userSvc, graphSvc, feedSvc, mediaStore, httpapi.RouterOptions{
		Logger:       logger,
		Metrics:      collector,
		MediaDir:     settings.MediaDir,
		CORSOrigin:   settings.CORSOrigin,
		CookieSecure: settings.Production(),
	})

	srv := &http.Server{
		Addr:              ":" + settings.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("app is running", zap.String("addr", srv.Addr), zap.String("store", settings.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if settings.RepairEnabled {
		worker := newRepairWorker(st)
		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
	}

	return g.Wait()
}

func closeStores(st *stores) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := st.close(ctx); err != nil {
		logger.Error("error closing connections", zap.Error(err))
	}
}
