package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gokaycavdar/go-urlguard/pkg/metrics"
	"github.com/gokaycavdar/go-urlguard/pkg/server"
	"github.com/gokaycavdar/go-urlguard/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the widget API over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.quiet() {
				printBanner(cmd.ErrOrStderr())
			}
			return a.serve(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.String("addr", ":8080", "listen address")
	f.Float64("rate-limit", 20, "API requests per second, 0 disables")
	f.Duration("session-ttl", 30*time.Minute, "idle time before a session expires")
	_ = a.v.BindPFlag("server.addr", f.Lookup("addr"))
	_ = a.v.BindPFlag("server.rate_limit", f.Lookup("rate-limit"))
	_ = a.v.BindPFlag("server.session_ttl", f.Lookup("session-ttl"))
	return cmd
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	guard, release, err := buildEngine(a.cfg.Analysis, a.cfg.GeoIP, a.logger)
	if err != nil {
		return err
	}
	defer release()

	sc := a.cfg.Server
	srv := server.New(server.Config{
		RateLimit:     sc.RateLimit,
		RateBurst:     sc.RateBurst,
		SessionTTL:    sc.SessionTTL,
		SweepInterval: sc.SweepInterval,
	}, guard, storage.NewMemoryStore(), metrics.NewCollector(sc.RuntimeMetrics), a.logger)

	httpSrv := &http.Server{
		Addr:              sc.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.WithField("addr", sc.Addr).Info("urlguard listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		srv.RunSweeper(gctx)
		return nil
	})
	return g.Wait()
}
