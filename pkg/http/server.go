package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lintang-b-s/Segmentx/pkg/config"
	http_router "github.com/lintang-b-s/Segmentx/pkg/http/router"
	"github.com/lintang-b-s/Segmentx/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/Segmentx/pkg/http/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Log *zap.Logger
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Run. serve the report api until ctx is cancelled, then drain in-flight requests.
func (s *Server) Run(
	ctx context.Context,
	cfg config.HTTPConfig,
	reportService controllers.ReportService,
	metricsHandler http.Handler,
) error {
	serverConfig := http_server.Config{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	api := http_router.NewAPI(s.Log, http_router.Options{
		MaxBodyBytes: cfg.MaxBodyBytes,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
	})
	srv := http_server.New(ctx, api.Handler(reportService, metricsHandler), serverConfig)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Log.Info("API run", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.Log.Info("Context canceled, shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// GracefulShutdown. context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
