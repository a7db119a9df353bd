package main

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

	"github.com/lex00/authgate-aws-go/internal/authorizer"
	"github.com/lex00/authgate-aws-go/internal/backend"
	"github.com/lex00/authgate-aws-go/internal/config"
	"github.com/lex00/authgate-aws-go/internal/gateway"
	"github.com/lex00/authgate-aws-go/internal/logging"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(envFile *string) *cobra.Command {
	var (
		listen      string
		ttl         string
		otelEnabled bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the authorizer and backend behind a local gateway",
		Long: `Serve runs the same authorizer and backend handlers that are deployed to
Lambda behind a local HTTP gateway. Decisions are cached per Authorization
value for the result TTL, as API Gateway does.

    authgate serve
    curl -H 'Authorization: allow' localhost:3000/check

Settings: AUTHGATE_LISTEN, AUTHGATE_RESULT_TTL, AUTHGATE_STAGE,
AUTHGATE_API_ID and LOG_LEVEL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadServe(*envFile, listen, ttl)
			if err != nil {
				return err
			}

			logger, err := logging.New(s.LogLevel, true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTelemetry, err := initTelemetry(ctx, telemetryConfig{enabled: otelEnabled, out: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTelemetry(context.Background()); err != nil {
					logger.Warn("telemetry shutdown failed", zap.Error(err))
				}
			}()

			srv, err := newServer(s, logger)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", s.Listen)
			if err != nil {
				return fmt.Errorf("listen %s: %w", s.Listen, err)
			}
			return runServer(ctx, srv, ln, logger)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default "+config.DefaultListen+")")
	cmd.Flags().StringVar(&ttl, "ttl", "", "Authorizer result cache TTL, seconds or a duration; 0 disables caching")
	cmd.Flags().BoolVar(&otelEnabled, "otel", false, "Export OpenTelemetry metrics and traces to stderr")

	return cmd
}

func loadServe(envFile, listen, ttl string) (config.Serve, error) {
	v, err := config.New(envFile)
	if err != nil {
		return config.Serve{}, err
	}
	if listen != "" {
		v.Set("listen", listen)
	}
	if ttl != "" {
		v.Set("result_ttl", ttl)
	}
	return config.LoadServe(v)
}

// newServer wires the authorizer and backend handlers into a gateway.
func newServer(s config.Serve, logger *zap.Logger) (*http.Server, error) {
	gw, err := gateway.New(
		authorizer.NewHandler(logger.Named("authorizer")),
		backend.NewHandler(logger.Named("backend")),
		gateway.Options{
			Region:    s.Region,
			Account:   s.Account,
			APIID:     s.APIID,
			Stage:     s.Stage,
			ResultTTL: s.ResultTTL,
			Logger:    logger.Named("gateway"),
		},
	)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              s.Listen,
		Handler:           gw,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}, nil
}

// runServer serves on ln until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
