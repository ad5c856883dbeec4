package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goEstate "github.com/MrEthical07/goEstate"
	"github.com/MrEthical07/goEstate/metrics/export/otel"
	"github.com/MrEthical07/goEstate/web"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	dev          bool
	lockIdle     bool
	otelInterval time.Duration
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server.

Logout locks the node account of the session unless it is the main account set by
node.main_address (GOESTATE_NODE_MAIN_ADDRESS). Without it no account is exempt, so
logging out of the node's own coinbase account locks it as well.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "use in-process redis and an ephemeral signing key")
	cmd.Flags().BoolVar(&opts.lockIdle, "lock-idle", false, "lock node accounts without a live session before serving")
	cmd.Flags().DurationVar(&opts.otelInterval, "otel-interval", 0, "print OpenTelemetry metrics to stdout at this interval (0 disables)")
	cmd.Flags().String("listen", ":5000", "listen address")
	return cmd
}

func (a *app) serve(cmd *cobra.Command, opts *serveOptions) error {
	s, err := a.load(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		s.Listen, _ = cmd.Flags().GetString("listen")
	}

	logger := newLogger(s, os.Stderr)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, s, logger, os.Stderr, opts.dev)
	if err != nil {
		return err
	}
	defer rt.Close()

	logSecurityReport(logger, rt.engine.SecurityReport())

	if opts.lockIdle {
		locked, err := rt.engine.LockIdleAccounts(ctx)
		if err != nil {
			logger.Warn("lock idle accounts", "locked", locked, "error", err)
		} else {
			logger.Info("locked idle accounts", "locked", locked)
		}
	}

	if opts.otelInterval > 0 {
		shutdown, err := startOTel(rt, opts.otelInterval)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	srv := &http.Server{
		Addr:              s.Listen,
		Handler:           web.NewRouter(rt.engine, web.Options{Logger: logger, TrustProxy: s.TrustProxy}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.Engine.Node.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", s.Listen, "contract", rt.engine.ContractAddress().Hex())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func logSecurityReport(logger *slog.Logger, report goEstate.SecurityReport) {
	logger.Info("security posture",
		"production_mode", report.ProductionMode,
		"signing_algorithm", report.SigningAlgorithm,
		"session_lifetime", report.SessionLifetime,
		"cookie_secure", report.CookieSecure,
		"ip_binding", report.IPBinding,
		"ua_binding", report.UserAgentBinding,
		"login_rate_limited", report.LoginRateLimited,
		"register_rate_limited", report.RegisterRateLimited,
		"main_address_exempt", report.MainAddressExempt,
		"audit", report.AuditEnabled,
	)
	if !report.MainAddressExempt {
		logger.Warn("node.main_address is not set; every account is locked on logout")
	}
}

// startOTel exports the engine metrics to stdout through a periodic reader.
func startOTel(rt *runtime, interval time.Duration) (func(), error) {
	exp, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("create stdout metric exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
	)

	bridge, err := otel.New(provider.Meter("github.com/MrEthical07/goEstate"), rt.engine)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}

	return func() {
		_ = bridge.Close()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			rt.logger.Warn("shutdown meter provider", "error", err)
		}
	}, nil
}
