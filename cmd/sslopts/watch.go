package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	tlsclient "github.com/polisai/sslopts/internal/tls"
	"github.com/polisai/sslopts/pkg/config"
	"github.com/polisai/sslopts/pkg/ssl"
	"github.com/polisai/sslopts/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

type watchOptions struct {
	check          checkOptions
	MetricsAddr    string
	ExpirySchedule string
	WarningDays    int
	CriticalDays   int
	OTLPEndpoint   string
	OTLPInsecure   bool
	Environment    string
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	watch := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-resolve the option file on every change",
		Long: `Watch the option file and translate every new version to crypto/tls.
A version that fails to load or translate is logged and the previous one stays
active. Certificates named by the active version are checked for expiry on a
cron schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.ConfigPath == "" {
				return fmt.Errorf("no configuration file specified, use --config")
			}
			return runWatch(cmd.Context(), opts.ConfigPath, watch, slog.Default())
		},
	}

	watch.check.bind(cmd)
	flags := cmd.Flags()
	flags.StringVar(&watch.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.StringVar(&watch.ExpirySchedule, "expiry-schedule", tlsclient.DefaultExpirySchedule, "Cron schedule for certificate expiry checks; empty disables them")
	flags.IntVar(&watch.WarningDays, "warning-days", tlsclient.DefaultWarningDays, "Days before expiry that raise a warning")
	flags.IntVar(&watch.CriticalDays, "critical-days", tlsclient.DefaultCriticalDays, "Days before expiry that are critical")
	flags.StringVar(&watch.OTLPEndpoint, "otlp-endpoint", "", "OTLP/gRPC endpoint for traces")
	flags.BoolVar(&watch.OTLPInsecure, "otlp-insecure", false, "Connect to the OTLP endpoint without TLS")
	flags.StringVar(&watch.Environment, "environment", "", "Deployment environment reported with telemetry")
	return cmd
}

func runWatch(ctx context.Context, path string, opts *watchOptions, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	telemetryCfg := telemetry.Config{
		ServiceName:    "sslopts",
		ServiceVersion: version,
		Endpoint:       opts.OTLPEndpoint,
		Environment:    opts.Environment,
		Insecure:       opts.OTLPInsecure,
	}
	shutdownMetrics, err := telemetry.SetupMetrics(ctx, telemetryCfg, registry)
	if err != nil {
		return err
	}
	shutdownTracing, err := telemetry.SetupProvider(ctx, telemetryCfg)
	if err != nil {
		_ = shutdownMetrics(ctx)
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := telemetry.Combine(shutdownTracing, shutdownMetrics)(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	collector, err := tlsclient.NewTLSMetricsCollector(otel.GetMeterProvider(), logger)
	if err != nil {
		return err
	}

	provider, err := config.NewFileProvider(path,
		config.WithLogger(logger),
		config.WithMetrics(config.NewReloadMetrics(registry)),
	)
	if err != nil {
		return err
	}
	defer func() { _ = provider.Close() }()

	clientOpts := append(opts.check.clientOptions(), tlsclient.WithLogger(logger), tlsclient.WithMetrics(collector))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return applySnapshots(gctx, provider.Subscribe(), logger, clientOpts)
	})

	if opts.ExpirySchedule != "" {
		monitor, err := tlsclient.NewExpiryMonitor(
			func() ssl.Config { return provider.Current().Config },
			opts.ExpirySchedule,
			tlsclient.WithMonitorLogger(logger),
			tlsclient.WithMonitorMetrics(collector),
			tlsclient.WithThresholds(opts.WarningDays, opts.CriticalDays),
		)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := monitor.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			monitor.Stop()
			return nil
		})
	}

	if opts.MetricsAddr != "" {
		server := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           newMetricsHandler(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Serving metrics", "addr", opts.MetricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	logger.Info("Watching TLS options", "path", path, "profile", ssl.Current().Profile)
	err = g.Wait()
	logger.Info("Watch stopped")
	return err
}

// applySnapshots translates every snapshot published on updates until ctx
// ends or the channel closes. Translation failures are logged, not returned.
func applySnapshots(ctx context.Context, updates <-chan config.Snapshot, logger *slog.Logger, opts []tlsclient.ClientOption) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			applySnapshot(ctx, snap, logger, opts)
		}
	}
}

func applySnapshot(ctx context.Context, snap config.Snapshot, logger *slog.Logger, opts []tlsclient.ClientOption) *tlsclient.Report {
	log := logger.With(
		"snapshot_id", snap.ID.String(),
		"generation", snap.Generation,
		"checksum", snap.Checksum,
	)

	_, report, err := tlsclient.BuildClient(ctx, snap.Config, opts...)
	if err != nil {
		log.Error("TLS options rejected", "error", err)
		return nil
	}

	log.Info("TLS options applied",
		"min_version", report.MinVersion,
		"max_version", report.MaxVersion,
		"root_source", report.RootSource,
		"checks", report.Checks,
		"ignored", len(report.Ignored),
	)
	return report
}

func newMetricsHandler(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
