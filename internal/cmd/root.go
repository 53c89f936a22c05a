// Copyright 2026 Erst Users
// SPDX-License-Identifier: Apache-2.0


package cmd

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/dotandev/questrelay/internal/config"
	"github.com/dotandev/questrelay/internal/horizon"
	"github.com/dotandev/questrelay/internal/ledger"
	"github.com/dotandev/questrelay/internal/netretry"
	"github.com/dotandev/questrelay/internal/rpc"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger zerolog.Logger

	traceShutdown func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:           "questrelay",
	Short:         "Build, simulate, submit and confirm Soroban quest transactions",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd)

		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		out := zerolog.New(os.Stderr)
		if isatty.IsTerminal(os.Stderr.Fd()) {
			out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
		}
		logger = out.Level(level).With().Timestamp().Logger()

		if cfg.TraceEndpoint != "" {
			return setupTracing(cmd.Context(), cfg.TraceEndpoint)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if traceShutdown != nil {
			return traceShutdown(cmd.Context())
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default questrelay.yaml in . or ~/.questrelay)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.String("horizon-url", "", "Horizon endpoint override")
	pf.String("rpc-url", "", "Soroban RPC endpoint override")
	pf.String("network-passphrase", "", "network passphrase override")
	pf.String("trace-endpoint", "", "OTLP trace collector endpoint")
	pf.String("journal", "", "submission journal path override")
}

func applyFlagOverrides(cmd *cobra.Command) {
	if v, _ := cmd.Flags().GetString("horizon-url"); v != "" {
		cfg.HorizonURL = v
	}
	if v, _ := cmd.Flags().GetString("rpc-url"); v != "" {
		cfg.RPCURL = v
	}
	if v, _ := cmd.Flags().GetString("network-passphrase"); v != "" {
		cfg.NetworkPassphrase = v
	}
	if v, _ := cmd.Flags().GetString("trace-endpoint"); v != "" {
		cfg.TraceEndpoint = v
	}
	if v, _ := cmd.Flags().GetString("journal"); v != "" {
		cfg.JournalPath = v
	}
}

func setupTracing(ctx context.Context, endpoint string) error {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return err
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("questrelay"),
	))
	if err != nil {
		return err
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	traceShutdown = provider.Shutdown
	return nil
}

// services wires the long-lived client handles for one invocation. They
// are constructed once and passed explicitly, never held as globals by the
// lifecycle packages.
type services struct {
	horizon   *horizon.Client
	node      *rpc.Client
	builder   *ledger.Builder
	simulator *ledger.Simulator
	submitter *ledger.Submitter
}

func newServices() *services {
	retry := netretry.New(cfg.RetryAttempts, cfg.RetryBase, logger)
	h := horizon.NewClient(cfg.HorizonURL, retry, logger)
	node := rpc.NewClient(cfg.RPCURL, retry, logger)
	return &services{
		horizon:   h,
		node:      node,
		builder:   ledger.NewBuilder(h, cfg.BaseFee, logger),
		simulator: ledger.NewSimulator(node, logger),
		submitter: ledger.NewSubmitter(node, h, cfg.PollInterval, cfg.PollAttempts, logger),
	}
}
