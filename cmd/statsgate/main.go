package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tronmegateam/statsgate/internal/gateway"
	"github.com/tronmegateam/statsgate/internal/version"
	"github.com/tronmegateam/statsgate/internal/watch"
)

var (
	cfgFile  string
	logLevel string

	watchURL      string
	watchInterval time.Duration
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statsgate",
		Short: "TRON community stats gateway",
		Long: `statsgate proxies and reshapes public TRON explorer, price and
node directory APIs into a stable statistics surface for the MEGATEAM
landing page, serving static fallback data whenever an upstream
misbehaves.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	cmd.Flags().StringVar(
		&cfgFile, "config", "",
		"path to config file (required)",
	)
	cmd.Flags().StringVar(
		&logLevel, "log-level", "",
		"override log level (debug, info, warn, error)",
	)

	if err := cmd.MarkFlagRequired("config"); err != nil {
		fmt.Fprintf(os.Stderr, "error marking flag required: %v\n", err)
		os.Exit(1)
	}

	cmd.AddCommand(watchCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.FullWithPlatform())
		},
	}
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll a gateway and print the formatted dashboard fields",
		RunE:  runWatch,
	}

	cmd.Flags().StringVar(
		&watchURL, "url", "http://localhost:8080/api/tron/dashboard",
		"dashboard endpoint to poll",
	)
	cmd.Flags().DurationVar(
		&watchInterval, "interval", 30*time.Second,
		"polling interval",
	)
	cmd.Flags().StringVar(
		&logLevel, "log-level", "",
		"override log level (debug, info, warn, error)",
	)

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := gateway.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flag overrides config file.
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", cfg.LogLevel, err)
	}

	log.SetLevel(level)

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	g, err := gateway.New(log, cfg)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	log.Info("Starting statsgate gateway")

	if err := g.Start(ctx); err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}

	<-ctx.Done()

	log.Info("Shutting down statsgate gateway")

	if err := g.Stop(); err != nil {
		log.WithError(err).Error("Error during shutdown")

		return fmt.Errorf("stopping gateway: %w", err)
	}

	log.Info("Shutdown complete")

	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if logLevel != "" {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("parsing log level %q: %w", logLevel, err)
		}

		log.SetLevel(level)
	}

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	fetcher := watch.NewFetcher(log, watchInterval)
	board := watch.NewBoard()
	poller := watch.NewPoller(
		log, fetcher, watchURL, watchInterval, nil, board,
	)

	go poller.Run(ctx)

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	printBoard := func() {
		fields := board.Fields()

		entry := log.WithField("component", "watch")
		for field, value := range fields {
			entry = entry.WithField(field, value)
		}

		entry.Info("Dashboard")
	}

	// Give the first poll a moment to land before printing.
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(2 * time.Second):
		printBoard()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			printBoard()
		}
	}
}
