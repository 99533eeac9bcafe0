// Package gateway wires the upstream clients, the stats service, the
// optional dashboard cache and the HTTP servers into one managed
// service.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tronmegateam/statsgate/internal/coingecko"
	"github.com/tronmegateam/statsgate/internal/health"
	"github.com/tronmegateam/statsgate/internal/server"
	"github.com/tronmegateam/statsgate/internal/stats"
	"github.com/tronmegateam/statsgate/internal/trongrid"
	"github.com/tronmegateam/statsgate/internal/tronscan"
)

// Gateway is the top-level orchestrator for statsgate.
type Gateway interface {
	// Start initializes all components and begins serving.
	Start(ctx context.Context) error
	// Stop shuts down all components gracefully.
	Stop() error
}

type gateway struct {
	log     logrus.FieldLogger
	cfg     *Config
	metrics *health.Metrics
	server  *server.Server

	cancel context.CancelFunc
}

// New creates a new Gateway.
func New(log logrus.FieldLogger, cfg *Config) (Gateway, error) {
	metrics := health.New(log, cfg.Health)

	explorer := tronscan.NewClient(log, cfg.Tronscan, metrics)
	prices := coingecko.NewClient(log, cfg.Coingecko, metrics)
	nodes := trongrid.NewClient(log, cfg.Trongrid, metrics)

	statsService := stats.New(log, explorer, prices, metrics)
	cache := server.NewDashboardCache(log, cfg.Server.Cache, metrics)

	srv, err := server.New(
		log, cfg.Server, statsService, explorer, nodes, cache, metrics,
	)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	return &gateway{
		log:     log.WithField("component", "gateway"),
		cfg:     cfg,
		metrics: metrics,
		server:  srv,
	}, nil
}

func (g *gateway) Start(ctx context.Context) error {
	ctx, g.cancel = context.WithCancel(ctx)

	// 1. Start health metrics server.
	if err := g.metrics.Start(ctx); err != nil {
		return fmt.Errorf("starting health metrics: %w", err)
	}

	g.log.Info("Health metrics server started")

	// 2. Start the gateway API.
	if err := g.server.Start(ctx); err != nil {
		return fmt.Errorf("starting gateway server: %w", err)
	}

	g.log.WithField("addr", g.server.Addr()).Info("Gateway serving")

	return nil
}

func (g *gateway) Stop() error {
	g.log.Info("Stopping gateway")

	if g.cancel != nil {
		g.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := g.server.Stop(ctx); err != nil {
		g.log.WithError(err).Warn("Failed to stop gateway server")
	}

	if err := g.metrics.Stop(); err != nil {
		g.log.WithError(err).Warn("Failed to stop health metrics server")
	}

	g.log.Info("Gateway stopped")

	return nil
}
