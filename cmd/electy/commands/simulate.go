package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/Lord-Y/electy"
	"github.com/Lord-Y/electy/logger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

// simulation holds the flags of the simulate command
type simulation struct {
	Logger *zerolog.Logger

	// Peers is the number of peers of the cluster
	Peers int

	// Ticks is the number of ticks to run
	Ticks int

	// PingInterval is the ping interval of every peer
	PingInterval uint64

	// Drop is the probability to drop a message
	Drop float64

	// Seed of the random generator dropping messages
	Seed uint64

	// LedgerDir is the directory of the bolt ledger, in memory when empty
	LedgerDir string

	// GRPC runs nodes behind grpc servers instead of the deterministic network
	GRPC bool

	// TickInterval is the tick interval of grpc nodes
	TickInterval time.Duration

	// Output is where the report is written
	Output io.Writer
}

func Simulate() *cli.Command {
	var app simulation

	return &cli.Command{
		Name:  "simulate",
		Usage: "Run a simulated election cluster",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "peers",
				Aliases:     []string{"p"},
				Value:       3,
				Usage:       "Number of peers in the cluster",
				Destination: &app.Peers,
			},
			&cli.IntFlag{
				Name:        "ticks",
				Aliases:     []string{"t"},
				Value:       100,
				Usage:       "Number of ticks to run",
				Destination: &app.Ticks,
			},
			&cli.Uint64Flag{
				Name:        "ping-interval",
				Value:       electy.DefaultPingInterval,
				Usage:       "Ticks between heartbeats and before re-election",
				Destination: &app.PingInterval,
			},
			&cli.FloatFlag{
				Name:        "drop",
				Value:       0,
				Usage:       "Probability to drop each message, between 0 and 1",
				Destination: &app.Drop,
			},
			&cli.Uint64Flag{
				Name:        "seed",
				Value:       1,
				Usage:       "Seed of the random generator dropping messages",
				Destination: &app.Seed,
			},
			&cli.StringFlag{
				Name:        "ledger",
				Usage:       "Directory of the bolt ledger recording leaders, in memory when empty",
				Destination: &app.LedgerDir,
			},
			&cli.BoolFlag{
				Name:        "grpc",
				Usage:       "Run peers behind grpc servers connected through in memory listeners",
				Destination: &app.GRPC,
			},
			&cli.DurationFlag{
				Name:        "tick-interval",
				Value:       5 * time.Millisecond,
				Usage:       "Tick interval of grpc nodes",
				Destination: &app.TickInterval,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app.Logger = logger.NewLogger()
			app.Output = cmd.Root().Writer
			if app.Output == nil {
				app.Output = os.Stdout
			}
			return app.run(ctx)
		},
	}
}

func (s *simulation) run(ctx context.Context) error {
	if s.Peers < 1 {
		return errors.Errorf("peers must be greater than 0, got %d", s.Peers)
	}
	if s.Drop < 0 || s.Drop > 1 {
		return errors.Errorf("drop must be between 0 and 1, got %f", s.Drop)
	}

	ledger, err := s.newLedger()
	if err != nil {
		return err
	}
	defer func() {
		_ = ledger.Close()
	}()

	registry := prometheus.NewRegistry()
	ids := make([]string, 0, s.Peers)
	for i := range s.Peers {
		ids = append(ids, fmt.Sprintf("peer-%d", i+1))
	}

	if s.GRPC {
		err = s.runLoopback(ctx, ids, ledger, registry)
	} else {
		err = s.runDeterministic(ids, ledger, registry)
	}
	if err != nil {
		return err
	}
	return s.report(ledger, registry)
}

func (s *simulation) newLedger() (electy.Ledger, error) {
	if s.LedgerDir == "" {
		return electy.NewMemoryLedger(), nil
	}
	return electy.NewBoltLedger(electy.LedgerBoltOptions{DataDir: s.LedgerDir})
}

func (s *simulation) runDeterministic(ids []string, ledger electy.Ledger, registry *prometheus.Registry) error {
	sim := electy.NewSimulation(ids, electy.SimulationOptions{
		Logger:            s.Logger,
		PingInterval:      s.PingInterval,
		Ledger:            ledger,
		Rand:              rand.New(rand.NewPCG(s.Seed, s.Seed)),
		MetricsRegisterer: registry,
	})
	if s.Drop > 0 {
		for _, from := range ids {
			for _, to := range ids {
				if from != to {
					sim.DropRate(from, to, s.Drop)
				}
			}
		}
	}

	if err := sim.Run(s.Ticks); err != nil {
		return err
	}
	delivered, dropped := sim.Delivered()
	s.Logger.Info().
		Uint64("delivered", delivered).
		Uint64("dropped", dropped).
		Msgf("Deterministic simulation done")
	return nil
}

func (s *simulation) runLoopback(ctx context.Context, ids []string, ledger electy.Ledger, registry *prometheus.Registry) error {
	cluster := electy.NewLoopbackCluster(ids, electy.LoopbackClusterOptions{
		Logger:            s.Logger,
		TickInterval:      s.TickInterval,
		PingInterval:      s.PingInterval,
		StartDelay:        s.TickInterval * 2,
		Ledger:            ledger,
		MetricsRegisterer: registry,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := cluster.Start(ctx); err != nil {
		return err
	}
	defer cluster.Stop()

	ticker := time.NewTicker(s.TickInterval)
	defer ticker.Stop()
	for range s.Ticks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := cluster.Observe(ctx); err != nil {
				return err
			}
		}
	}
	s.Logger.Info().Msgf("Loopback simulation done")
	return nil
}

// report writes leaders per epoch and metrics summary to the output
func (s *simulation) report(ledger electy.Ledger, registry *prometheus.Registry) error {
	epochs, err := ledger.Epochs()
	if err != nil {
		return err
	}
	for _, epoch := range epochs {
		leader, _, err := ledger.Leader(epoch)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(s.Output, "epoch %d leader %s\n", epoch, leader); err != nil {
			return err
		}
	}

	families, err := registry.Gather()
	if err != nil {
		return err
	}
	for _, family := range families {
		var total float64
		for _, metric := range family.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				total += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				total += metric.GetGauge().GetValue()
			}
		}
		s.Logger.Debug().
			Str("metric", family.GetName()).
			Float64("total", total).
			Msgf("Metrics summary")
	}
	return nil
}
