package electy

import (
	"math/rand/v2"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// SimulationOptions holds config of a simulated cluster
type SimulationOptions struct {
	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// PingInterval is the ping interval of every peer.
	// Default to DefaultPingInterval
	PingInterval uint64

	// Ledger records leaders observed during the simulation.
	// Default to a MemoryLedger
	Ledger Ledger

	// Rand is used to drop, duplicate and reorder messages.
	// Default to a generator seeded with 1
	Rand *rand.Rand

	// Reorder delivers a random pending message instead of the oldest one
	Reorder bool

	// DuplicateRate is the probability for every message to be delivered twice
	DuplicateRate float64

	// MetricsRegisterer is the prometheus registerer used by every peer
	MetricsRegisterer prometheus.Registerer
}

// connection is a directed link between two peers
type connection[P comparable] struct {
	from, to P
}

// Simulation is a deterministic in process cluster.
// All peers share a manual clock and a single FIFO network.
// It is not safe for concurrent use
type Simulation[P comparable] struct {
	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	options SimulationOptions

	clock *ManualClock

	// ids holds all peers in creation order
	ids []P

	peers map[P]*ElectionPeer[P]

	// queue holds messages waiting to be delivered
	queue []Envelope[P]

	// dropRates holds the probability to drop a message per connection
	dropRates map[connection[P]]float64

	ledger Ledger

	delivered uint64
	dropped   uint64
}

// simulationTransport enqueues messages on the simulated network
type simulationTransport[P comparable] struct {
	from       P
	simulation *Simulation[P]
}
