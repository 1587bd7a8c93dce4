package electy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	// DefaultPingInterval is the default number of ticks used both by the leader
	// to send heartbeats and by other peers to start a new election campaign
	DefaultPingInterval uint64 = 8
)

// Clock supplies the current logical time
type Clock interface {
	// Time returns the current logical time
	Time() uint64
}

// Transport delivers a message to a peer.
// Delivery is best effort and failures are invisible to the caller
type Transport[P comparable] interface {
	// Send sends msg to the peer
	Send(to P, msg Message)
}

// Options holds config that will be modified by users
type Options[P comparable] struct {
	// ID is the identity of the current peer.
	// It's only used in logs and metrics
	ID P

	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// PingInterval is used by the leader to send heartbeats
	// and by other peers to detect that the leader or the election is stale.
	// There is no randomization on purpose, simultaneous timeouts can lead to split votes.
	// Default to DefaultPingInterval
	PingInterval uint64

	// MetricsRegisterer is the prometheus registerer to use.
	// When nil, metrics are still collected but never registered
	MetricsRegisterer prometheus.Registerer

	// MetricsNamespacePrefix is the namespace to use for all metrics.
	// When set, the full metric name will be `<MetricsNamespacePrefix>_electy_<metric_name>`.
	// Otherwise it will be `electy_<metric_name>`.
	MetricsNamespacePrefix string
}

// ElectionPeer is the election state machine of a single peer.
// It is not safe for concurrent use, calls to Receive and Tick
// must be serialized by the caller
type ElectionPeer[P comparable] struct {
	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// options are configuration options
	options Options[P]

	// id of the current peer, only used for logs and metrics
	id string

	// state is the current state of the peer
	state PeerState[P]

	// peers holds all other peers of the cluster
	peers []P

	// epoch is the current election term
	epoch uint64

	clock     Clock
	transport Transport[P]

	// metrics holds prometheus collectors
	metrics *metrics
}
