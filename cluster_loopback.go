package electy

import (
	"context"
	"net"
	"slices"
	"time"

	"github.com/Lord-Y/electy/logger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const (
	// bufconnSize is the buffer size of every loopback listener
	bufconnSize = 1024 * 1024
)

// LoopbackClusterOptions holds config of a loopback cluster
type LoopbackClusterOptions struct {
	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// TickInterval is the tick interval of every node.
	// It's also the resolution of every node clock
	TickInterval time.Duration

	// PingInterval is the ping interval of every peer
	PingInterval uint64

	// StartDelay is the delay between the start of two nodes.
	// As timeouts are not randomized, starting all nodes at once
	// makes split votes likely
	StartDelay time.Duration

	// Ledger records leaders observed. Default to a MemoryLedger
	Ledger Ledger

	// MetricsRegisterer is the prometheus registerer used by every peer
	MetricsRegisterer prometheus.Registerer
}

// LoopbackCluster runs grpc election servers talking to each other
// through in memory listeners. No socket is ever opened
type LoopbackCluster struct {
	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	options LoopbackClusterOptions

	ids       []string
	servers   map[string]*Server
	listeners map[string]*bufconn.Listener
}

// NewLoopbackCluster instantiate a server per id
func NewLoopbackCluster(ids []string, options LoopbackClusterOptions) *LoopbackCluster {
	if options.Logger == nil {
		options.Logger = logger.NewLogger()
	}
	if options.Ledger == nil {
		options.Ledger = NewMemoryLedger()
	}
	if options.TickInterval <= 0 {
		options.TickInterval = defaultTickInterval
	}

	c := &LoopbackCluster{
		Logger:    options.Logger,
		options:   options,
		ids:       slices.Clone(ids),
		servers:   make(map[string]*Server, len(ids)),
		listeners: make(map[string]*bufconn.Listener, len(ids)),
	}

	addresses := make(map[string]string, len(ids))
	for _, id := range ids {
		c.listeners[id] = bufconn.Listen(bufconnSize)
		addresses[id] = "passthrough:///" + id
	}

	dialer := grpc.WithContextDialer(func(ctx context.Context, address string) (net.Conn, error) {
		listener, ok := c.listeners[address]
		if !ok {
			return nil, errors.Wrap(ErrUnknownPeer, address)
		}
		return listener.DialContext(ctx)
	})

	for _, id := range ids {
		c.servers[id] = NewServer(ServerOptions{
			ID:     id,
			Peers:  addresses,
			Logger: options.Logger,
			NodeOptions: NodeOptions[string]{
				Options: Options[string]{
					PingInterval:      options.PingInterval,
					MetricsRegisterer: options.MetricsRegisterer,
				},
				TickInterval: options.TickInterval,
			},
			DialOptions: []grpc.DialOption{dialer},
		})
	}
	return c
}

// Start starts every server, waiting StartDelay between two of them
func (c *LoopbackCluster) Start(ctx context.Context) error {
	for index, id := range c.ids {
		if index > 0 && c.options.StartDelay > 0 {
			select {
			case <-time.After(c.options.StartDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := c.servers[id].Start(ctx, c.listeners[id]); err != nil {
			return errors.Wrapf(err, "fail to start server %s", id)
		}
	}
	return nil
}

// Stop stops every server
func (c *LoopbackCluster) Stop() {
	for _, id := range c.ids {
		c.servers[id].Stop()
	}
}

// Server returns the server of id
func (c *LoopbackCluster) Server(id string) (*Server, bool) {
	server, ok := c.servers[id]
	return server, ok
}

// Statuses returns the status of every running server in creation order
func (c *LoopbackCluster) Statuses(ctx context.Context) []Status[string] {
	statuses := make([]Status[string], 0, len(c.ids))
	for _, id := range c.ids {
		status, err := c.servers[id].Status(ctx)
		if err != nil {
			continue
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Observe records every current leader in the ledger
func (c *LoopbackCluster) Observe(ctx context.Context) error {
	for _, status := range c.Statuses(ctx) {
		if status.Role != Leader {
			continue
		}
		if err := c.options.Ledger.Record(status.Epoch, status.ID); err != nil {
			return err
		}
	}
	return nil
}

// Ledger returns the ledger recording leaders
func (c *LoopbackCluster) Ledger() Ledger {
	return c.options.Ledger
}
