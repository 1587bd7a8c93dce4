package electy

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// defaultTickInterval is the default interval between two ticks of a node
	defaultTickInterval = 10 * time.Millisecond

	// defaultInboxSize is the default number of messages a node can queue
	defaultInboxSize = 256
)

// NodeOptions holds config that will be modified by users
type NodeOptions[P comparable] struct {
	// Options are the options of the election peer run by the node
	Options[P]

	// TickInterval is the interval at which the peer is ticked.
	// Default to 10ms
	TickInterval time.Duration

	// InboxSize is the number of messages that can be queued
	// before being handled. Default to 256
	InboxSize int
}

// Node runs an election peer in its own goroutine.
// Messages and ticks are serialized through a single loop
// so the peer is never accessed concurrently
type Node[P comparable] struct {
	wg sync.WaitGroup

	// mu guards Start and Stop
	mu sync.Mutex

	// stopCalled is set to true once Stop has been called
	stopCalled bool

	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// options are configuration options
	options NodeOptions[P]

	// peer is the election peer owned by the loop
	peer *ElectionPeer[P]

	// inbox holds messages waiting to be handled
	inbox chan Envelope[P]

	// statusChan is used to request a status from the loop
	statusChan chan chan Status[P]

	// isRunning is set to true once started and until stopped
	isRunning atomic.Bool

	// stopped is set to true once stopped
	stopped atomic.Bool

	// quitCtx will be used to shutdown the node
	quitCtx context.Context

	// stopCtx is used with quitCtx to shutdown the node
	stopCtx context.CancelFunc

	// done is closed when the loop exited
	done chan struct{}

	// err holds the reason the loop aborted if any
	err atomic.Value
}
