package electy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

const (
	// defaultRPCTimeout is the default timeout of a Deliver rpc
	defaultRPCTimeout = 200 * time.Millisecond
)

// GRPCTransportOptions holds config of the grpc transport
type GRPCTransportOptions struct {
	// ID of the current peer, stamped on every message
	ID string

	// Peers maps every other peer id to its grpc address
	Peers map[string]string

	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// RPCTimeout is the timeout of every Deliver rpc.
	// Default to 200ms
	RPCTimeout time.Duration

	// DialOptions are appended to default dial options
	DialOptions []grpc.DialOption
}

// GRPCTransport delivers messages to peers with the Deliver rpc.
// Each message is sent asynchronously, failures are only logged
type GRPCTransport struct {
	wg sync.WaitGroup

	// mu is used to ensure lock concurrency
	mu sync.Mutex

	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	options GRPCTransportOptions

	connectionManager *connectionManager

	// quitCtx will be used to cancel in flight rpcs
	quitCtx context.Context
	stopCtx context.CancelFunc

	closed bool
}

// NewGRPCTransport returns a transport sending messages to options.Peers
func NewGRPCTransport(options GRPCTransportOptions) *GRPCTransport {
	if options.RPCTimeout <= 0 {
		options.RPCTimeout = defaultRPCTimeout
	}
	if options.Logger == nil {
		nop := zerolog.Nop()
		options.Logger = &nop
	}

	t := &GRPCTransport{
		Logger:            options.Logger,
		options:           options,
		connectionManager: newConnectionManager(options.ID, options.Logger, options.DialOptions),
	}
	t.quitCtx, t.stopCtx = context.WithCancel(context.Background())
	return t
}

// Send sends msg to peer to without waiting for the result
func (t *GRPCTransport) Send(to string, msg Message) {
	address, ok := t.options.Peers[to]
	if !ok {
		t.Logger.Debug().Err(ErrUnknownPeer).
			Str("id", t.options.ID).
			Str("peerId", to).
			Msgf("Dropping message %s", msg)
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		client := t.connectionManager.getClient(address)
		if client == nil {
			return
		}

		ctx, cancel := context.WithTimeout(t.quitCtx, t.options.RPCTimeout)
		defer cancel()
		envelope := Envelope[string]{From: t.options.ID, To: to, Message: msg}
		if err := deliver(ctx, client, envelope); err != nil {
			t.Logger.Debug().Err(err).
				Str("id", t.options.ID).
				Str("peerId", to).
				Str("peerAddress", address).
				Str("message", fmt.Sprint(msg)).
				Msgf("Fail to deliver message to peer")
		}
	}()
}

// Close cancels in flight rpcs and disconnects from all peers
func (t *GRPCTransport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	t.stopCtx()
	t.wg.Wait()
	t.connectionManager.disconnectAllPeers()
}
