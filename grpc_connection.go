package electy

import (
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// connectionManager is used to manage all grpc connections to peers.
// It is used to ensure that we have only one connection per peer
// and to handle the lifecycle of these connections
type connectionManager struct {
	// mu is used to ensure lock concurrency
	mu sync.Mutex

	// connections hold gprc server connection for all peers
	connections map[string]*grpc.ClientConn

	// Logger expose zerolog so it can be override
	logger *zerolog.Logger

	// id of the current peer
	id string

	// dialOptions are appended to default dial options
	dialOptions []grpc.DialOption

	// closed is set to true once all peers got disconnected
	closed bool
}

func newConnectionManager(id string, logger *zerolog.Logger, dialOptions []grpc.DialOption) *connectionManager {
	return &connectionManager{
		connections: make(map[string]*grpc.ClientConn),
		logger:      logger,
		id:          id,
		dialOptions: dialOptions,
	}
}

// getClient return the connection to address.
// nil is returned when the manager is closed or the connection cannot be created
func (r *connectionManager) getClient(address string) *grpc.ClientConn {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	if conn, ok := r.connections[address]; ok {
		return conn
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
	opts = append(opts, r.dialOptions...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		r.logger.Error().Err(err).
			Str("id", r.id).
			Str("peerAddress", address).
			Msgf("Fail to create grpc client")
		return nil
	}
	r.connections[address] = conn
	return conn
}

// disconnectAllPeers permits to disconnect to all grpc servers
// from which this client is connected to
func (r *connectionManager) disconnectAllPeers() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for address, connection := range r.connections {
		_ = connection.Close()
		delete(r.connections, address)
	}
	r.closed = true
}
