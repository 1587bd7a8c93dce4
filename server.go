package electy

import (
	"context"
	"maps"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Lord-Y/electy/logger"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServerOptions holds config of a grpc server running an election node
type ServerOptions struct {
	// ID of the current peer. A random one is generated when empty
	ID string

	// Peers maps every other peer id to its grpc address
	Peers map[string]string

	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// Clock is the clock used by the election peer.
	// Default to a wall clock ticking every NodeOptions.TickInterval
	Clock Clock

	// NodeOptions are the options of the election node.
	// Its ID and Logger are overridden by the server ones
	NodeOptions NodeOptions[string]

	// RPCTimeout is the timeout of every Deliver rpc
	RPCTimeout time.Duration

	// DialOptions are appended to default dial options
	DialOptions []grpc.DialOption

	// GRPCServerOptions are the options of the grpc server
	GRPCServerOptions []grpc.ServerOption
}

// Server serves the election service and forwards
// every received message to its election node
type Server struct {
	wg sync.WaitGroup

	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// id of the current peer
	id string

	node      *Node[string]
	transport *GRPCTransport

	// grpcServer holds requirements for grpc server
	grpcServer *grpc.Server

	// isRunning is set to true once started and until stopped
	isRunning atomic.Bool
}

// rpcManager holds the requirements for grpc server
type rpcManager struct {
	server *Server
}

// NewServer instantiate a server and its election node
func NewServer(options ServerOptions) *Server {
	if options.ID == "" {
		options.ID = uuid.NewString()
	}
	if options.Logger == nil {
		options.Logger = logger.NewLogger()
	}
	if options.NodeOptions.TickInterval <= 0 {
		options.NodeOptions.TickInterval = defaultTickInterval
	}
	if options.Clock == nil {
		options.Clock = NewWallClock(options.NodeOptions.TickInterval)
	}

	peers := maps.Clone(options.Peers)
	delete(peers, options.ID)

	transport := NewGRPCTransport(GRPCTransportOptions{
		ID:          options.ID,
		Peers:       peers,
		Logger:      options.Logger,
		RPCTimeout:  options.RPCTimeout,
		DialOptions: options.DialOptions,
	})

	nodeOptions := options.NodeOptions
	nodeOptions.ID = options.ID
	nodeOptions.Logger = options.Logger

	s := &Server{
		Logger:     options.Logger,
		id:         options.ID,
		node:       NewNode(slices.Sorted(maps.Keys(peers)), options.Clock, transport, nodeOptions),
		transport:  transport,
		grpcServer: grpc.NewServer(options.GRPCServerOptions...),
	}
	s.grpcServer.RegisterService(&electionServiceDesc, &rpcManager{server: s})
	return s
}

// ID returns the id of the server
func (s *Server) ID() string {
	return s.id
}

// Start starts the election node and serves the election
// service on listener until Stop is called
func (s *Server) Start(ctx context.Context, listener net.Listener) error {
	if listener == nil {
		return errors.New("listener cannot be nil")
	}
	if !s.isRunning.CompareAndSwap(false, true) {
		return errors.New("server already started")
	}

	s.node.Start(ctx)
	s.Logger.Info().
		Str("id", s.id).
		Str("address", listener.Addr().String()).
		Msgf("Starting gRPC server")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.Logger.Error().Err(err).
				Str("id", s.id).
				Msgf("Fail to serve gRPC server")
		}
	}()
	return nil
}

// Stop permits to stop the grpc server, the election node and the transport
func (s *Server) Stop() {
	if !s.isRunning.CompareAndSwap(true, false) {
		return
	}
	s.node.Stop()
	s.transport.Close()
	s.grpcServer.GracefulStop()
	s.wg.Wait()
	s.Logger.Info().Str("id", s.id).Msg("Stopping gRPC server successful")
}

// Status returns a snapshot of the election peer
func (s *Server) Status(ctx context.Context) (Status[string], error) {
	return s.node.Status(ctx)
}

// Err returns the error that aborted the election node if any
func (s *Server) Err() error {
	return s.node.Err()
}

func (r *rpcManager) Deliver(ctx context.Context, in *deliverRequest) (*deliverResponse, error) {
	if in.To != r.server.id {
		return nil, status.Errorf(codes.InvalidArgument, "message addressed to %s delivered to %s", in.To, r.server.id)
	}

	switch err := r.server.node.Deliver(in.From, in.Message); {
	case errors.Is(err, ErrShutdown):
		return nil, status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrInboxFull):
		return nil, status.Error(codes.ResourceExhausted, err.Error())
	case err != nil:
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &deliverResponse{}, nil
}
