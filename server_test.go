package electy

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestServer_new(t *testing.T) {
	assert := assert.New(t)

	s := NewServer(ServerOptions{Logger: nopLogger()})
	assert.NotEmpty(s.ID())
	assert.Error(s.Start(context.Background(), nil))

	s = NewServer(ServerOptions{
		ID:     "a",
		Logger: nopLogger(),
		Peers:  map[string]string{"a": "passthrough:///a", "b": "passthrough:///b"},
	})
	assert.Equal("a", s.ID())
	assert.Equal([]string{"b"}, s.node.peer.Peers())
}

func TestServer_rpc_errors(t *testing.T) {
	assert := assert.New(t)
	s := NewServer(ServerOptions{
		ID:          "a",
		Logger:      nopLogger(),
		NodeOptions: NodeOptions[string]{InboxSize: 1},
	})
	rpc := &rpcManager{server: s}
	ctx := context.Background()

	_, err := rpc.Deliver(ctx, &deliverRequest{Envelope: Envelope[string]{From: "b", To: "c", Message: NewPing(1)}})
	assert.Equal(codes.InvalidArgument, status.Code(err))

	_, err = rpc.Deliver(ctx, &deliverRequest{Envelope: Envelope[string]{From: "b", To: "a", Message: NewPing(1)}})
	assert.NoError(err)

	_, err = rpc.Deliver(ctx, &deliverRequest{Envelope: Envelope[string]{From: "b", To: "a", Message: NewPing(1)}})
	assert.Equal(codes.ResourceExhausted, status.Code(err))

	s.node.Stop()
	_, err = rpc.Deliver(ctx, &deliverRequest{Envelope: Envelope[string]{From: "b", To: "a", Message: NewPing(1)}})
	assert.Equal(codes.Unavailable, status.Code(err))
}

func TestServer_deliver(t *testing.T) {
	assert := assert.New(t)
	listener := bufconn.Listen(bufconnSize)
	s := NewServer(ServerOptions{
		ID:     "a",
		Logger: nopLogger(),
		Clock:  NewManualClock(0),
		NodeOptions: NodeOptions[string]{
			TickInterval: time.Millisecond,
		},
	})
	require.NoError(t, s.Start(context.Background(), listener))
	defer s.Stop()
	assert.Error(s.Start(context.Background(), listener))

	manager := newConnectionManager("b", nopLogger(), []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
	})
	defer manager.disconnectAllPeers()
	client := manager.getClient("passthrough:///a")
	require.NotNil(t, client)
	assert.Same(client, manager.getClient("passthrough:///a"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := deliver(ctx, client, Envelope[string]{From: "b", To: "z", Message: NewPing(1)})
	assert.Equal(codes.InvalidArgument, status.Code(err))

	assert.NoError(deliver(ctx, client, Envelope[string]{From: "b", To: "a", Message: NewPing(3)}))
	assert.Eventually(func() bool {
		st, err := s.Status(ctx)
		return err == nil && st.Role == Follower && st.Leader == "b" && st.Epoch == 3
	}, time.Second, time.Millisecond)
	assert.NoError(s.Err())
}

func TestGRPCTransport_unknown_peer(t *testing.T) {
	transport := NewGRPCTransport(GRPCTransportOptions{ID: "a"})
	transport.Send("b", NewPing(1))
	transport.Close()
	transport.Close()
	transport.Send("b", NewPing(1))
	assert.Nil(t, transport.connectionManager.getClient("passthrough:///b"))
}

func TestWireCodec(t *testing.T) {
	assert := assert.New(t)
	codec := wireCodec{}
	assert.Equal(codecName, codec.Name())

	request := &deliverRequest{Envelope: Envelope[string]{From: "a", To: "b", Message: NewGrantVote(4)}}
	data, err := codec.Marshal(request)
	assert.NoError(err)

	decoded := new(deliverRequest)
	assert.NoError(codec.Unmarshal(data, decoded))
	assert.Equal(request, decoded)

	data, err = codec.Marshal(&deliverResponse{})
	assert.NoError(err)
	assert.Empty(data)
	assert.NoError(codec.Unmarshal(data, new(deliverResponse)))

	_, err = codec.Marshal("a")
	assert.Error(err)
	assert.Error(codec.Unmarshal(nil, new(string)))
	assert.ErrorIs(codec.Unmarshal([]byte{0xff}, new(deliverRequest)), ErrMalformedMessage)
}

func TestLoopbackCluster(t *testing.T) {
	assert := assert.New(t)
	ids := []string{"a", "b", "c"}
	cluster := NewLoopbackCluster(ids, LoopbackClusterOptions{
		Logger:            nopLogger(),
		TickInterval:      5 * time.Millisecond,
		StartDelay:        20 * time.Millisecond,
		MetricsRegisterer: prometheus.NewRegistry(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, cluster.Start(ctx))
	defer cluster.Stop()

	_, ok := cluster.Server("z")
	assert.False(ok)

	assert.Eventually(func() bool {
		assert.NoError(cluster.Observe(ctx))
		epochs, err := cluster.Ledger().Epochs()
		return err == nil && len(epochs) > 0
	}, 5*time.Second, 5*time.Millisecond)

	for _, id := range ids {
		server, ok := cluster.Server(id)
		require.True(t, ok)
		assert.NoError(server.Err())
	}
	assert.Len(cluster.Statuses(ctx), len(ids))
}
