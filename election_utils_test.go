package electy

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// nopLogger is only a helper for other unit testing
func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// basicPeerSetup is only a helper for other unit testing.
// It returns a peer "a" in a cluster made of a, b and c
func basicPeerSetup() (*ElectionPeer[string], *ManualClock, *RecordingTransport[string]) {
	return peerSetup("a", []string{"b", "c"})
}

func peerSetup(id string, peers []string) (*ElectionPeer[string], *ManualClock, *RecordingTransport[string]) {
	clock := NewManualClock(0)
	transport := NewRecordingTransport(id)
	peer := NewElectionPeer(peers, clock, transport, Options[string]{
		ID:     id,
		Logger: nopLogger(),
	})
	return peer, clock, transport
}

// electPeer makes peer the leader of the next epoch
// by granting votes from all its peers
func electPeer(t *testing.T, peer *ElectionPeer[string], clock *ManualClock) {
	clock.Advance(DefaultPingInterval + 1)
	peer.Tick()
	for _, p := range peer.Peers() {
		peer.Receive(p, NewGrantVote(peer.Epoch()))
	}
	assert.Equal(t, Leader, peer.Role())
}

// assertPanicsWithError checks that f panics with an error wrapping target
func assertPanicsWithError(t *testing.T, target error, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if !assert.NotNil(t, r, "function did not panic") {
			return
		}
		err, ok := r.(error)
		if assert.True(t, ok, "panic value is not an error: %v", r) {
			assert.True(t, errors.Is(err, target), "got %v, expected %v", err, target)
		}
	}()
	f()
}

// kinds returns the kinds of all envelopes
func kinds(envelopes []Envelope[string]) []MessageKind {
	result := make([]MessageKind, 0, len(envelopes))
	for _, e := range envelopes {
		result = append(result, e.Message.Kind)
	}
	return result
}

// recipients returns the recipients of all envelopes
func recipients(envelopes []Envelope[string]) []string {
	result := make([]string, 0, len(envelopes))
	for _, e := range envelopes {
		result = append(result, e.To)
	}
	return result
}
