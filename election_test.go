package electy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewElectionPeer(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := basicPeerSetup()

	assert.Equal(InitState[string]{Since: 0}, peer.State())
	assert.Equal(Init, peer.Role())
	assert.Equal(uint64(0), peer.Epoch())
	assert.Equal([]string{"b", "c"}, peer.Peers())
	assert.Equal(1, peer.Quorum())
	assert.Equal(DefaultPingInterval, peer.options.PingInterval)
	assert.Equal(0, transport.Len())

	clock.Set(42)
	other := NewElectionPeer([]string{"a"}, clock, transport, Options[string]{Logger: nopLogger(), PingInterval: 3})
	assert.Equal(InitState[string]{Since: 42}, other.State())
	assert.Equal(uint64(3), other.options.PingInterval)
}

func TestReceive_requestVotes_higher_epoch(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := basicPeerSetup()
	clock.Set(5)

	peer.Receive("b", NewRequestVotes(3))
	assert.Equal(uint64(3), peer.Epoch())
	assert.Equal(FollowerState[string]{Leader: "b", LastPingRx: 5}, peer.State())
	assert.Equal([]Envelope[string]{{From: "a", To: "b", Message: NewGrantVote(3)}}, transport.Drain())
}

func TestReceive_requestVotes_stale_is_idempotent(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := basicPeerSetup()
	peer.Receive("b", NewRequestVotes(4))
	transport.Drain()
	before := peer.State()
	clock.Advance(3)

	for range 2 {
		peer.Receive("c", NewRequestVotes(2))
		assert.Equal(uint64(4), peer.Epoch())
		assert.Equal(before, peer.State())
		assert.Equal(0, transport.Len())
	}

	// same epoch is stale as well, only one vote per epoch
	peer.Receive("c", NewRequestVotes(4))
	assert.Equal(before, peer.State())
	assert.Equal(0, transport.Len())
}

func TestReceive_requestVotes_steps_down_leader(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := basicPeerSetup()
	electPeer(t, peer, clock)
	transport.Drain()

	peer.Receive("c", NewRequestVotes(2))
	assert.Equal(Follower, peer.Role())
	assert.Equal(uint64(2), peer.Epoch())
	assert.Equal([]MessageKind{GrantVote}, kinds(transport.Drain()))
}

func TestReceive_grantVote(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := basicPeerSetup()
	clock.Set(9)
	peer.Tick()
	assert.Equal(Candidate, peer.Role())
	transport.Drain()

	// wrong epochs are ignored
	peer.Receive("b", NewGrantVote(0))
	peer.Receive("b", NewGrantVote(2))
	assert.Equal(CandidateState[string]{Since: 9}, peer.State())

	peer.Receive("b", NewGrantVote(1))
	assert.Equal(CandidateState[string]{Since: 9, Votes: []string{"b"}}, peer.State())

	// duplicate votes are counted once
	peer.Receive("b", NewGrantVote(1))
	assert.Equal(CandidateState[string]{Since: 9, Votes: []string{"b"}}, peer.State())
	assert.Equal(0, transport.Len())

	clock.Set(10)
	peer.Receive("c", NewGrantVote(1))
	assert.Equal(LeaderState[string]{LastPingTx: 10}, peer.State())
	assert.Equal(uint64(1), peer.Epoch())

	envelopes := transport.Drain()
	assert.Equal([]MessageKind{Ping, Ping}, kinds(envelopes))
	assert.Equal([]string{"b", "c"}, recipients(envelopes))
	assert.Equal(uint64(1), envelopes[0].Message.Epoch)
}

func TestReceive_grantVote_ignored_when_not_candidate(t *testing.T) {
	assert := assert.New(t)

	// init
	peer, _, transport := basicPeerSetup()
	peer.Receive("b", NewGrantVote(0))
	assert.Equal(InitState[string]{}, peer.State())
	assert.Equal(0, transport.Len())

	// follower
	peer.Receive("b", NewRequestVotes(1))
	transport.Drain()
	peer.Receive("c", NewGrantVote(1))
	assert.Equal(Follower, peer.Role())
	assert.Equal(0, transport.Len())

	// leader
	leader, clock, transport := basicPeerSetup()
	electPeer(t, leader, clock)
	transport.Drain()
	state := leader.State()
	leader.Receive("b", NewGrantVote(1))
	assert.Equal(state, leader.State())
	assert.Equal(0, transport.Len())
}

func TestReceive_ping(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := basicPeerSetup()
	clock.Set(3)

	peer.Receive("b", NewPing(2))
	assert.Equal(uint64(2), peer.Epoch())
	assert.Equal(FollowerState[string]{Leader: "b", LastPingRx: 3}, peer.State())

	// same epoch refreshes the follower
	clock.Set(7)
	peer.Receive("b", NewPing(2))
	assert.Equal(FollowerState[string]{Leader: "b", LastPingRx: 7}, peer.State())

	// stale ping is ignored
	clock.Set(8)
	peer.Receive("c", NewPing(1))
	assert.Equal(FollowerState[string]{Leader: "b", LastPingRx: 7}, peer.State())

	// heartbeats never trigger a reply
	assert.Equal(0, transport.Len())
}

func TestReceive_ping_candidate_steps_down(t *testing.T) {
	assert := assert.New(t)
	peer, clock, _ := basicPeerSetup()
	clock.Set(9)
	peer.Tick()

	peer.Receive("b", NewPing(1))
	assert.Equal(FollowerState[string]{Leader: "b", LastPingRx: 9}, peer.State())
	assert.Equal(uint64(1), peer.Epoch())
}

func TestReceive_ping_dethrones_leader_with_higher_epoch(t *testing.T) {
	assert := assert.New(t)
	peer, clock, _ := basicPeerSetup()
	electPeer(t, peer, clock)

	peer.Receive("c", NewPing(2))
	assert.Equal(FollowerState[string]{Leader: "c", LastPingRx: clock.Time()}, peer.State())
	assert.Equal(uint64(2), peer.Epoch())
}

func TestReceive_ping_invariant_leader_same_epoch(t *testing.T) {
	peer, clock, _ := basicPeerSetup()
	electPeer(t, peer, clock)

	assertPanicsWithError(t, ErrLeaderSameEpochPing, func() {
		peer.Receive("b", NewPing(1))
	})
}

func TestReceive_ping_invariant_candidate_holding_majority(t *testing.T) {
	peer, clock, _ := basicPeerSetup()
	clock.Set(9)
	peer.Tick()
	peer.state = CandidateState[string]{Since: 9, Votes: []string{"b", "c"}}

	assertPanicsWithError(t, ErrCandidateHoldsMajority, func() {
		peer.Receive("b", NewPing(1))
	})
}

func TestReceive_unknown_kind(t *testing.T) {
	assert := assert.New(t)
	peer, _, transport := basicPeerSetup()

	peer.Receive("b", Message{Kind: MessageKind(42), Epoch: 7})
	assert.Equal(InitState[string]{}, peer.State())
	assert.Equal(uint64(0), peer.Epoch())
	assert.Equal(0, transport.Len())
}

func TestTick_init(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := basicPeerSetup()

	clock.Set(8)
	peer.Tick()
	assert.Equal(Init, peer.Role())
	assert.Equal(0, transport.Len())

	clock.Set(9)
	peer.Tick()
	assert.Equal(CandidateState[string]{Since: 9}, peer.State())
	assert.Equal(uint64(1), peer.Epoch())
	envelopes := transport.Drain()
	assert.Equal([]Envelope[string]{
		{From: "a", To: "b", Message: NewRequestVotes(1)},
		{From: "a", To: "c", Message: NewRequestVotes(1)},
	}, envelopes)
}

func TestTick_candidate_restarts_election(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := basicPeerSetup()
	clock.Set(9)
	peer.Tick()
	peer.Receive("b", NewGrantVote(1))
	transport.Drain()

	clock.Set(17)
	peer.Tick()
	assert.Equal(uint64(1), peer.Epoch())
	assert.Equal(0, transport.Len())

	clock.Set(18)
	peer.Tick()
	assert.Equal(CandidateState[string]{Since: 18}, peer.State())
	assert.Equal(uint64(2), peer.Epoch())
	assert.Equal([]MessageKind{RequestVotes, RequestVotes}, kinds(transport.Drain()))
}

func TestTick_follower_timeout(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := basicPeerSetup()
	clock.Set(2)
	peer.Receive("b", NewPing(5))

	clock.Set(10)
	peer.Tick()
	assert.Equal(Follower, peer.Role())

	clock.Set(11)
	peer.Tick()
	assert.Equal(Candidate, peer.Role())
	assert.Equal(uint64(6), peer.Epoch())
	assert.Equal([]MessageKind{RequestVotes, RequestVotes}, kinds(transport.Drain()))
}

func TestTick_leader_heartbeats(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := basicPeerSetup()
	electPeer(t, peer, clock)
	transport.Drain()
	elected := clock.Time()

	clock.Set(elected + DefaultPingInterval)
	peer.Tick()
	assert.Equal(0, transport.Len())

	clock.Set(elected + DefaultPingInterval + 1)
	peer.Tick()
	assert.Equal(LeaderState[string]{LastPingTx: clock.Time()}, peer.State())
	assert.Equal([]Envelope[string]{
		{From: "a", To: "b", Message: NewPing(1)},
		{From: "a", To: "c", Message: NewPing(1)},
	}, transport.Drain())

	// the heartbeat time got refreshed so the next tick does nothing
	clock.Advance(1)
	peer.Tick()
	assert.Equal(0, transport.Len())
	assert.Equal(uint64(1), peer.Epoch())
}

func TestLonePeer_never_becomes_leader(t *testing.T) {
	assert := assert.New(t)
	peer, clock, transport := peerSetup("alone", nil)
	assert.Equal(0, peer.Quorum())

	clock.Set(9)
	peer.Tick()
	assert.Equal(CandidateState[string]{Since: 9}, peer.State())
	assert.Equal(uint64(1), peer.Epoch())

	clock.Set(17)
	peer.Tick()
	assert.Equal(uint64(1), peer.Epoch())

	for epoch := uint64(2); epoch < 10; epoch++ {
		clock.Advance(DefaultPingInterval + 1)
		peer.Tick()
		assert.Equal(CandidateState[string]{Since: clock.Time()}, peer.State())
		assert.Equal(epoch, peer.Epoch())
	}
	assert.Equal(0, transport.Len())
}

func TestMajoritySufficiency(t *testing.T) {
	assert := assert.New(t)

	for total := 1; total <= 7; total++ {
		var others []string
		for i := range total {
			others = append(others, string(rune('b'+i)))
		}

		peer, clock, _ := peerSetup("a", others)
		clock.Set(9)
		peer.Tick()
		for index, voter := range others {
			peer.Receive(voter, NewGrantVote(1))
			votes := index + 1
			if votes > total/2 {
				assert.Equal(Leader, peer.Role(), "peers %d votes %d", total, votes)
				break
			}
			assert.Equal(Candidate, peer.Role(), "peers %d votes %d", total, votes)
		}
	}
}

func TestElectionPeer_state_is_a_copy(t *testing.T) {
	assert := assert.New(t)
	peer, clock, _ := peerSetup("a", []string{"b", "c", "d", "e"})
	clock.Set(9)
	peer.Tick()
	peer.Receive("b", NewGrantVote(1))

	state := peer.State().(CandidateState[string])
	state.Votes[0] = "z"
	assert.Equal([]string{"b"}, peer.State().(CandidateState[string]).Votes)

	peers := peer.Peers()
	peers[0] = "z"
	assert.Equal([]string{"b", "c", "d", "e"}, peer.Peers())
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Send(to string, msg Message) {
	m.Called(to, msg)
}

func TestElectionPeer_transport_calls(t *testing.T) {
	transport := new(mockTransport)
	transport.On("Send", "b", NewGrantVote(2)).Once()
	transport.On("Send", "b", NewRequestVotes(3)).Once()
	transport.On("Send", "c", NewRequestVotes(3)).Once()

	clock := NewManualClock(0)
	peer := NewElectionPeer([]string{"b", "c"}, clock, transport, Options[string]{ID: "a", Logger: nopLogger()})
	peer.Receive("b", NewRequestVotes(2))
	clock.Set(9)
	peer.Tick()

	transport.AssertExpectations(t)
	transport.AssertNumberOfCalls(t, "Send", 3)
}

func TestStatus(t *testing.T) {
	assert := assert.New(t)
	peer, clock, _ := basicPeerSetup()
	assert.Equal(Status[string]{ID: "a", Role: Init}, peer.Status())

	clock.Set(9)
	peer.Tick()
	peer.Receive("b", NewGrantVote(1))
	assert.Equal(Status[string]{ID: "a", Role: Candidate, Epoch: 1, Votes: 1}, peer.Status())

	peer.Receive("c", NewGrantVote(1))
	assert.Equal(Status[string]{ID: "a", Role: Leader, Epoch: 1, Leader: "a", HasLeader: true}, peer.Status())

	peer.Receive("c", NewPing(3))
	assert.Equal(Status[string]{ID: "a", Role: Follower, Epoch: 3, Leader: "c", HasLeader: true}, peer.Status())
}
