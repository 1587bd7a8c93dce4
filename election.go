package electy

import (
	"fmt"
	"slices"

	"github.com/Lord-Y/electy/logger"
)

// NewElectionPeer instantiate an election peer in Init state.
// peers must hold all other peers of the cluster, the current one excluded
func NewElectionPeer[P comparable](peers []P, clock Clock, transport Transport[P], options Options[P]) *ElectionPeer[P] {
	if options.Logger == nil {
		options.Logger = logger.NewLogger()
	}
	if options.PingInterval == 0 {
		options.PingInterval = DefaultPingInterval
	}

	id := fmt.Sprint(options.ID)
	r := &ElectionPeer[P]{
		Logger:    options.Logger,
		options:   options,
		id:        id,
		peers:     slices.Clone(peers),
		clock:     clock,
		transport: transport,
		metrics:   newMetrics(id, options.MetricsNamespacePrefix, options.MetricsRegisterer),
	}
	r.state = InitState[P]{Since: clock.Time()}
	r.metrics.setPeerStateGauge(Init)
	return r
}

// Epoch returns the current epoch of the peer
func (r *ElectionPeer[P]) Epoch() uint64 {
	return r.epoch
}

// State returns a copy of the current state of the peer
func (r *ElectionPeer[P]) State() PeerState[P] {
	return copyState[P](r.state)
}

// Role returns the current role of the peer
func (r *ElectionPeer[P]) Role() Role {
	return r.state.Role()
}

// Peers returns all other peers of the cluster
func (r *ElectionPeer[P]) Peers() []P {
	return slices.Clone(r.peers)
}

// Quorum returns the number of granted votes a candidate must exceed
// to become the leader. The candidate own vote is not counted
func (r *ElectionPeer[P]) Quorum() int {
	return len(r.peers) / 2
}

// Receive handles a message sent by from.
// Stale or unusable messages are silently ignored
func (r *ElectionPeer[P]) Receive(from P, msg Message) {
	r.metrics.messageReceived(msg.Kind)
	switch msg.Kind {
	case RequestVotes:
		r.handleRequestVotes(from, msg.Epoch)
	case GrantVote:
		r.handleGrantVote(from, msg.Epoch)
	case Ping:
		r.handlePing(from, msg.Epoch)
	}
}

// Tick makes the peer check its timers against the clock.
// A leader sends heartbeats when needed, any other peer
// starts a new election campaign when the ping interval is exceeded
func (r *ElectionPeer[P]) Tick() {
	now := r.clock.Time()

	switch state := r.state.(type) {
	case LeaderState[P]:
		if r.expired(state.LastPingTx, now) {
			r.sendHeartbeats(now)
		}
	case CandidateState[P]:
		if r.expired(state.Since, now) {
			r.startElection(now)
		}
	case FollowerState[P]:
		if r.expired(state.LastPingRx, now) {
			r.startElection(now)
		}
	case InitState[P]:
		if r.expired(state.Since, now) {
			r.startElection(now)
		}
	}
}

// expired returns true when now is strictly after since plus the ping interval
func (r *ElectionPeer[P]) expired(since, now uint64) bool {
	return since+r.options.PingInterval < now
}

// switchState replaces the current state and epoch of the peer
func (r *ElectionPeer[P]) switchState(state PeerState[P], epoch uint64) {
	previous := r.state.Role()
	previousEpoch := r.epoch
	r.state = state
	r.epoch = epoch
	r.metrics.setEpoch(epoch)

	if previous == state.Role() && previousEpoch == epoch {
		return
	}
	r.metrics.setPeerStateGauge(state.Role())
	r.Logger.Debug().
		Str("id", r.id).
		Str("previousState", previous.String()).
		Str("state", state.Role().String()).
		Str("previousTerm", fmt.Sprintf("%d", previousEpoch)).
		Str("term", fmt.Sprintf("%d", epoch)).
		Msgf("Peer switched state")
}

// broadcast sends msg to every other peer
func (r *ElectionPeer[P]) broadcast(msg Message) {
	for _, peer := range r.peers {
		r.send(peer, msg)
	}
}

func (r *ElectionPeer[P]) send(to P, msg Message) {
	r.metrics.messageSent(msg.Kind)
	r.transport.Send(to, msg)
}
