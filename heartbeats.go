package electy

import (
	"fmt"

	"github.com/pkg/errors"
)

// handlePing recognizes from as the leader of epoch
// when epoch is not older than the current one
func (r *ElectionPeer[P]) handlePing(from P, epoch uint64) {
	if epoch < r.epoch {
		return
	}

	switch state := r.state.(type) {
	case CandidateState[P]:
		if len(state.Votes) > r.Quorum() {
			r.invariantViolation(errors.Wrapf(ErrCandidateHoldsMajority, "epoch %d votes %d quorum %d", r.epoch, len(state.Votes), r.Quorum()))
		}
	case LeaderState[P]:
		if epoch <= r.epoch {
			r.invariantViolation(errors.Wrapf(ErrLeaderSameEpochPing, "epoch %d", r.epoch))
		}
	case InitState[P], FollowerState[P]:
	}

	r.switchState(FollowerState[P]{Leader: from, LastPingRx: r.clock.Time()}, epoch)
}

// sendHeartbeats broadcasts a ping to every peer
// and records now as the last heartbeat time
func (r *ElectionPeer[P]) sendHeartbeats(now uint64) {
	r.state = LeaderState[P]{LastPingTx: now}

	r.Logger.Trace().
		Str("id", r.id).
		Str("state", Leader.String()).
		Str("term", fmt.Sprintf("%d", r.epoch)).
		Msgf("Sending heartbeats")
	r.broadcast(NewPing(r.epoch))
}

// invariantViolation stops the peer as its state is corrupted
func (r *ElectionPeer[P]) invariantViolation(err error) {
	r.Logger.Error().Err(err).
		Str("id", r.id).
		Str("state", r.state.Role().String()).
		Str("term", fmt.Sprintf("%d", r.epoch)).
		Msgf("Election invariant violated")
	panic(err)
}
