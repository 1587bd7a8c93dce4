package electy

import "fmt"

// startElection increments the epoch, becomes candidate
// and requests votes from every peer
func (r *ElectionPeer[P]) startElection(now uint64) {
	epoch := r.epoch + 1
	r.switchState(CandidateState[P]{Since: now}, epoch)
	r.metrics.electionStarted()

	r.Logger.Trace().
		Str("id", r.id).
		Str("state", r.state.Role().String()).
		Str("term", fmt.Sprintf("%d", epoch)).
		Int("peers", len(r.peers)).
		Msgf("Requesting votes")
	r.broadcast(NewRequestVotes(epoch))
}

// handleRequestVotes grants its vote to the first candidate
// of any epoch higher than the current one
func (r *ElectionPeer[P]) handleRequestVotes(from P, epoch uint64) {
	if epoch <= r.epoch {
		return
	}

	r.send(from, NewGrantVote(epoch))
	r.switchState(FollowerState[P]{Leader: from, LastPingRx: r.clock.Time()}, epoch)
}

// handleGrantVote counts the vote when campaigning for epoch
// and steps up as leader once a majority has been reached
func (r *ElectionPeer[P]) handleGrantVote(from P, epoch uint64) {
	if epoch != r.epoch {
		return
	}

	state, ok := r.state.(CandidateState[P])
	if !ok {
		return
	}

	state = state.withVote(from)
	r.state = state
	if len(state.Votes) <= r.Quorum() {
		return
	}

	now := r.clock.Time()
	r.switchState(LeaderState[P]{LastPingTx: now}, r.epoch)
	r.metrics.leaderElected()

	r.Logger.Info().
		Str("id", r.id).
		Str("state", Leader.String()).
		Str("term", fmt.Sprintf("%d", r.epoch)).
		Int("votes", len(state.Votes)+1).
		Msgf("Stepping up as leader")
	r.broadcast(NewPing(r.epoch))
}
