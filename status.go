package electy

// Status is a snapshot of an election peer
type Status[P comparable] struct {
	// ID of the peer
	ID P

	// Role of the peer
	Role Role

	// Epoch is the current epoch of the peer
	Epoch uint64

	// Leader is the peer followed when Role is Follower
	// or the peer itself when Role is Leader
	Leader P

	// HasLeader is true when Leader is set
	HasLeader bool

	// Votes is the number of granted votes when Role is Candidate.
	// The candidate own vote is not counted
	Votes int
}

// Status returns a snapshot of the peer
func (r *ElectionPeer[P]) Status() Status[P] {
	status := Status[P]{
		ID:    r.options.ID,
		Role:  r.state.Role(),
		Epoch: r.epoch,
	}

	switch state := r.state.(type) {
	case LeaderState[P]:
		status.Leader, status.HasLeader = r.options.ID, true
	case FollowerState[P]:
		status.Leader, status.HasLeader = state.Leader, true
	case CandidateState[P]:
		status.Votes = len(state.Votes)
	case InitState[P]:
	}
	return status
}
