package electy

import "slices"

// String return a human readable role of the election peer
func (r Role) String() string {
	switch r {
	case Leader:
		return "leader"
	case Candidate:
		return "candidate"
	case Follower:
		return "follower"
	}
	return "init"
}

func (InitState[P]) Role() Role         { return Init }
func (CandidateState[P]) Role() Role    { return Candidate }
func (LeaderState[P]) Role() Role       { return Leader }
func (FollowerState[P]) Role() Role     { return Follower }
func (InitState[P]) isPeerState(P)      {}
func (CandidateState[P]) isPeerState(P) {}
func (LeaderState[P]) isPeerState(P)    {}
func (FollowerState[P]) isPeerState(P)  {}

// hasVote returns true when voter already granted its vote
func (c CandidateState[P]) hasVote(voter P) bool {
	return slices.Contains(c.Votes, voter)
}

// withVote returns a copy of the candidate state with voter added
// to the vote set when absent
func (c CandidateState[P]) withVote(voter P) CandidateState[P] {
	if c.hasVote(voter) {
		return c
	}
	votes := make([]P, 0, len(c.Votes)+1)
	votes = append(votes, c.Votes...)
	c.Votes = append(votes, voter)
	return c
}

// copyState returns a copy of the state that does not share memory
// with the provided one
func copyState[P comparable](state PeerState[P]) PeerState[P] {
	if c, ok := state.(CandidateState[P]); ok {
		c.Votes = slices.Clone(c.Votes)
		return c
	}
	return state
}
