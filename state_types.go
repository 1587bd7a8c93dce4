package electy

// Role represent the current role of an election peer.
// The role can only be Init, Follower, Candidate, Leader
type Role uint32

const (
	// Init role is the role of a peer before any election ran
	Init Role = iota

	// Follower role is a peer that recognizes another peer as the leader
	// of the current epoch.
	// It's a passive peer that only answers to vote requests and heartbeats
	Follower

	// Candidate role is a peer campaigning for the current epoch.
	// It can become a Leader
	Candidate

	// Leader role is a peer that was previously a Candidate.
	// It received the majority of the votes including itself and
	// periodically broadcasts heartbeats
	Leader
)

// PeerState is the closed set of states an election peer can be in.
// Only InitState, CandidateState, LeaderState and FollowerState implement it
type PeerState[P comparable] interface {
	// Role returns the role matching the state
	Role() Role

	// isPeerState seals the interface to the variants of the same peer type
	isPeerState(P)
}

// InitState is the state of a peer before any election ran
type InitState[P comparable] struct {
	// Since is the time the peer was created
	Since uint64
}

// CandidateState is the state of a peer campaigning in the current epoch
type CandidateState[P comparable] struct {
	// Since is the time the candidacy began
	Since uint64

	// Votes holds the peers that granted their vote in this epoch.
	// The candidate own vote is implicit and never stored
	Votes []P
}

// LeaderState is the state of a peer elected for the current epoch
type LeaderState[P comparable] struct {
	// LastPingTx is the time of the most recent heartbeat broadcast
	LastPingTx uint64
}

// FollowerState is the state of a peer recognizing Leader
// for the current epoch
type FollowerState[P comparable] struct {
	// Leader is the peer recognized as leader
	Leader P

	// LastPingRx is the time of the last heartbeat or vote request received
	LastPingRx uint64
}
