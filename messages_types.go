package electy

// MessageKind is the kind of protocol message exchanged between peers
type MessageKind uint32

const (
	// RequestVotes is sent by a candidate to every peer when starting
	// an election campaign
	RequestVotes MessageKind = iota + 1

	// GrantVote is sent back to the candidate requesting votes
	GrantVote

	// Ping is the heartbeat broadcasted by the leader
	Ping
)

// Message is the only payload exchanged between peers.
// Each kind carries a single epoch
type Message struct {
	// Kind of the message
	Kind MessageKind

	// Epoch is the epoch of the sender when the message was built
	Epoch uint64
}

// Envelope is a message with its sender and recipient
type Envelope[P comparable] struct {
	// From is the peer that sent the message
	From P

	// To is the peer the message is addressed to
	To P

	// Message is the message itself
	Message Message
}
