package electy

import "fmt"

// NewRequestVotes return a RequestVotes message for the provided epoch
func NewRequestVotes(epoch uint64) Message {
	return Message{Kind: RequestVotes, Epoch: epoch}
}

// NewGrantVote return a GrantVote message for the provided epoch
func NewGrantVote(epoch uint64) Message {
	return Message{Kind: GrantVote, Epoch: epoch}
}

// NewPing return a Ping message for the provided epoch
func NewPing(epoch uint64) Message {
	return Message{Kind: Ping, Epoch: epoch}
}

// String return a human readable message kind
func (k MessageKind) String() string {
	switch k {
	case RequestVotes:
		return "requestVotes"
	case GrantVote:
		return "grantVote"
	case Ping:
		return "ping"
	}
	return "unknown"
}

// valid returns true when the kind is part of the protocol
func (k MessageKind) valid() bool {
	return k >= RequestVotes && k <= Ping
}

func (m Message) String() string {
	return fmt.Sprintf("%s{epoch: %d}", m.Kind, m.Epoch)
}
