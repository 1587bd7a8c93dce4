package electy

import "errors"

var (
	// ErrCandidateHoldsMajority is raised when a candidate already holding
	// a majority of votes receives a heartbeat for its own epoch
	ErrCandidateHoldsMajority = errors.New("candidate holding a majority received a same epoch heartbeat")

	// ErrLeaderSameEpochPing is raised when a leader receives a heartbeat
	// for its own epoch
	ErrLeaderSameEpochPing = errors.New("leader received a same epoch heartbeat")

	ErrUnknownMessageKind = errors.New("unknown message kind")
	ErrMalformedMessage   = errors.New("malformed message")
	ErrShutdown           = errors.New("node is shutting down")
	ErrInboxFull          = errors.New("node inbox is full")
	ErrUnknownPeer        = errors.New("unknown peer")
	ErrSplitBrain         = errors.New("more than one leader elected for the same epoch")
	ErrLedgerClosed       = errors.New("ledger is closed")
	ErrDataDirRequired    = errors.New("data dir cannot be empty")
)
