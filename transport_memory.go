package electy

import (
	"slices"
	"sync"
)

// RecordingTransport is an in memory transport keeping every
// sent message until drained. It's safe for concurrent use
type RecordingTransport[P comparable] struct {
	// mu is used to ensure lock concurrency
	mu sync.Mutex

	// from is the sender stamped on every envelope
	from P

	envelopes []Envelope[P]
}

// NewRecordingTransport returns a transport recording messages sent by from
func NewRecordingTransport[P comparable](from P) *RecordingTransport[P] {
	return &RecordingTransport[P]{from: from}
}

// Send records msg for peer to
func (t *RecordingTransport[P]) Send(to P, msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.envelopes = append(t.envelopes, Envelope[P]{From: t.from, To: to, Message: msg})
}

// Envelopes returns a copy of all recorded envelopes
func (t *RecordingTransport[P]) Envelopes() []Envelope[P] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.envelopes)
}

// Drain returns all recorded envelopes and forgets them
func (t *RecordingTransport[P]) Drain() []Envelope[P] {
	t.mu.Lock()
	defer t.mu.Unlock()
	envelopes := t.envelopes
	t.envelopes = nil
	return envelopes
}

// Len returns the number of recorded envelopes
func (t *RecordingTransport[P]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.envelopes)
}
