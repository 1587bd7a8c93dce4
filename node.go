package electy

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NewNode instantiate a node running an election peer
func NewNode[P comparable](peers []P, clock Clock, transport Transport[P], options NodeOptions[P]) *Node[P] {
	if options.TickInterval <= 0 {
		options.TickInterval = defaultTickInterval
	}
	if options.InboxSize <= 0 {
		options.InboxSize = defaultInboxSize
	}

	peer := NewElectionPeer(peers, clock, transport, options.Options)
	return &Node[P]{
		Logger:     peer.Logger,
		options:    options,
		peer:       peer,
		inbox:      make(chan Envelope[P], options.InboxSize),
		statusChan: make(chan chan Status[P]),
		done:       make(chan struct{}),
	}
}

// Start starts the loop of the node until ctx is done or Stop is called
func (n *Node[P]) Start(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stopped.Load() || n.isRunning.Load() {
		return
	}
	n.quitCtx, n.stopCtx = context.WithCancel(ctx)
	n.isRunning.Store(true)

	n.Logger.Info().
		Str("id", fmt.Sprint(n.options.ID)).
		Str("tickInterval", n.options.TickInterval.String()).
		Msgf("Starting node")

	n.wg.Add(1)
	go n.loop()
}

// Stop stops the node and waits for the loop to exit
func (n *Node[P]) Stop() {
	n.mu.Lock()
	if n.stopCalled {
		n.mu.Unlock()
		return
	}
	n.stopCalled = true
	n.stopped.Store(true)
	stopCtx := n.stopCtx
	n.mu.Unlock()

	if stopCtx != nil {
		stopCtx()
		n.wg.Wait()
	}
	n.isRunning.Store(false)
	n.Logger.Info().
		Str("id", fmt.Sprint(n.options.ID)).
		Msgf("Node stopped")
}

// Deliver queues a message sent by from.
// Delivery is best effort, a full inbox drops the message
func (n *Node[P]) Deliver(from P, msg Message) error {
	if n.stopped.Load() {
		return ErrShutdown
	}
	select {
	case n.inbox <- Envelope[P]{From: from, To: n.options.ID, Message: msg}:
		return nil
	default:
		return ErrInboxFull
	}
}

// Status returns a snapshot of the peer run by the node
func (n *Node[P]) Status(ctx context.Context) (Status[P], error) {
	if !n.isRunning.Load() {
		return Status[P]{}, ErrShutdown
	}

	response := make(chan Status[P], 1)
	select {
	case n.statusChan <- response:
	case <-n.done:
		return Status[P]{}, ErrShutdown
	case <-ctx.Done():
		return Status[P]{}, ctx.Err()
	}

	select {
	case status := <-response:
		return status, nil
	case <-ctx.Done():
		return Status[P]{}, ctx.Err()
	}
}

// Done returns a channel closed once the loop exited
func (n *Node[P]) Done() <-chan struct{} {
	return n.done
}

// Err returns the error that aborted the node if any
func (n *Node[P]) Err() error {
	if err, ok := n.err.Load().(error); ok {
		return err
	}
	return nil
}

// loop handles messages, ticks and status requests
// until the node is stopped
func (n *Node[P]) loop() {
	defer n.wg.Done()
	defer close(n.done)
	defer n.shutdown()
	defer n.abortOnInvariantViolation()

	ticker := time.NewTicker(n.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		// exiting for loop
		case <-n.quitCtx.Done():
			return

		case <-ticker.C:
			n.peer.Tick()

		case envelope := <-n.inbox:
			n.peer.Receive(envelope.From, envelope.Message)

		case response := <-n.statusChan:
			response <- n.peer.Status()
		}
	}
}

// shutdown marks the node as stopped once the loop exited,
// whatever the reason, so messages are no longer accepted
func (n *Node[P]) shutdown() {
	n.stopped.Store(true)
	n.isRunning.Store(false)
}

// abortOnInvariantViolation stops the node when the peer
// panicked because its state is corrupted
func (n *Node[P]) abortOnInvariantViolation() {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok || (!errors.Is(err, ErrCandidateHoldsMajority) && !errors.Is(err, ErrLeaderSameEpochPing)) {
		panic(r)
	}
	n.err.Store(err)

	n.Logger.Error().Err(err).
		Str("id", fmt.Sprint(n.options.ID)).
		Msgf("Node aborted")
}
