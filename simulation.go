package electy

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/Lord-Y/electy/logger"
	"github.com/pkg/errors"
)

// NewSimulation instantiate a cluster made of ids.
// All peers start in Init state at time 0
func NewSimulation[P comparable](ids []P, options SimulationOptions) *Simulation[P] {
	if options.Logger == nil {
		options.Logger = logger.NewLogger()
	}
	if options.Ledger == nil {
		options.Ledger = NewMemoryLedger()
	}
	if options.Rand == nil {
		options.Rand = rand.New(rand.NewPCG(1, 1))
	}

	s := &Simulation[P]{
		Logger:    options.Logger,
		options:   options,
		clock:     NewManualClock(0),
		ids:       slices.Clone(ids),
		peers:     make(map[P]*ElectionPeer[P], len(ids)),
		dropRates: make(map[connection[P]]float64),
		ledger:    options.Ledger,
	}

	for _, id := range s.ids {
		others := slices.DeleteFunc(slices.Clone(s.ids), func(p P) bool { return p == id })
		s.peers[id] = NewElectionPeer(others, s.clock, &simulationTransport[P]{from: id, simulation: s}, Options[P]{
			ID:                id,
			Logger:            options.Logger,
			PingInterval:      options.PingInterval,
			MetricsRegisterer: options.MetricsRegisterer,
		})
	}
	return s
}

func (t *simulationTransport[P]) Send(to P, msg Message) {
	t.simulation.enqueue(Envelope[P]{From: t.from, To: to, Message: msg})
}

// enqueue appends envelope to the network unless its connection drops it
func (s *Simulation[P]) enqueue(envelope Envelope[P]) {
	rate := s.dropRates[connection[P]{from: envelope.From, to: envelope.To}]
	if rate > 0 && s.options.Rand.Float64() < rate {
		s.dropped++
		return
	}
	s.queue = append(s.queue, envelope)
	if s.options.DuplicateRate > 0 && s.options.Rand.Float64() < s.options.DuplicateRate {
		s.queue = append(s.queue, envelope)
	}
}

// Clock returns the clock shared by all peers
func (s *Simulation[P]) Clock() *ManualClock {
	return s.clock
}

// Ledger returns the ledger recording leaders
func (s *Simulation[P]) Ledger() Ledger {
	return s.ledger
}

// IDs returns all peers of the cluster
func (s *Simulation[P]) IDs() []P {
	return slices.Clone(s.ids)
}

// Peer returns the election peer of id
func (s *Simulation[P]) Peer(id P) (*ElectionPeer[P], bool) {
	peer, ok := s.peers[id]
	return peer, ok
}

// Advance moves the shared clock forward by d
func (s *Simulation[P]) Advance(d uint64) uint64 {
	return s.clock.Advance(d)
}

// Pending returns the number of messages waiting to be delivered
func (s *Simulation[P]) Pending() int {
	return len(s.queue)
}

// Delivered returns the number of delivered and dropped messages
func (s *Simulation[P]) Delivered() (delivered, dropped uint64) {
	return s.delivered, s.dropped
}

// Tick ticks the peer id
func (s *Simulation[P]) Tick(id P) error {
	peer, ok := s.peers[id]
	if !ok {
		return errors.Wrapf(ErrUnknownPeer, "%v", id)
	}
	peer.Tick()
	return s.observe(id, peer)
}

// TickAll ticks every peer in creation order
func (s *Simulation[P]) TickAll() error {
	for _, id := range s.ids {
		if err := s.Tick(id); err != nil {
			return err
		}
	}
	return nil
}

// Deliver delivers the first message of the network.
// It returns false when the network is empty
func (s *Simulation[P]) Deliver() (bool, error) {
	if len(s.queue) == 0 {
		return false, nil
	}
	index := 0
	if s.options.Reorder {
		index = s.options.Rand.IntN(len(s.queue))
	}
	envelope := s.queue[index]
	s.queue = slices.Delete(s.queue, index, index+1)

	peer, ok := s.peers[envelope.To]
	if !ok {
		s.dropped++
		return true, nil
	}
	s.delivered++
	peer.Receive(envelope.From, envelope.Message)
	return true, s.observe(envelope.To, peer)
}

// Flush delivers messages until the network is empty
func (s *Simulation[P]) Flush() error {
	for {
		more, err := s.Deliver()
		if err != nil || !more {
			return err
		}
	}
}

// Run advances the clock by one and ticks every peer in creation order,
// ticks times. The network is flushed after each peer tick
func (s *Simulation[P]) Run(ticks int) error {
	for range ticks {
		s.Advance(1)
		for _, id := range s.ids {
			if err := s.Tick(id); err != nil {
				return err
			}
			if err := s.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cut drops every message between a and b in both directions
func (s *Simulation[P]) Cut(a, b P) {
	s.DropRate(a, b, 1)
	s.DropRate(b, a, 1)
}

// Isolate cuts id from every other peer
func (s *Simulation[P]) Isolate(id P) {
	for _, other := range s.ids {
		if other != id {
			s.Cut(id, other)
		}
	}
}

// DropRate sets the probability of dropping messages sent from from to to
func (s *Simulation[P]) DropRate(from, to P, rate float64) {
	s.dropRates[connection[P]{from: from, to: to}] = rate
}

// Recover restores all connections
func (s *Simulation[P]) Recover() {
	s.dropRates = make(map[connection[P]]float64)
}

// Leaders returns all peers currently in Leader state
func (s *Simulation[P]) Leaders() []P {
	var leaders []P
	for _, id := range s.ids {
		if s.peers[id].Role() == Leader {
			leaders = append(leaders, id)
		}
	}
	return leaders
}

// Statuses returns a snapshot of every peer in creation order
func (s *Simulation[P]) Statuses() []Status[P] {
	statuses := make([]Status[P], 0, len(s.ids))
	for _, id := range s.ids {
		statuses = append(statuses, s.peers[id].Status())
	}
	return statuses
}

// observe records id in the ledger when it is the leader
func (s *Simulation[P]) observe(id P, peer *ElectionPeer[P]) error {
	if peer.Role() != Leader {
		return nil
	}
	return s.ledger.Record(peer.Epoch(), fmt.Sprint(id))
}
