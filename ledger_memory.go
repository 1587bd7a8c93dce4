package electy

import (
	"maps"
	"slices"

	"github.com/pkg/errors"
)

// NewMemoryLedger returns an empty in memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{leaders: make(map[uint64]string)}
}

func (l *MemoryLedger) Record(epoch uint64, leader string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLedgerClosed
	}
	if existing, ok := l.leaders[epoch]; ok && existing != leader {
		return errors.Wrapf(ErrSplitBrain, "epoch %d has leaders %s and %s", epoch, existing, leader)
	}
	l.leaders[epoch] = leader
	return nil
}

func (l *MemoryLedger) Leader(epoch uint64) (string, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return "", false, ErrLedgerClosed
	}
	leader, ok := l.leaders[epoch]
	return leader, ok, nil
}

func (l *MemoryLedger) Epochs() ([]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrLedgerClosed
	}
	return slices.Sorted(maps.Keys(l.leaders)), nil
}

func (l *MemoryLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
