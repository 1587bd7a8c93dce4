package electy

import (
	"sync"

	bolt "go.etcd.io/bbolt"
)

const (
	// ledgerFileName is the name of the ledger database file
	ledgerFileName string = "electy_ledger.db"

	// bucketLeadersName will be used to store leaders per epoch
	bucketLeadersName string = "electy_leaders"
)

// Ledger records the leader elected for each epoch.
// Recording a different leader for an already known epoch
// returns ErrSplitBrain
type Ledger interface {
	// Record records leader as the leader of epoch
	Record(epoch uint64, leader string) error

	// Leader returns the leader recorded for epoch if any
	Leader(epoch uint64) (string, bool, error)

	// Epochs returns all epochs having a leader in ascending order
	Epochs() ([]uint64, error)

	// Close permits to close the ledger
	Close() error
}

// MemoryLedger is a ledger kept in memory
type MemoryLedger struct {
	// mu is used to ensure lock concurrency
	mu sync.RWMutex

	leaders map[uint64]string

	closed bool
}

// LedgerBoltOptions holds the options of a bolt ledger
type LedgerBoltOptions struct {
	// DataDir is the directory that will be used to store the ledger. It's required
	DataDir string

	// Options hold all bolt options
	Options *bolt.Options
}

// BoltLedger is a ledger stored in a bolt database
type BoltLedger struct {
	// dataDir is the directory holding the database
	dataDir string

	// db allows us to manipulate the k/v database
	db *bolt.DB
}
