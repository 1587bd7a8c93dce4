package electy

import (
	"encoding/binary"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// NewBoltLedger opens or creates a ledger stored in options.DataDir
func NewBoltLedger(options LedgerBoltOptions) (*BoltLedger, error) {
	if options.DataDir == "" {
		return nil, ErrDataDirRequired
	}
	if err := createDirectoryIfNotExist(options.DataDir, 0750); err != nil {
		return nil, errors.Wrapf(err, "fail to create directory %s", options.DataDir)
	}

	db, err := bolt.Open(filepath.Join(options.DataDir, ledgerFileName), 0600, options.Options)
	if err != nil {
		return nil, errors.Wrap(err, "fail to open ledger")
	}

	ledger := &BoltLedger{
		dataDir: options.DataDir,
		db:      db,
	}
	if options.Options == nil || !options.Options.ReadOnly {
		if err := ledger.initializeBuckets(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return ledger, nil
}

// createDirectoryIfNotExist permits to check if a directory exist
// and create it if not. An error will be return if there is any
func createDirectoryIfNotExist(d string, perm fs.FileMode) error {
	if _, err := os.Stat(d); os.IsNotExist(err) {
		return os.MkdirAll(d, perm)
	}
	return nil
}

// initializeBuckets will initialize all buckets
// required by the ledger
func (l *BoltLedger) initializeBuckets() error {
	return l.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketLeadersName))
		return err
	})
}

// epochKey encodes epoch in big endian so keys are sorted by epoch
func epochKey(epoch uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, epoch)
	return key
}

func (l *BoltLedger) Record(epoch uint64, leader string) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketLeadersName))
		if bucket == nil {
			return bolt.ErrBucketNotFound
		}

		key := epochKey(epoch)
		if existing := bucket.Get(key); existing != nil {
			if string(existing) != leader {
				return errors.Wrapf(ErrSplitBrain, "epoch %d has leaders %s and %s", epoch, existing, leader)
			}
			return nil
		}
		return bucket.Put(key, []byte(leader))
	})
}

func (l *BoltLedger) Leader(epoch uint64) (leader string, found bool, err error) {
	err = l.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketLeadersName))
		if bucket == nil {
			return bolt.ErrBucketNotFound
		}
		if value := bucket.Get(epochKey(epoch)); value != nil {
			leader, found = string(value), true
		}
		return nil
	})
	return
}

func (l *BoltLedger) Epochs() ([]uint64, error) {
	var epochs []uint64
	err := l.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketLeadersName))
		if bucket == nil {
			return bolt.ErrBucketNotFound
		}
		return bucket.ForEach(func(k, _ []byte) error {
			epochs = append(epochs, binary.BigEndian.Uint64(k))
			return nil
		})
	})
	return epochs, err
}

// Close will close bolt database
func (l *BoltLedger) Close() error {
	return l.db.Close()
}
