package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"policyrag/internal/domain"
	"policyrag/internal/port"
)

var (
	bucketWeights   = []byte("weights")
	bucketWeightLog = []byte("weight_log")
	keyCurrent      = []byte("current")
)

// BoltWeightStore persists the versioned ranking weights. bbolt's
// single-writer transactions give the required guarantees for free:
// Save commits are serialized, and a concurrent Load sees either the
// previous or the new version in full, never a torn write.
type BoltWeightStore struct {
	db *bbolt.DB
}

func NewBoltWeightStore(db *bbolt.DB) (*BoltWeightStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketWeights, bucketWeightLog} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weight buckets: %w", err)
	}
	return &BoltWeightStore{db: db}, nil
}

// Load returns the latest committed configuration, or the defaults at
// version 0 when nothing has been saved. An unparseable stored config
// is an error, never a silent fallback to defaults.
func (s *BoltWeightStore) Load() (domain.WeightConfig, error) {
	cfg := domain.DefaultWeights()
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketWeights).Get(keyCurrent)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrWeightStoreCorrupt, err)
		}
		return nil
	})
	if err != nil {
		return domain.WeightConfig{}, err
	}
	return cfg, nil
}

// Save commits cfg as the next version. The version number and
// timestamp are assigned inside the transaction so they are
// monotonic regardless of what the caller passed in.
func (s *BoltWeightStore) Save(cfg domain.WeightConfig, prov port.WeightProvenance) (domain.WeightConfig, error) {
	saved := cfg.Clone()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketWeights)

		version := 0
		if data := b.Get(keyCurrent); data != nil {
			var cur domain.WeightConfig
			if err := json.Unmarshal(data, &cur); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrWeightStoreCorrupt, err)
			}
			version = cur.Version
		}

		saved.Version = version + 1
		saved.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(saved)
		if err != nil {
			return err
		}
		if err := b.Put(keyCurrent, data); err != nil {
			return err
		}

		rev := port.WeightRevision{
			Config:     saved,
			Provenance: prov,
			SavedAt:    saved.UpdatedAt,
		}
		revData, err := json.Marshal(rev)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketWeightLog).Put(versionKey(saved.Version), revData)
	})
	if err != nil {
		return domain.WeightConfig{}, err
	}
	return saved, nil
}

// History lists committed revisions, oldest first.
func (s *BoltWeightStore) History() ([]port.WeightRevision, error) {
	var revs []port.WeightRevision
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketWeightLog)
		return b.ForEach(func(k, v []byte) error {
			var rev port.WeightRevision
			if err := json.Unmarshal(v, &rev); err != nil {
				return nil // Skip corrupted entries
			}
			revs = append(revs, rev)
			return nil
		})
	})
	return revs, err
}

// versionKey encodes versions big-endian so bucket order is version
// order.
func versionKey(version int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(version))
	return key
}
