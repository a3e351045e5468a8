// Package bolt provides a single-file vector store backed by bbolt.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/owngpt/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// DBFile is the bbolt file name inside the data directory.
const DBFile = "vectors.bolt"

var (
	bucketRecords = []byte("records")
	bucketMeta    = []byte("meta")
	keyDimension  = []byte("dimension")
)

// storedRecord is the JSON value kept per record.
type storedRecord struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Position  int       `json:"position"`
	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"created_at"`
}

// VectorStore keeps records in a bbolt bucket keyed by insertion sequence.
type VectorStore struct {
	db *bbolt.DB
}

// NewVectorStore opens or creates the store in dataDir.
func NewVectorStore(dataDir string) (*VectorStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dataDir, DBFile), 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRecords); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &VectorStore{db: db}, nil
}

// Add appends records in a single bbolt transaction.
func (s *VectorStore) Add(_ context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		b := tx.Bucket(bucketRecords)

		dim := 0
		if v := meta.Get(keyDimension); v != nil {
			dim, _ = strconv.Atoi(string(v))
		}
		for _, r := range records {
			if len(r.Embedding) == 0 {
				return fmt.Errorf("record %s: %w: empty embedding", r.ID, domain.ErrInvalidInput)
			}
			if dim == 0 {
				dim = len(r.Embedding)
			}
			if len(r.Embedding) != dim {
				return fmt.Errorf("record %s: %w: got %d, want %d",
					r.ID, domain.ErrDimensionMismatch, len(r.Embedding), dim)
			}
		}

		for _, r := range records {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			data, err := json.Marshal(storedRecord{
				ID:        r.ID,
				Content:   r.Chunk.Content,
				Source:    r.Chunk.Source,
				Position:  r.Chunk.Position,
				Embedding: r.Embedding,
				CreatedAt: r.CreatedAt,
			})
			if err != nil {
				return fmt.Errorf("marshalling record %s: %w", r.ID, err)
			}
			if err := b.Put(seqKey(seq), data); err != nil {
				return err
			}
		}
		return meta.Put(keyDimension, []byte(strconv.Itoa(dim)))
	})
}

// Search scores every record and returns the best k.
func (s *VectorStore) Search(_ context.Context, query []float32, k int) ([]domain.RankedRecord, error) {
	if k <= 0 {
		return nil, nil
	}

	var candidates []rank.Candidate
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(key, value []byte) error {
			var sr storedRecord
			if err := json.Unmarshal(value, &sr); err != nil {
				return fmt.Errorf("decoding record: %w", err)
			}
			candidates = append(candidates, rank.Candidate{
				Seq: binary.BigEndian.Uint64(key),
				Record: domain.Record{
					ID:        sr.ID,
					Chunk:     domain.Chunk{Content: sr.Content, Source: sr.Source, Position: sr.Position},
					Embedding: sr.Embedding,
					CreatedAt: sr.CreatedAt,
				},
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return rank.TopK(query, candidates, k), nil
}

// Count returns the number of stored records.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketRecords).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the bbolt file.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

// seqKey encodes a sequence big-endian so keys sort in insertion order.
func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
