// Package qdrant provides a vector store backed by a Qdrant collection over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/logger"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Payload keys.
const (
	fieldID        = "record_id"
	fieldContent   = "content"
	fieldSource    = "source"
	fieldPosition  = "position"
	fieldCreatedAt = "created_at"
	fieldSeq       = "seq"
)

// tieMargin extra points are fetched beyond k so equal scores that straddle
// the k boundary can still be ordered by insertion.
const tieMargin = 16

// VectorStore stores records as points in one Qdrant collection.
// The collection is created with cosine distance on the first Add.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string

	mu        sync.Mutex
	dimension int
	now       func() time.Time
}

// NewVectorStore connects to Qdrant at addr (host:port of the gRPC API).
func NewVectorStore(addr, collection string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	s := newVectorStore(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), collection)
	s.conn = conn
	return s, nil
}

func newVectorStore(points pb.PointsClient, collections pb.CollectionsClient, collection string) *VectorStore {
	return &VectorStore{
		points:      points,
		collections: collections,
		collection:  collection,
		now:         time.Now,
	}
}

// Add upserts records and waits until they are searchable.
func (s *VectorStore) Add(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim, err := s.ensureCollection(ctx, len(records[0].Embedding))
	if err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("record %s: %w: empty embedding", r.ID, domain.ErrInvalidInput)
		}
		if len(r.Embedding) != dim {
			return fmt.Errorf("record %s: %w: got %d, want %d",
				r.ID, domain.ErrDimensionMismatch, len(r.Embedding), dim)
		}
	}

	base := s.now().UnixNano()
	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = toPoint(r, base+int64(i))
	}

	wait := true
	if _, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Search returns the k nearest points. Ties are ordered by insertion.
func (s *VectorStore) Search(ctx context.Context, query []float32, k int) ([]domain.RankedRecord, error) {
	if k <= 0 {
		return nil, nil
	}
	exists, err := s.collectionExists(ctx)
	if err != nil || !exists {
		return nil, err
	}

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         query,
		Limit:          uint64(k + tieMargin),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	return fromScored(resp.GetResult(), k), nil
}

// Count returns the exact number of points in the collection.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	exists, err := s.collectionExists(ctx)
	if err != nil || !exists {
		return 0, err
	}
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{CollectionName: s.collection, Exact: &exact})
	if err != nil {
		return 0, fmt.Errorf("qdrant count: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Close closes the gRPC connection.
func (s *VectorStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *VectorStore) collectionExists(ctx context.Context) (bool, error) {
	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: s.collection})
	if err != nil {
		return false, fmt.Errorf("qdrant collection exists: %w", err)
	}
	return resp.GetResult().GetExists(), nil
}

// ensureCollection returns the collection's vector size, creating the
// collection with size dim if it does not exist. Callers hold s.mu.
func (s *VectorStore) ensureCollection(ctx context.Context, dim int) (int, error) {
	if s.dimension > 0 {
		return s.dimension, nil
	}

	exists, err := s.collectionExists(ctx)
	if err != nil {
		return 0, err
	}
	if exists {
		info, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: s.collection})
		if err != nil {
			return 0, fmt.Errorf("qdrant collection info: %w", err)
		}
		s.dimension = int(info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
		return s.dimension, nil
	}

	if dim == 0 {
		return 0, fmt.Errorf("%w: empty embedding", domain.ErrInvalidInput)
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{
			Params: &pb.VectorParams{Size: uint64(dim), Distance: pb.Distance_Cosine},
		}},
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant create collection: %w", err)
	}
	logger.Debug("qdrant: created collection %s (%d dimensions)", s.collection, dim)
	s.dimension = dim
	return dim, nil
}

func toPoint(r domain.Record, seq int64) *pb.PointStruct {
	return &pb.PointStruct{
		Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID}},
		Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: r.Embedding}}},
		Payload: map[string]*pb.Value{
			fieldID:        stringValue(r.ID),
			fieldContent:   stringValue(r.Chunk.Content),
			fieldSource:    stringValue(r.Chunk.Source),
			fieldPosition:  intValue(int64(r.Chunk.Position)),
			fieldCreatedAt: intValue(r.CreatedAt.UnixNano()),
			fieldSeq:       intValue(seq),
		},
	}
}

// fromScored orders points by score, then by insertion, and keeps the first k.
func fromScored(points []*pb.ScoredPoint, k int) []domain.RankedRecord {
	type ranked struct {
		rec domain.RankedRecord
		seq int64
	}
	all := make([]ranked, len(points))
	for i, pt := range points {
		p := pt.GetPayload()
		rec := domain.Record{
			ID: p[fieldID].GetStringValue(),
			Chunk: domain.Chunk{
				Content:  p[fieldContent].GetStringValue(),
				Source:   p[fieldSource].GetStringValue(),
				Position: int(p[fieldPosition].GetIntegerValue()),
			},
		}
		if ns := p[fieldCreatedAt].GetIntegerValue(); ns != 0 {
			rec.CreatedAt = time.Unix(0, ns).UTC()
		}
		all[i] = ranked{
			rec: domain.RankedRecord{Record: rec, Similarity: float64(pt.GetScore())},
			seq: p[fieldSeq].GetIntegerValue(),
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].rec.Similarity != all[j].rec.Similarity {
			return all[i].rec.Similarity > all[j].rec.Similarity
		}
		return all[i].seq < all[j].seq
	})

	if len(all) > k {
		all = all[:k]
	}
	out := make([]domain.RankedRecord, len(all))
	for i, r := range all {
		r.rec.Rank = i
		out[i] = r.rec
	}
	return out
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func intValue(n int64) *pb.Value {
	return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: n}}
}
