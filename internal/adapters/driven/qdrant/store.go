// Package qdrant implements the vector store on a Qdrant collection over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorStore = (*Store)(nil)

// Payload keys
const (
	keyID     = "id"
	keyUserID = "user_id"
	keyText   = "text"
	keyPart   = "part"
)

// Client is the subset of *qdrant.Client the store calls
type Client interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Scroll(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, error)
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	Close() error
}

// Config holds the connection settings
type Config struct {
	Host       string
	Port       int // gRPC port
	APIKey     string
	UseTLS     bool
	Collection string
}

// Store implements driven.VectorStore on one Qdrant collection
type Store struct {
	client     Client
	collection string
	logger     *slog.Logger
}

// New dials Qdrant and returns a store for cfg.Collection
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant connect: %v", domain.ErrStoreUnavailable, err)
	}
	return NewWithClient(client, cfg.Collection, logger)
}

// NewWithClient wraps an existing client
func NewWithClient(client Client, collection string, logger *slog.Logger) (*Store, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, collection: collection, logger: logger}, nil
}

// EnsureCollection creates the collection with cosine distance when missing.
// An existing collection is never altered.
func (s *Store) EnsureCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", domain.ErrInvalidInput)
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return storeErr("collection exists", err)
	}
	if exists {
		s.warnOnSizeMismatch(ctx, vectorSize)
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return storeErr("create collection", err)
	}

	s.logger.Info("created collection", "collection", s.collection, "size", vectorSize, "distance", "cosine")
	return nil
}

func (s *Store) warnOnSizeMismatch(ctx context.Context, want int) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return
	}
	have := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if have != 0 && have != uint64(want) {
		s.logger.Warn("collection size differs from configured vector size",
			"collection", s.collection, "collection_size", have, "vector_size", want)
	}
}

// Upsert writes one point and waits for it to be applied
func (s *Store) Upsert(ctx context.Context, point domain.Point) error {
	if point.ID == "" {
		return fmt.Errorf("%w: point id is required", domain.ErrInvalidInput)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: toPayload(point.ID, point.Payload),
		}},
	})
	if err != nil {
		return storeErr("upsert", err)
	}
	return nil
}

// Search queries the nearest points, optionally restricted to one owner
func (s *Store) Search(ctx context.Context, vector []float32, limit int, filter *domain.PointFilter) ([]domain.ScoredPoint, error) {
	req := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if filter != nil {
		req.Filter = userFilter(filter.UserID)
	}

	hits, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, storeErr("query", err)
	}

	results := make([]domain.ScoredPoint, 0, len(hits))
	for _, h := range hits {
		id := pointID(h.GetId())
		results = append(results, domain.ScoredPoint{
			ID:      id,
			Score:   h.GetScore(),
			Payload: fromPayload(id, h.GetPayload()),
		})
	}
	return results, nil
}

// ScrollByUser pages through one owner's points without vectors
func (s *Store) ScrollByUser(ctx context.Context, userID string, limit int) ([]domain.Point, error) {
	got, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         userFilter(userID),
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, storeErr("scroll", err)
	}

	points := make([]domain.Point, 0, len(got))
	for _, p := range got {
		id := pointID(p.GetId())
		points = append(points, domain.Point{ID: id, Payload: fromPayload(id, p.GetPayload())})
	}
	return points, nil
}

// HealthCheck calls the Qdrant health endpoint
func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return storeErr("health check", err)
	}
	return nil
}

// Close closes the gRPC connection
func (s *Store) Close() error {
	return s.client.Close()
}

func userFilter(userID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(keyUserID, userID)},
	}
}

func toPayload(id string, p domain.Payload) map[string]*qdrant.Value {
	payload := map[string]*qdrant.Value{
		keyID:     qdrant.NewValueString(id),
		keyUserID: qdrant.NewValueString(p.UserID),
		keyText:   qdrant.NewValueString(p.Text),
	}
	if p.Part != nil {
		payload[keyPart] = qdrant.NewValueInt(int64(*p.Part))
	}
	return payload
}

func fromPayload(id string, payload map[string]*qdrant.Value) domain.Payload {
	p := domain.Payload{
		ID:     id,
		UserID: payload[keyUserID].GetStringValue(),
		Text:   payload[keyText].GetStringValue(),
	}
	if v, ok := payload[keyPart].GetKind().(*qdrant.Value_IntegerValue); ok {
		p.Part = domain.IntPtr(int(v.IntegerValue))
	}
	return p
}

// pointID renders a point id; numeric ids come from points written elsewhere
func pointID(id *qdrant.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}

func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: qdrant %s: %v", domain.ErrStoreUnavailable, op, err)
}
