package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore implements driven.VectorStore on a pgvector table.
// One table per collection; rows keep insertion order through seq.
type VectorStore struct {
	db         *DB
	collection string
	table      string // quoted identifier
	ownsDB     bool
	logger     *slog.Logger
}

// NewVectorStore creates a pgvector store for collection on db.
// When ownsDB is true, Close also closes the pool.
func NewVectorStore(db *DB, collection string, ownsDB bool, logger *slog.Logger) (*VectorStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorStore{
		db:         db,
		collection: collection,
		table:      pq.QuoteIdentifier(collection),
		ownsDB:     ownsDB,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the table and its cosine index if missing.
// An existing table is left alone; a dimension mismatch is only logged.
func (s *VectorStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", domain.ErrInvalidInput)
	}

	if _, err := s.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return storeErr("create extension", err)
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, s.collection).Scan(&exists)
	if err != nil {
		return storeErr("check collection", err)
	}

	if exists {
		s.warnOnSizeMismatch(ctx, vectorSize)
		return nil
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			seq        BIGSERIAL,
			id         UUID PRIMARY KEY,
			user_id    TEXT NOT NULL,
			text       TEXT NOT NULL,
			part       INTEGER,
			embedding  vector(%[2]d) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS %[3]s ON %[1]s (user_id, seq);
		CREATE INDEX IF NOT EXISTS %[4]s ON %[1]s USING hnsw (embedding vector_cosine_ops);
	`, s.table, vectorSize,
		pq.QuoteIdentifier(s.collection+"_user_idx"),
		pq.QuoteIdentifier(s.collection+"_embedding_idx"),
	)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return storeErr("create collection", err)
	}

	s.logger.Info("created collection", "collection", s.collection, "size", vectorSize, "distance", "cosine")
	return nil
}

func (s *VectorStore) warnOnSizeMismatch(ctx context.Context, want int) {
	var have int
	err := s.db.QueryRowContext(ctx, `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = to_regclass($1) AND attname = 'embedding'`, s.table).Scan(&have)
	if err != nil {
		return
	}
	if have != want {
		s.logger.Warn("collection size differs from configured vector size",
			"collection", s.collection, "collection_size", have, "vector_size", want)
	}
}

// Upsert writes one point
func (s *VectorStore) Upsert(ctx context.Context, point domain.Point) error {
	if point.ID == "" {
		return fmt.Errorf("%w: point id is required", domain.ErrInvalidInput)
	}

	query := `
		INSERT INTO ` + s.table + ` (id, user_id, text, part, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			text = EXCLUDED.text,
			part = EXCLUDED.part,
			embedding = EXCLUDED.embedding
	`
	_, err := s.db.ExecContext(ctx, query,
		point.ID,
		point.Payload.UserID,
		point.Payload.Text,
		NullInt(point.Payload.Part),
		pgvector.NewVector(point.Vector),
	)
	if err != nil {
		return storeErr("upsert", err)
	}
	return nil
}

// Search ranks by cosine distance; score is 1 - distance
func (s *VectorStore) Search(ctx context.Context, vector []float32, limit int, filter *domain.PointFilter) ([]domain.ScoredPoint, error) {
	args := []any{pgvector.NewVector(vector), limit}
	where := ""
	if filter != nil {
		where = "WHERE user_id = $3"
		args = append(args, filter.UserID)
	}

	query := `
		SELECT id, user_id, text, part, 1 - (embedding <=> $1) AS score
		FROM ` + s.table + `
		` + where + `
		ORDER BY embedding <=> $1
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("search", err)
	}
	defer rows.Close()

	var results []domain.ScoredPoint
	for rows.Next() {
		var sp domain.ScoredPoint
		var part sql.NullInt64
		var score float64
		if err := rows.Scan(&sp.ID, &sp.Payload.UserID, &sp.Payload.Text, &part, &score); err != nil {
			return nil, storeErr("search", err)
		}
		sp.Score = float32(score)
		sp.Payload.ID = sp.ID
		sp.Payload.Part = IntPtr(part)
		results = append(results, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("search", err)
	}
	return results, nil
}

// ScrollByUser lists a user's points in insertion order, without vectors
func (s *VectorStore) ScrollByUser(ctx context.Context, userID string, limit int) ([]domain.Point, error) {
	query := `
		SELECT id, user_id, text, part
		FROM ` + s.table + `
		WHERE user_id = $1
		ORDER BY seq
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, storeErr("scroll", err)
	}
	defer rows.Close()

	var points []domain.Point
	for rows.Next() {
		var p domain.Point
		var part sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Payload.UserID, &p.Payload.Text, &part); err != nil {
			return nil, storeErr("scroll", err)
		}
		p.Payload.ID = p.ID
		p.Payload.Part = IntPtr(part)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("scroll", err)
	}
	return points, nil
}

// HealthCheck pings the database
func (s *VectorStore) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

// Close closes the pool when this store owns it
func (s *VectorStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// storeErr tags err as a store failure unless it already is one
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: pgvector %s: %v", domain.ErrStoreUnavailable, op, err)
}
