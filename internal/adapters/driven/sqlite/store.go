// Package sqlite is an embedded vector store on modernc.org/sqlite.
//
// Embeddings are stored as little-endian float32 blobs and ranked by
// brute-force cosine similarity, which suits the CLI and test workloads
// it is meant for.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name        TEXT PRIMARY KEY,
	dimension   INTEGER NOT NULL,
	distance    TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS points (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	collection  TEXT NOT NULL REFERENCES collections(name),
	user_id     TEXT NOT NULL,
	text        TEXT NOT NULL,
	part        INTEGER,
	embedding   BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_points_owner ON points(collection, user_id, seq);
`

// Store implements driven.VectorStore on a SQLite file
type Store struct {
	db         *sql.DB
	path       string
	collection string
	logger     *slog.Logger

	mu        sync.RWMutex
	dimension int // cached once the collection is known
}

// New opens (creating if needed) the database at path. ":memory:" keeps
// everything in one in-process connection.
func New(path, collection string, logger *slog.Logger) (*Store, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storeErr("open", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storeErr("migrate", err)
	}

	return &Store{db: db, path: path, collection: collection, logger: logger}, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// EnsureCollection records the collection if it is not there yet.
// An existing record is never changed.
func (s *Store) EnsureCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", domain.ErrInvalidInput)
	}

	dim, err := s.lookupDimension(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err == nil {
		if dim != vectorSize {
			s.logger.Warn("collection size differs from configured vector size",
				"collection", s.collection, "collection_size", dim, "vector_size", vectorSize)
		}
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (name, dimension, distance, created_at) VALUES (?, ?, 'cosine', ?)
		 ON CONFLICT (name) DO NOTHING`,
		s.collection, vectorSize, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return storeErr("create collection", err)
	}

	s.logger.Info("created collection", "collection", s.collection, "size", vectorSize, "distance", "cosine")
	return nil
}

// lookupDimension returns domain.ErrNotFound when the collection is missing
func (s *Store) lookupDimension(ctx context.Context) (int, error) {
	s.mu.RLock()
	dim := s.dimension
	s.mu.RUnlock()
	if dim > 0 {
		return dim, nil
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT dimension FROM collections WHERE name = ?`, s.collection).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, storeErr("lookup collection", err)
	}

	s.mu.Lock()
	s.dimension = dim
	s.mu.Unlock()
	return dim, nil
}

// Upsert writes one point. The vector must match the collection dimension.
func (s *Store) Upsert(ctx context.Context, point domain.Point) error {
	if point.ID == "" {
		return fmt.Errorf("%w: point id is required", domain.ErrInvalidInput)
	}

	dim, err := s.lookupDimension(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return storeErr("upsert", fmt.Errorf("collection %s not found", s.collection))
	}
	if err != nil {
		return err
	}
	if len(point.Vector) != dim {
		return storeErr("upsert", fmt.Errorf("vector has %d dimensions, collection expects %d", len(point.Vector), dim))
	}

	var part sql.NullInt64
	if point.Payload.Part != nil {
		part = sql.NullInt64{Int64: int64(*point.Payload.Part), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO points (id, collection, user_id, text, part, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id,
			text = excluded.text,
			part = excluded.part,
			embedding = excluded.embedding`,
		point.ID, s.collection, point.Payload.UserID, point.Payload.Text, part, encodeEmbedding(point.Vector))
	if err != nil {
		return storeErr("upsert", err)
	}
	return nil
}

// Search scores every candidate row and returns the best limit, highest first.
// Rows whose similarity is undefined (zero vectors) are skipped; a query of
// the wrong dimension fails.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, filter *domain.PointFilter) ([]domain.ScoredPoint, error) {
	query := `SELECT id, user_id, text, part, embedding FROM points WHERE collection = ?`
	args := []any{s.collection}
	if filter != nil {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("search", err)
	}
	defer rows.Close()

	var results []domain.ScoredPoint
	for rows.Next() {
		var sp domain.ScoredPoint
		var part sql.NullInt64
		var blob []byte
		if err := rows.Scan(&sp.ID, &sp.Payload.UserID, &sp.Payload.Text, &part, &blob); err != nil {
			return nil, storeErr("search", err)
		}

		emb, err := decodeEmbedding(blob)
		if err != nil {
			return nil, storeErr("search", err)
		}
		score, err := cosineSimilarity(vector, emb)
		if errors.Is(err, errZeroMagnitude) {
			continue
		}
		if err != nil {
			return nil, storeErr("search", err)
		}

		sp.Score = float32(score)
		sp.Payload.ID = sp.ID
		sp.Payload.Part = intPtr(part)
		results = append(results, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("search", err)
	}

	// Stable keeps insertion order among equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit >= 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ScrollByUser lists a user's points in insertion order, without vectors
func (s *Store) ScrollByUser(ctx context.Context, userID string, limit int) ([]domain.Point, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, text, part FROM points
		WHERE collection = ? AND user_id = ?
		ORDER BY seq
		LIMIT ?`, s.collection, userID, limit)
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
		p.Payload.Part = intPtr(part)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("scroll", err)
	}
	return points, nil
}

// HealthCheck pings the database
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	return domain.IntPtr(int(n.Int64))
}

func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: sqlite %s: %v", domain.ErrStoreUnavailable, op, err)
}
