// Package setup prepares a fresh backend: schema migrations and the storage
// buckets the application expects.
package setup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/telecare/telecare/internal/platform/db"
)

// Bucket is a storage bucket the application writes to.
type Bucket struct {
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

// DefaultBuckets are created by Ensure.
var DefaultBuckets = []Bucket{
	{Name: "medical-records", Public: false},
	{Name: "avatars", Public: true},
}

type BucketResult struct {
	Bucket
	Created bool `json:"created"`
}

// Details reports what Ensure changed.
type Details struct {
	MigrationsApplied int            `json:"migrations_applied"`
	Buckets           []BucketResult `json:"buckets"`
}

type Migrator interface {
	Up(ctx context.Context, schema string) (int, error)
}

type BucketRepository interface {
	// Ensure creates the bucket if it is missing and reports whether it did.
	Ensure(ctx context.Context, b Bucket) (bool, error)
}

type bucketRepoPG struct{ q db.Querier }

func NewBucketRepoPG(q db.Querier) BucketRepository { return &bucketRepoPG{q: q} }

func (r *bucketRepoPG) Ensure(ctx context.Context, b Bucket) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO storage_buckets (name, public) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`,
		b.Name, b.Public)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type Service struct {
	migrator Migrator
	buckets  BucketRepository
	want     []Bucket
	logger   zerolog.Logger
}

func NewService(migrator Migrator, buckets BucketRepository, logger zerolog.Logger) *Service {
	return &Service{
		migrator: migrator,
		buckets:  buckets,
		want:     DefaultBuckets,
		logger:   logger.With().Str("component", "setup").Logger(),
	}
}

// NewPGService wires the embedded migrator and the bucket table to pool.
func NewPGService(pool *pgxpool.Pool, logger zerolog.Logger) *Service {
	return NewService(db.NewEmbeddedMigrator(pool), NewBucketRepoPG(pool), logger)
}

// Ensure applies pending migrations, then creates missing buckets. It is
// safe to call repeatedly. On failure the returned details describe the
// work done before it.
func (s *Service) Ensure(ctx context.Context) (*Details, error) {
	details := &Details{Buckets: []BucketResult{}}

	applied, err := s.migrator.Up(ctx, db.DefaultSchema)
	details.MigrationsApplied = applied
	if err != nil {
		return details, fmt.Errorf("migrate: %w", err)
	}

	for _, b := range s.want {
		created, err := s.buckets.Ensure(ctx, b)
		if err != nil {
			return details, fmt.Errorf("ensure bucket %s: %w", b.Name, err)
		}
		details.Buckets = append(details.Buckets, BucketResult{Bucket: b, Created: created})
	}

	s.logger.Info().
		Int("migrations_applied", details.MigrationsApplied).
		Int("buckets", len(details.Buckets)).
		Msg("backend initialized")
	return details, nil
}
