package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Store implements the reconciliation collaborators (RuleStore,
// ProductCatalog, PriceLookup and run-state persistence) on Postgres.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func New(pool *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}
