package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deppfellow/microchip-api/internal/model"
)

// PostgresMicrochipRepository keeps the collection as a jsonb document in
// one row of microchip_collections. Update holds a row lock for the whole
// load-mutate-save sequence.
type PostgresMicrochipRepository struct {
	pool       *pgxpool.Pool
	collection string
}

func NewPostgresMicrochipRepository(pool *pgxpool.Pool, collection string) *PostgresMicrochipRepository {
	return &PostgresMicrochipRepository{
		pool:       pool,
		collection: collection,
	}
}

const (
	selectCollectionSQL = `SELECT document FROM microchip_collections WHERE name = $1`

	lockCollectionSQL = `SELECT document FROM microchip_collections WHERE name = $1 FOR UPDATE`

	ensureCollectionSQL = `
INSERT INTO microchip_collections (name) VALUES ($1)
ON CONFLICT (name) DO NOTHING`

	upsertCollectionSQL = `
INSERT INTO microchip_collections (name, document) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE
SET document = EXCLUDED.document,
    version = microchip_collections.version + 1,
    updated_at = now()`

	updateCollectionSQL = `
UPDATE microchip_collections
SET document = $2, version = version + 1, updated_at = now()
WHERE name = $1`
)

func (r *PostgresMicrochipRepository) Load(ctx context.Context) ([]model.Microchip, error) {
	var document []byte
	err := r.pool.QueryRow(ctx, selectCollectionSQL, r.collection).Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return []model.Microchip{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading microchip collection: %w", err)
	}
	return decodeCollection(document)
}

func (r *PostgresMicrochipRepository) Save(ctx context.Context, chips []model.Microchip) error {
	document, err := encodeCollection(chips)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, upsertCollectionSQL, r.collection, document); err != nil {
		return fmt.Errorf("writing microchip collection: %w", err)
	}
	return nil
}

func (r *PostgresMicrochipRepository) Update(ctx context.Context, mutate MutateFunc) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensureCollectionSQL, r.collection); err != nil {
			return fmt.Errorf("creating microchip collection: %w", err)
		}

		var document []byte
		if err := tx.QueryRow(ctx, lockCollectionSQL, r.collection).Scan(&document); err != nil {
			return fmt.Errorf("locking microchip collection: %w", err)
		}

		chips, err := decodeCollection(document)
		if err != nil {
			return err
		}

		updated, changed, err := applyMutation(chips, mutate)
		if err != nil {
			return err
		}
		if !changed {
			return ErrNoChange
		}

		encoded, err := encodeCollection(updated)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, updateCollectionSQL, r.collection, encoded); err != nil {
			return fmt.Errorf("writing microchip collection: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	return err
}

func (r *PostgresMicrochipRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
