package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/deppfellow/microchip-api/internal/model"
)

// RedisMicrochipRepository stores the collection document under one key.
//
// Update uses WATCH/MULTI: when another writer changes the key between the
// read and the write, the transaction is discarded and retried.
type RedisMicrochipRepository struct {
	client     *redis.Client
	key        string
	maxRetries int
}

func NewRedisMicrochipRepository(client *redis.Client, key string, maxRetries int) *RedisMicrochipRepository {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RedisMicrochipRepository{
		client:     client,
		key:        key,
		maxRetries: maxRetries,
	}
}

func (r *RedisMicrochipRepository) Load(ctx context.Context) ([]model.Microchip, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.Microchip{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading microchip key: %w", err)
	}
	return decodeCollection(data)
}

func (r *RedisMicrochipRepository) Save(ctx context.Context, chips []model.Microchip) error {
	data, err := encodeCollection(chips)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing microchip key: %w", err)
	}
	return nil
}

func (r *RedisMicrochipRepository) Update(ctx context.Context, mutate MutateFunc) error {
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, r.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("reading microchip key: %w", err)
		}

		chips, err := decodeCollection(data)
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

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, encoded, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		err := r.client.Watch(ctx, txf, r.key)
		switch {
		case err == nil, errors.Is(err, ErrNoChange):
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return err
		}
	}

	return fmt.Errorf("updating microchip key after %d attempts: %w", r.maxRetries, redis.TxFailedErr)
}

func (r *RedisMicrochipRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
