// Package repository persists the microchip collection.
//
// The collection is always read and written as one JSON array document.
// Each driver (file, redis, postgres) guarantees that concurrent Update
// calls never lose each other's writes.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/deppfellow/microchip-api/internal/model"
)

// ErrNoChange can be returned by a MutateFunc to end an Update without
// writing anything.
var ErrNoChange = errors.New("repository: collection unchanged")

// MutateFunc receives the current collection and returns the collection to
// store. It may run more than once when a driver retries a conflicting
// transaction, so it must not leak state between calls.
type MutateFunc func(chips []model.Microchip) ([]model.Microchip, error)

// MicrochipRepository loads and stores the full collection.
type MicrochipRepository interface {
	// Load returns the stored collection. A collection that was never
	// written is empty, not an error.
	Load(ctx context.Context) ([]model.Microchip, error)

	// Save replaces the stored collection.
	Save(ctx context.Context, chips []model.Microchip) error

	// Update runs load, mutate and save as one unit.
	Update(ctx context.Context, mutate MutateFunc) error

	// Ping checks that the backing storage is reachable.
	Ping(ctx context.Context) error
}

func decodeCollection(data []byte) ([]model.Microchip, error) {
	chips := []model.Microchip{}
	if len(bytes.TrimSpace(data)) == 0 {
		return chips, nil
	}
	if err := json.Unmarshal(data, &chips); err != nil {
		return nil, fmt.Errorf("decoding microchip collection: %w", err)
	}
	if chips == nil {
		// the document was a JSON null
		chips = []model.Microchip{}
	}
	return chips, nil
}

func encodeCollection(chips []model.Microchip) ([]byte, error) {
	if chips == nil {
		chips = []model.Microchip{}
	}
	data, err := json.MarshalIndent(chips, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding microchip collection: %w", err)
	}
	return data, nil
}

// applyMutation runs mutate and reports whether the result must be stored.
func applyMutation(chips []model.Microchip, mutate MutateFunc) ([]model.Microchip, bool, error) {
	updated, err := mutate(chips)
	if errors.Is(err, ErrNoChange) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}
