package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/deppfellow/microchip-api/internal/model"
)

// FileMicrochipRepository keeps the collection in a JSON file.
//
// Writers are serialized by mu. Files are replaced with a rename, so a
// concurrent Load sees either the old or the new document, never a torn one.
type FileMicrochipRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileMicrochipRepository(path string) *FileMicrochipRepository {
	return &FileMicrochipRepository{path: path}
}

func (r *FileMicrochipRepository) Load(ctx context.Context) ([]model.Microchip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.read()
}

func (r *FileMicrochipRepository) Save(ctx context.Context, chips []model.Microchip) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.write(chips)
}

func (r *FileMicrochipRepository) Update(ctx context.Context, mutate MutateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	chips, err := r.read()
	if err != nil {
		return err
	}

	updated, changed, err := applyMutation(chips, mutate)
	if err != nil || !changed {
		return err
	}

	return r.write(updated)
}

// Ping succeeds when the file is readable or does not exist yet.
func (r *FileMicrochipRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(r.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("checking microchip file: %w", err)
	case info.IsDir():
		return fmt.Errorf("microchip file %s is a directory", r.path)
	}
	return nil
}

func (r *FileMicrochipRepository) read() ([]model.Microchip, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Microchip{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading microchip file: %w", err)
	}
	return decodeCollection(data)
}

func (r *FileMicrochipRepository) write(chips []model.Microchip) error {
	data, err := encodeCollection(chips)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating microchip directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".microchips-*.json")
	if err != nil {
		return fmt.Errorf("creating temporary microchip file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing microchip file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing microchip file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing microchip file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replacing microchip file: %w", err)
	}
	return nil
}
