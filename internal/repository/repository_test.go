package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/microchip-api/internal/model"
)

// testRepositoryContract runs the behaviour every storage driver shares.
func testRepositoryContract(t *testing.T, newRepo func(t *testing.T) MicrochipRepository) {
	ctx := context.Background()

	t.Run("empty collection", func(t *testing.T) {
		repo := newRepo(t)

		chips, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.NotNil(t, chips)
		assert.Empty(t, chips)
		assert.NoError(t, repo.Ping(ctx))
	})

	t.Run("save then load keeps order", func(t *testing.T) {
		repo := newRepo(t)
		want := []model.Microchip{
			{ID: 2, Name: "beta", FrameType: "B", Price: 20, Voltage: 5},
			{ID: 1, Name: "alpha", FrameType: "A", Price: 10, Voltage: 3.3},
		}

		require.NoError(t, repo.Save(ctx, want))

		got, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("update applies the mutation", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, []model.Microchip{{ID: 1, FrameType: "A"}}))

		err := repo.Update(ctx, func(chips []model.Microchip) ([]model.Microchip, error) {
			return append(chips, model.Microchip{ID: 2, FrameType: "B"}), nil
		})
		require.NoError(t, err)

		got, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, model.IDs(got))
	})

	t.Run("no change skips the write", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, []model.Microchip{{ID: 1}}))

		err := repo.Update(ctx, func(chips []model.Microchip) ([]model.Microchip, error) {
			return nil, ErrNoChange
		})
		require.NoError(t, err)

		got, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, model.IDs(got))
	})

	t.Run("mutation error aborts", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, []model.Microchip{{ID: 1}}))
		boom := errors.New("boom")

		err := repo.Update(ctx, func(chips []model.Microchip) ([]model.Microchip, error) {
			return []model.Microchip{}, boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("concurrent updates lose nothing", func(t *testing.T) {
		repo := newRepo(t)
		const writers = 20

		var wg sync.WaitGroup
		errCh := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				errCh <- repo.Update(ctx, func(chips []model.Microchip) ([]model.Microchip, error) {
					return append(chips, model.Microchip{ID: id}), nil
				})
			}(int64(i))
		}
		wg.Wait()
		close(errCh)

		for err := range errCh {
			require.NoError(t, err)
		}

		got, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, got, writers)
	})
}
