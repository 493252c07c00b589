package service

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/deppfellow/microchip-api/internal/config"
	"github.com/deppfellow/microchip-api/internal/errs"
	"github.com/deppfellow/microchip-api/internal/lib/job"
	"github.com/deppfellow/microchip-api/internal/model"
	"github.com/deppfellow/microchip-api/internal/repository"
	"github.com/deppfellow/microchip-api/internal/server"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []job.CollectionChangedPayload
	err      error
}

func (n *recordingNotifier) NotifyCollectionChanged(_ context.Context, p job.CollectionChangedPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
	return n.err
}

func (n *recordingNotifier) operations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	ops := make([]string, 0, len(n.payloads))
	for _, p := range n.payloads {
		ops = append(ops, p.Operation)
	}
	return ops
}

func newTestService(t *testing.T, seed []model.Microchip) (*MicrochipService, repository.MicrochipRepository, *recordingNotifier) {
	t.Helper()

	logger := zerolog.Nop()
	s := &server.Server{Config: config.DefaultConfig(), Logger: &logger}

	repo := repository.NewFileMicrochipRepository(filepath.Join(t.TempDir(), "microchips.json"))
	if seed != nil {
		require.NoError(t, repo.Save(context.Background(), seed))
	}

	notifier := &recordingNotifier{}
	return NewMicrochipService(s, repo, notifier), repo, notifier
}

func sampleChips() []model.Microchip {
	return []model.Microchip{
		{ID: 3, Name: "gamma", FrameType: "QFP", Price: 30, Voltage: 5.0},
		{ID: 1, Name: "alpha", FrameType: "DIP", Price: 50, Voltage: 3.3},
		{ID: 2, Name: "beta", FrameType: "BGA", Price: 10, Voltage: 12.0},
		{ID: 4, Name: "delta", FrameType: "DIP", Price: 20, Voltage: 1.8},
	}
}

func requireHTTPError(t *testing.T, err error, status int, code string) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %v", err)
	assert.Equal(t, status, httpErr.Status)
	assert.Equal(t, code, httpErr.Code)
	return httpErr
}

func TestMicrochipService_GetByID(t *testing.T) {
	svc, _, _ := newTestService(t, sampleChips())
	ctx := context.Background()

	chip, err := svc.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "beta", chip.Name)

	_, err = svc.GetByID(ctx, 42)
	httpErr := requireHTTPError(t, err, http.StatusNotFound, errs.CodeMicrochipNotFound)
	assert.Contains(t, httpErr.Message, "42")
}

func TestMicrochipService_GetByID_FirstMatchWins(t *testing.T) {
	svc, _, _ := newTestService(t, []model.Microchip{
		{ID: 1, Name: "first"},
		{ID: 1, Name: "second"},
	})

	chip, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "first", chip.Name)
}

func TestMicrochipService_GetAll(t *testing.T) {
	svc, _, _ := newTestService(t, sampleChips())
	ctx := context.Background()

	tests := []struct {
		sortBy string
		want   []int64
	}{
		{sortBy: "id", want: []int64{1, 2, 3, 4}},
		{sortBy: "ID", want: []int64{1, 2, 3, 4}},
		{sortBy: "price", want: []int64{2, 4, 3, 1}},
		{sortBy: "name", want: []int64{1, 2, 4, 3}},
		// stable: the two DIP records keep their stored order
		{sortBy: "frameType", want: []int64{2, 1, 4, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy, func(t *testing.T) {
			chips, err := svc.GetAll(ctx, tt.sortBy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, model.IDs(chips))
		})
	}
}

func TestMicrochipService_GetAll_InvalidSortField(t *testing.T) {
	svc, _, _ := newTestService(t, sampleChips())

	for _, sortBy := range []string{"voltage", "", "id "} {
		_, err := svc.GetAll(context.Background(), sortBy)
		httpErr := requireHTTPError(t, err, http.StatusBadRequest, errs.CodeInvalidParameter)
		assert.Contains(t, httpErr.Message, `"`+sortBy+`"`)
	}
}

func TestMicrochipService_GetAll_Empty(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	chips, err := svc.GetAll(context.Background(), "id")
	require.NoError(t, err)
	assert.NotNil(t, chips)
	assert.Empty(t, chips)
}

func TestMicrochipService_CountByMinVoltage(t *testing.T) {
	svc, _, _ := newTestService(t, sampleChips())
	ctx := context.Background()

	count, err := svc.CountByMinVoltage(ctx, DefaultMinVoltage)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = svc.CountByMinVoltage(ctx, 1.8)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	count, err = svc.CountByMinVoltage(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMicrochipService_Create(t *testing.T) {
	svc, repo, notifier := newTestService(t, sampleChips())
	ctx := context.Background()

	added := []model.Microchip{
		{ID: 5, Name: "epsilon", FrameType: "SOP", Price: 5, Voltage: 3.3},
		{ID: 1, Name: "duplicate", FrameType: "SOP", Price: 1, Voltage: 1},
	}

	stored, err := svc.Create(ctx, added)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2, 4, 5, 1}, model.IDs(stored))

	persisted, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, persisted)

	require.Equal(t, []string{OperationCreate}, notifier.operations())
	assert.Equal(t, []int64{5, 1}, notifier.payloads[0].AffectedIDs)
	assert.Equal(t, 6, notifier.payloads[0].Size)
}

func TestMicrochipService_Create_IntoEmptyStorage(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	stored, err := svc.Import(context.Background(), []model.Microchip{{ID: 1}})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestMicrochipService_ReplaceFrameType(t *testing.T) {
	t.Run("only replaced", func(t *testing.T) {
		svc, repo, notifier := newTestService(t, sampleChips())
		ctx := context.Background()

		result, err := svc.ReplaceFrameType(ctx, "DIP", "SMD", true)
		require.NoError(t, err)

		assert.Equal(t, []int64{1, 4}, model.IDs(result.Body(true)))
		for _, chip := range result.Replaced {
			assert.Equal(t, "SMD", chip.FrameType)
		}

		persisted, err := repo.Load(ctx)
		require.NoError(t, err)
		for _, chip := range persisted {
			assert.NotEqual(t, "DIP", chip.FrameType)
		}
		assert.Equal(t, "SMD", persisted[1].FrameType)
		assert.Equal(t, "SMD", persisted[3].FrameType)
		assert.Equal(t, "QFP", persisted[0].FrameType)

		assert.Equal(t, []string{OperationReplaceFrameType}, notifier.operations())
	})

	t.Run("full collection", func(t *testing.T) {
		svc, _, _ := newTestService(t, sampleChips())

		result, err := svc.ReplaceFrameType(context.Background(), "DIP", "SMD", false)
		require.NoError(t, err)

		body := result.Body(false)
		assert.Equal(t, []int64{3, 1, 2, 4}, model.IDs(body))
		assert.Equal(t, "SMD", body[1].FrameType)
	})

	t.Run("no match leaves storage alone", func(t *testing.T) {
		svc, repo, notifier := newTestService(t, sampleChips())
		ctx := context.Background()

		result, err := svc.ReplaceFrameType(ctx, "dip", "SMD", true)
		require.NoError(t, err)
		assert.Empty(t, result.Replaced)

		persisted, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleChips(), persisted)
		assert.Empty(t, notifier.operations())
	})
}

func TestMicrochipService_Delete(t *testing.T) {
	svc, repo, notifier := newTestService(t, sampleChips())
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 1))

	persisted, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 4}, model.IDs(persisted))
	assert.Equal(t, []string{OperationDelete}, notifier.operations())

	err = svc.Delete(ctx, 1)
	requireHTTPError(t, err, http.StatusNotFound, errs.CodeMicrochipNotFound)

	persisted, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 3)
}

func TestMicrochipService_NotifierFailureDoesNotFailRequest(t *testing.T) {
	svc, _, notifier := newTestService(t, nil)
	notifier.err = errors.New("redis down")

	stored, err := svc.Create(context.Background(), []model.Microchip{{ID: 1}})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestMicrochipService_NilNotifier(t *testing.T) {
	logger := zerolog.Nop()
	s := &server.Server{Config: config.DefaultConfig(), Logger: &logger}
	repo := repository.NewFileMicrochipRepository(filepath.Join(t.TempDir(), "microchips.json"))
	svc := NewMicrochipService(s, repo, nil)

	_, err := svc.Create(context.Background(), []model.Microchip{{ID: 1}})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), 1))
}

func TestMicrochipService_CreateCountReplaceFlow(t *testing.T) {
	svc, _, _ := newTestService(t, []model.Microchip{
		{ID: 1, FrameType: "A", Price: 10, Voltage: 3.3},
	})
	ctx := context.Background()

	stored, err := svc.Create(ctx, []model.Microchip{{ID: 2, FrameType: "B", Price: 20, Voltage: 5.0}})
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	count, err := svc.CountByMinVoltage(ctx, 5.0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	result, err := svc.ReplaceFrameType(ctx, "A", "C", true)
	require.NoError(t, err)
	assert.Equal(t, []model.Microchip{{ID: 1, FrameType: "C", Price: 10, Voltage: 3.3}}, result.Body(true))
}
