package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/microchip-api/internal/config"
	"github.com/deppfellow/microchip-api/internal/errs"
	"github.com/deppfellow/microchip-api/internal/handler"
	"github.com/deppfellow/microchip-api/internal/model"
	"github.com/deppfellow/microchip-api/internal/repository"
	"github.com/deppfellow/microchip-api/internal/server"
	"github.com/deppfellow/microchip-api/internal/service"
)

type testAPI struct {
	router *echo.Echo
	repo   repository.MicrochipRepository
}

func newTestAPI(t *testing.T, seed []model.Microchip, configure ...func(*config.Config)) *testAPI {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.RateLimit = 0
	cfg.Server.StaticDir = filepath.Join("..", "..", "static")
	cfg.Storage.FilePath = filepath.Join(t.TempDir(), "microchips.json")
	for _, fn := range configure {
		fn(cfg)
	}

	logger := zerolog.Nop()
	srv := &server.Server{Config: cfg, Logger: &logger}

	repos, err := repository.NewRepositories(srv)
	require.NoError(t, err)
	if seed != nil {
		require.NoError(t, repos.Microchip.Save(context.Background(), seed))
	}

	services, err := service.NewService(srv, repos)
	require.NoError(t, err)

	return &testAPI{
		router: NewRouter(srv, handler.NewHandlers(srv, services)),
		repo:   repos.Microchip,
	}
}

func (a *testAPI) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func sampleChips() []model.Microchip {
	return []model.Microchip{
		{ID: 3, Name: "gamma", FrameType: "QFP", Price: 30, Voltage: 5.0},
		{ID: 1, Name: "alpha", FrameType: "DIP", Price: 50, Voltage: 3.3},
		{ID: 2, Name: "beta", FrameType: "BGA", Price: 10, Voltage: 12.0},
		{ID: 4, Name: "delta", FrameType: "DIP", Price: 20, Voltage: 1.8},
	}
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) errs.HTTPError {
	t.Helper()

	require.Equal(t, status, rec.Code, rec.Body.String())
	httpErr := decode[errs.HTTPError](t, rec)
	assert.Equal(t, status, httpErr.Status)
	assert.Equal(t, code, httpErr.Code)
	return httpErr
}

func TestGetByID(t *testing.T) {
	api := newTestAPI(t, sampleChips())

	rec := api.do(t, http.MethodGet, "/api/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":2,"name":"beta","frameType":"BGA","price":10,"voltage":12}`, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/42", "")
	httpErr := requireError(t, rec, http.StatusNotFound, errs.CodeMicrochipNotFound)
	assert.Equal(t, "microchip with id 42 not found", httpErr.Message)

	rec = api.do(t, http.MethodGet, "/api/abc", "")
	requireError(t, rec, http.StatusBadRequest, "BAD_REQUEST")
}

func TestGetAll(t *testing.T) {
	api := newTestAPI(t, sampleChips())

	for _, target := range []string{"/api/?sortBy=price", "/api?sortBy=PRICE"} {
		rec := api.do(t, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, []int64{2, 4, 3, 1}, model.IDs(decode[[]model.Microchip](t, rec)), target)
	}

	rec := api.do(t, http.MethodGet, "/api/?sortBy=voltage", "")
	httpErr := requireError(t, rec, http.StatusBadRequest, errs.CodeInvalidParameter)
	assert.Contains(t, httpErr.Message, `"voltage"`)

	rec = api.do(t, http.MethodGet, "/api/", "")
	requireError(t, rec, http.StatusBadRequest, errs.CodeInvalidParameter)
}

func TestGetAll_EmptyStorage(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/?sortBy=id", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCountByVoltage(t *testing.T) {
	api := newTestAPI(t, sampleChips())

	rec := api.do(t, http.MethodGet, "/api/volt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", strings.TrimSpace(rec.Body.String()))

	rec = api.do(t, http.MethodGet, "/api/volt?volt=1.8", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", strings.TrimSpace(rec.Body.String()))

	rec = api.do(t, http.MethodGet, "/api/volt?volt=100", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/volt?volt=high", "")
	requireError(t, rec, http.StatusBadRequest, "BAD_REQUEST")
}

func TestCreate(t *testing.T) {
	api := newTestAPI(t, sampleChips())

	rec := api.do(t, http.MethodPost, "/api/", `[{"id":5,"name":"eps","frameType":"SOP","price":5,"voltage":3.3},{"id":1,"name":"dup"}]`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []int64{3, 1, 2, 4, 5, 1}, model.IDs(decode[[]model.Microchip](t, rec)))

	stored, err := api.repo.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 6)

	rec = api.do(t, http.MethodPost, "/api", `[]`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decode[[]model.Microchip](t, rec), 6)
}

func TestCreate_BadBody(t *testing.T) {
	api := newTestAPI(t, sampleChips())

	for _, body := range []string{`[{"id":`, `{"id":1}`, `null`} {
		rec := api.do(t, http.MethodPost, "/api/", body)
		requireError(t, rec, http.StatusBadRequest, "BAD_REQUEST")
	}

	stored, err := api.repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleChips(), stored)
}

func TestReplaceFrameType(t *testing.T) {
	t.Run("only replaced by default", func(t *testing.T) {
		api := newTestAPI(t, sampleChips())

		rec := api.do(t, http.MethodPut, "/api/?formerFrameType=DIP&newFrameType=SMD", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode[[]model.Microchip](t, rec)
		assert.Equal(t, []int64{1, 4}, model.IDs(body))
		for _, chip := range body {
			assert.Equal(t, "SMD", chip.FrameType)
		}
	})

	t.Run("full collection", func(t *testing.T) {
		api := newTestAPI(t, sampleChips())

		rec := api.do(t, http.MethodPut, "/api?formerFrameType=DIP&newFrameType=SMD&printOnlyReplaced=false", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []int64{3, 1, 2, 4}, model.IDs(decode[[]model.Microchip](t, rec)))
	})

	t.Run("no match", func(t *testing.T) {
		api := newTestAPI(t, sampleChips())

		rec := api.do(t, http.MethodPut, "/api/?formerFrameType=ZIP&newFrameType=SMD", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		stored, err := api.repo.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sampleChips(), stored)
	})

	t.Run("missing parameter", func(t *testing.T) {
		api := newTestAPI(t, sampleChips())

		rec := api.do(t, http.MethodPut, "/api/?formerFrameType=DIP", "")
		httpErr := requireError(t, rec, http.StatusBadRequest, "BAD_REQUEST")
		require.Len(t, httpErr.Errors, 1)
		assert.Equal(t, "newFrameType", httpErr.Errors[0].Field)
		assert.Equal(t, "is required", httpErr.Errors[0].Error)
	})
}

func TestDelete(t *testing.T) {
	api := newTestAPI(t, sampleChips())

	rec := api.do(t, http.MethodDelete, "/api/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := api.repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 4}, model.IDs(stored))

	rec = api.do(t, http.MethodDelete, "/api/1", "")
	requireError(t, rec, http.StatusNotFound, errs.CodeMicrochipNotFound)
}

func TestCreateCountReplaceFlow(t *testing.T) {
	api := newTestAPI(t, []model.Microchip{{ID: 1, FrameType: "A", Price: 10, Voltage: 3.3}})

	rec := api.do(t, http.MethodPost, "/api/", `[{"id":2,"frameType":"B","price":20,"voltage":5.0}]`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decode[[]model.Microchip](t, rec), 2)

	rec = api.do(t, http.MethodGet, "/api/volt?volt=5.0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", strings.TrimSpace(rec.Body.String()))

	rec = api.do(t, http.MethodPut, "/api/?formerFrameType=A&newFrameType=C", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"","frameType":"C","price":10,"voltage":3.3}]`, rec.Body.String())
}

func TestSystemRoutes(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", status["status"])
	assert.Contains(t, status["checks"], "storage")

	rec = api.do(t, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/openapi.json")
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	rec = api.do(t, http.MethodGet, "/static/openapi.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatus_UnhealthyStorage(t *testing.T) {
	api := newTestAPI(t, nil, func(cfg *config.Config) {
		// a directory cannot be used as the collection file
		cfg.Storage.FilePath = t.TempDir()
	})

	rec := api.do(t, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decode[map[string]any](t, rec)["status"])
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/nope", "")
	httpErr := requireError(t, rec, http.StatusNotFound, "NOT_FOUND")
	assert.Equal(t, "Route not found", httpErr.Message)
}

func TestRequestID(t *testing.T) {
	api := newTestAPI(t, sampleChips())

	rec := api.do(t, http.MethodGet, "/api/1", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/1", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, sampleChips(), func(cfg *config.Config) {
		cfg.Server.RateLimit = 1
	})

	rec := api.do(t, http.MethodGet, "/api/volt", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/volt", "")
	requireError(t, rec, http.StatusTooManyRequests, "TOO_MANY_REQUESTS")

	// health checks are never limited
	rec = api.do(t, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmptyQueryValuesFallBackToDefaults(t *testing.T) {
	t.Run("volt", func(t *testing.T) {
		api := newTestAPI(t, sampleChips())

		rec := api.do(t, http.MethodGet, "/api/volt?volt=", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", strings.TrimSpace(rec.Body.String()))
	})

	t.Run("printOnlyReplaced", func(t *testing.T) {
		api := newTestAPI(t, sampleChips())

		rec := api.do(t, http.MethodPut, "/api/?formerFrameType=DIP&newFrameType=SMD&printOnlyReplaced=", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []int64{1, 4}, model.IDs(decode[[]model.Microchip](t, rec)))
	})
}

func TestReplaceFrameType_EmptyValues(t *testing.T) {
	t.Run("empty new frame type clears it", func(t *testing.T) {
		api := newTestAPI(t, sampleChips())

		rec := api.do(t, http.MethodPut, "/api/?formerFrameType=DIP&newFrameType=", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decode[[]model.Microchip](t, rec)
		assert.Equal(t, []int64{1, 4}, model.IDs(body))
		for _, chip := range body {
			assert.Empty(t, chip.FrameType)
		}

		stored, err := api.repo.Load(context.Background())
		require.NoError(t, err)
		for _, chip := range stored {
			if chip.ID == 1 || chip.ID == 4 {
				assert.Empty(t, chip.FrameType)
			}
		}
	})

	t.Run("empty former frame type matches unset frame types", func(t *testing.T) {
		api := newTestAPI(t, []model.Microchip{{ID: 1}, {ID: 2, FrameType: "DIP"}})

		rec := api.do(t, http.MethodPut, "/api/?formerFrameType=&newFrameType=QFP", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []int64{1}, model.IDs(decode[[]model.Microchip](t, rec)))
	})

	t.Run("both parameters absent", func(t *testing.T) {
		api := newTestAPI(t, sampleChips())

		rec := api.do(t, http.MethodPut, "/api/", "")
		httpErr := requireError(t, rec, http.StatusBadRequest, "BAD_REQUEST")
		assert.Equal(t, []errs.FieldError{
			{Field: "formerFrameType", Error: "is required"},
			{Field: "newFrameType", Error: "is required"},
		}, httpErr.Errors)
	})
}
