package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faviy/demandcast/internal/api/handlers"
	"github.com/faviy/demandcast/internal/contracts"
	"github.com/faviy/demandcast/internal/metrics"
	"github.com/faviy/demandcast/internal/pipeline"
	"github.com/faviy/demandcast/internal/scheduler"
	"github.com/faviy/demandcast/internal/store"
	"github.com/faviy/demandcast/pkg/logger"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func fixtureForecast() contracts.ForecastSeries {
	return contracts.ForecastSeries{
		Product:       "milk",
		Method:        contracts.MethodDecomposition,
		FittedThrough: day0,
		Horizon:       1,
		Points: []contracts.ForecastPoint{
			{Date: day0, Predicted: 10, LowerBound: 8, UpperBound: 12},
			{Date: day0.AddDate(0, 0, 1), Predicted: 11, LowerBound: 8, UpperBound: 14},
		},
	}
}

type fixture struct {
	router http.Handler
	store  *store.MemoryStore
	sink   *pipeline.FileSink
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := store.NewMemoryStore()
	sink := pipeline.NewFileSink(t.TempDir()+"/processed", t.TempDir(), false)
	sched := scheduler.New(logger.Nop())

	router := NewRouter(Routes{
		Artifacts: handlers.NewArtifactHandler(mem, sink, logger.Nop()),
		Jobs:      handlers.NewJobsHandler(sched),
		Metrics:   metrics.New().Handler(),
	}, logger.Nop())
	return fixture{router: router, store: mem, sink: sink}
}

func (f fixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec, body := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestArtifacts_NotYetAvailable(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/products", "/api/forecasts/milk", "/api/series/milk", "/api/accuracy"} {
		t.Run(path, func(t *testing.T) {
			rec, body := f.get(t, path)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, handlers.StatusNotYetAvailable, body["status"])
		})
	}
}

func TestArtifacts_AfterRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, "milk", fixtureForecast()))

	series := contracts.DailySeries{Product: "curd", Points: []contracts.Point{
		{Date: day0, Value: 4}, {Date: day0.AddDate(0, 0, 1), Value: 5},
	}}
	require.NoError(t, f.sink.WriteSeries(ctx, contracts.ProductSeries{Product: "curd", Raw: series, Smoothed: series}))
	require.NoError(t, f.sink.WriteSummary(ctx, contracts.AccuracySummary{Records: []contracts.AccuracyRecord{
		{Product: "milk", MAE: 1, RMSE: 2, MAPE: 12.5},
		{Product: "curd", MAE: 3, RMSE: 4, MAPE: 3.1},
	}}))

	t.Run("products", func(t *testing.T) {
		rec, body := f.get(t, "/api/products")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 2, body["count"])
		products := body["products"].([]interface{})
		first := products[0].(map[string]interface{})
		assert.Equal(t, "curd", first["product"])
		assert.Equal(t, true, first["has_series"])
		assert.Equal(t, false, first["has_forecast"])
	})

	t.Run("forecast by display name", func(t *testing.T) {
		rec, body := f.get(t, "/api/forecasts/Milk")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "milk", body["product"])
		assert.Len(t, body["points"], 2)
	})

	t.Run("series", func(t *testing.T) {
		rec, body := f.get(t, "/api/series/curd")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, body["points"], 2)
	})

	t.Run("accuracy sorted", func(t *testing.T) {
		rec, body := f.get(t, "/api/accuracy?sort=MAPE&desc=true")
		require.Equal(t, http.StatusOK, rec.Code)
		records := body["records"].([]interface{})
		require.Len(t, records, 2)
		assert.Equal(t, "milk", records[0].(map[string]interface{})["product"])
	})

	t.Run("bad desc", func(t *testing.T) {
		rec, _ := f.get(t, "/api/accuracy?desc=maybe")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestJobsAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec, body := f.get(t, "/api/jobs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["count"])

	rec, _ = f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
