package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/faviy/demandcast/internal/artifact"
	"github.com/faviy/demandcast/internal/contracts"
	"github.com/faviy/demandcast/internal/pipeline"
	"github.com/faviy/demandcast/pkg/logger"
)

// ArtifactHandler serves the pipeline artifacts read-only
// ⭐ SSOT: 산출물 조회 API는 이 구조체에서만
type ArtifactHandler struct {
	store  contracts.ForecastStore
	files  *pipeline.FileSink
	logger *logger.Logger
}

// NewArtifactHandler creates a new artifact handler.
// files locates the cleaned series and the accuracy summary; store serves forecasts.
func NewArtifactHandler(store contracts.ForecastStore, files *pipeline.FileSink, log *logger.Logger) *ArtifactHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ArtifactHandler{
		store:  store,
		files:  files,
		logger: log.WithField("component", "api.artifacts"),
	}
}

type productView struct {
	Product     string `json:"product"`
	DisplayName string `json:"display_name"`
	HasForecast bool   `json:"has_forecast"`
	HasSeries   bool   `json:"has_series"`
}

// ListProducts lists every product with a stored forecast or a cleaned series
// GET /api/products
func (h *ArtifactHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	forecasts, err := h.store.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list forecasts")
		respondError(w, http.StatusInternalServerError, "failed to list forecasts")
		return
	}

	cleaned, err := pipeline.ListCleaned(h.files.DataDir)
	if err != nil && !errors.Is(err, contracts.ErrMissingArtifact) {
		h.logger.WithError(err).Error("Failed to list cleaned series")
		respondError(w, http.StatusInternalServerError, "failed to list cleaned series")
		return
	}

	if len(forecasts) == 0 && len(cleaned) == 0 {
		respondArtifactError(w, contracts.ErrMissingArtifact, "products")
		return
	}

	byKey := make(map[string]*productView)
	view := func(key string) *productView {
		if v, ok := byKey[key]; ok {
			return v
		}
		v := &productView{Product: key, DisplayName: contracts.DisplayName(key)}
		byKey[key] = v
		return v
	}
	for _, p := range forecasts {
		view(p).HasForecast = true
	}
	for _, p := range cleaned {
		view(p).HasSeries = true
	}

	products := make([]productView, 0, len(byKey))
	for _, v := range byKey {
		products = append(products, *v)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Product < products[j].Product })

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// GetForecast returns the stored forecast of one product
// GET /api/forecasts/{product}
func (h *ArtifactHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	product := contracts.ProductKey(mux.Vars(r)["product"])
	if product == "" {
		respondError(w, http.StatusBadRequest, "product is required")
		return
	}

	forecast, err := h.store.Load(r.Context(), product)
	if err != nil {
		h.logger.WithField("product", product).WithError(err).Debug("Forecast lookup failed")
		respondArtifactError(w, err, "forecast")
		return
	}

	respondJSON(w, http.StatusOK, forecast)
}

// GetSeries returns the cleaned (smoothed) daily series of one product
// GET /api/series/{product}
func (h *ArtifactHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	product := contracts.ProductKey(mux.Vars(r)["product"])
	if product == "" {
		respondError(w, http.StatusBadRequest, "product is required")
		return
	}

	f, err := artifact.Open(h.files.CleanedPath(product))
	if err != nil {
		respondArtifactError(w, err, "series")
		return
	}
	defer f.Close()

	series, err := artifact.ReadCleaned(f, product)
	if err != nil {
		h.logger.WithField("product", product).WithError(err).Error("Failed to read cleaned series")
		respondArtifactError(w, err, "series")
		return
	}

	respondJSON(w, http.StatusOK, series)
}

// GetAccuracy returns the accuracy summary of the latest run
// GET /api/accuracy?sort=MAPE&desc=false
func (h *ArtifactHandler) GetAccuracy(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("sort")
	if metric == "" {
		metric = contracts.MetricMAPE
	}
	desc := false
	if v := r.URL.Query().Get("desc"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "desc must be a boolean")
			return
		}
		desc = parsed
	}

	f, err := artifact.Open(h.files.SummaryPath())
	if err != nil {
		respondArtifactError(w, err, "accuracy")
		return
	}
	defer f.Close()

	summary, err := artifact.ReadAccuracy(f)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read accuracy summary")
		respondArtifactError(w, err, "accuracy")
		return
	}
	summary.SortBy(metric, desc)

	respondJSON(w, http.StatusOK, summary)
}
