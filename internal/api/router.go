package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/faviy/demandcast/internal/api/handlers"
	"github.com/faviy/demandcast/pkg/logger"
)

// Routes collects the handlers mounted by NewRouter; nil entries are not mounted
type Routes struct {
	Artifacts *handlers.ArtifactHandler
	Jobs      *handlers.JobsHandler
	Metrics   http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(routes Routes, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Artifact endpoints
	if h := routes.Artifacts; h != nil {
		api.HandleFunc("/products", h.ListProducts).Methods("GET")
		api.HandleFunc("/forecasts/{product}", h.GetForecast).Methods("GET")
		api.HandleFunc("/series/{product}", h.GetSeries).Methods("GET")
		api.HandleFunc("/accuracy", h.GetAccuracy).Methods("GET")
	}

	// Scheduler endpoints
	if h := routes.Jobs; h != nil {
		api.HandleFunc("/jobs", h.ListJobs).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "demandcast-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
