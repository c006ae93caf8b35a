package handlers

import (
	"net/http"
	"sort"

	"github.com/faviy/demandcast/internal/scheduler"
)

// JobStatsProvider is the part of the scheduler the jobs endpoint reads
type JobStatsProvider interface {
	Stats() map[string]scheduler.JobStats
}

// JobsHandler reports scheduled job statistics
type JobsHandler struct {
	provider JobStatsProvider
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(provider JobStatsProvider) *JobsHandler {
	return &JobsHandler{provider: provider}
}

// ListJobs returns the statistics of every scheduled job, sorted by name
// GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	stats := h.provider.Stats()

	jobs := make([]scheduler.JobStats, 0, len(stats))
	for _, st := range stats {
		jobs = append(jobs, st)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].JobName < jobs[j].JobName })

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}
