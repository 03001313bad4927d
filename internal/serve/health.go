package serve

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/alescoulie/sitegen/internal/version"
)

// HealthStatus classifies the preview server state.
type HealthStatus string

const (
	HealthOK        HealthStatus = "ok"
	HealthDegraded  HealthStatus = "degraded"  // serving a previous good build, latest rebuild failed
	HealthUnhealthy HealthStatus = "unhealthy" // no successful build yet
)

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status            HealthStatus `json:"status"`
	Timestamp         time.Time    `json:"timestamp"`
	Uptime            string       `json:"uptime"`
	Version           string       `json:"version"`
	LiveReloadClients int          `json:"livereload_clients"`
	LastBuild         *HealthBuild `json:"last_build,omitempty"`
	Error             string       `json:"error,omitempty"`
}

// HealthBuild summarizes the most recent build.
type HealthBuild struct {
	BuildID  string    `json:"build_id"`
	Outcome  string    `json:"outcome"`
	Posts    int       `json:"posts"`
	Projects int       `json:"projects"`
	Pages    int       `json:"pages"`
	Finished time.Time `json:"finished"`
	Skipped  bool      `json:"skipped,omitempty"`
}

func (s *Server) healthResponse() HealthResponse {
	lastErr, report, good := s.status.snapshot()
	resp := HealthResponse{
		Status:            HealthOK,
		Timestamp:         time.Now(),
		Uptime:            time.Since(s.started).Truncate(time.Second).String(),
		Version:           version.Version,
		LiveReloadClients: s.hub.ClientCount(),
	}
	switch {
	case !good:
		resp.Status = HealthUnhealthy
	case lastErr != nil:
		resp.Status = HealthDegraded
	}
	if lastErr != nil {
		resp.Error = lastErr.Error()
	}
	if report != nil {
		resp.LastBuild = &HealthBuild{
			BuildID:  report.BuildID,
			Outcome:  report.Outcome,
			Posts:    report.Posts,
			Projects: report.Projects,
			Pages:    report.Pages,
			Finished: report.End,
			Skipped:  report.SkipReason != "",
		}
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := s.healthResponse()
	w.Header().Set("Content-Type", "application/json")
	if resp.Status == HealthUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
