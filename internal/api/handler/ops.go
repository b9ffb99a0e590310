// Package handler provides HTTP handlers for the ops server.
package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pribilofwx/forecastd/internal/api/response"
	"github.com/pribilofwx/forecastd/internal/health"
	"github.com/pribilofwx/forecastd/internal/storage"
)

// OpsHandler serves the read-only operational endpoints. All responses
// are built from the files the collector writes; the handler never
// touches upstream services.
type OpsHandler struct {
	version   string
	buildTime string
	dataDir   string
}

// NewOpsHandler creates a new OpsHandler reading from the given data directory.
func NewOpsHandler(version, buildTime, dataDir string) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		dataDir:   dataDir,
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Time      time.Time `json:"time"`
	Version   string    `json:"version"`
	BuildTime string    `json:"buildTime,omitempty"`
}

// HealthCheck handles GET /health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Time:      time.Now().UTC(),
		Version:   h.version,
		BuildTime: h.buildTime,
	})
}

// Status handles GET /status - the human-readable collector report.
func (h *OpsHandler) Status(w http.ResponseWriter, _ *http.Request) {
	body, err := os.ReadFile(filepath.Join(h.dataDir, health.ReportFileName))
	if err != nil {
		response.Text(w, http.StatusOK, []byte("No health report generated yet.\n"))
		return
	}
	response.Text(w, http.StatusOK, body)
}

// Latest handles GET /latest - the combined forecast document.
func (h *OpsHandler) Latest(w http.ResponseWriter, _ *http.Request) {
	body, err := os.ReadFile(filepath.Join(h.dataDir, storage.CombinedJSONName))
	if err != nil {
		response.NotFound(w, "no forecast collected yet")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
