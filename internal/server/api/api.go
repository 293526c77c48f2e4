// Package api implements the JSON HTTP handlers of the signbridge server.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/signbridge/internal/labels"
	"github.com/ayusman/signbridge/internal/telemetry"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// LabelsHandler serves GET /api/labels.
type LabelsHandler struct {
	labels *labels.Set
}

// NewLabelsHandler creates a LabelsHandler for set.
func NewLabelsHandler(set *labels.Set) *LabelsHandler {
	return &LabelsHandler{labels: set}
}

type labelsResponse struct {
	Labels []labels.Label `json:"labels"`
}

func (h *LabelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, labelsResponse{Labels: h.labels.All()})
}

// StatsHandler serves GET /api/stats from a telemetry recorder.
type StatsHandler struct {
	recorder *telemetry.Recorder
}

// NewStatsHandler creates a StatsHandler for recorder.
func NewStatsHandler(recorder *telemetry.Recorder) *StatsHandler {
	return &StatsHandler{recorder: recorder}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.recorder.Snapshot())
}
