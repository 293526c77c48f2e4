package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/signbridge/internal/labels"
	"github.com/ayusman/signbridge/internal/store"
)

// Counter reports stored samples per label.
type Counter interface {
	Counts() (map[int]int, error)
}

// SessionLister is implemented by datasets that keep recording sessions.
type SessionLister interface {
	Sessions() ([]store.Session, error)
	GetSession(id string) (*store.Session, error)
}

// SamplesHandler handles HTTP requests for the collected dataset.
type SamplesHandler struct {
	counter Counter
	labels  *labels.Set
}

// NewSamplesHandler creates a new SamplesHandler over c.
func NewSamplesHandler(c Counter, set *labels.Set) *SamplesHandler {
	return &SamplesHandler{counter: c, labels: set}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/samples/counts, /api/samples/sessions[/{id}]
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/samples"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "counts":
		h.counts(w)
	case parts[0] == "sessions" && len(parts) == 1:
		h.sessions(w)
	case parts[0] == "sessions" && len(parts) == 2:
		h.session(w, parts[1])
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Response types

type labelCount struct {
	Code  int    `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type countsResponse struct {
	Labels []labelCount `json:"labels"`
	Total  int          `json:"total"`
}

type sessionResponse struct {
	ID        string `json:"id"`
	Label     int    `json:"label"`
	Name      string `json:"name"`
	Samples   int    `json:"samples"`
	CreatedAt string `json:"created_at"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

// counts handles GET /api/samples/counts. Every configured label is listed,
// including those without samples.
func (h *SamplesHandler) counts(w http.ResponseWriter) {
	counts, err := h.counter.Counts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count samples")
		return
	}

	all := h.labels.All()
	response := countsResponse{Labels: make([]labelCount, 0, len(all))}
	for _, l := range all {
		response.Labels = append(response.Labels, labelCount{Code: l.Code, Name: l.Name, Count: counts[l.Code]})
	}
	for _, n := range counts {
		response.Total += n
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *SamplesHandler) lister(w http.ResponseWriter) (SessionLister, bool) {
	l, ok := h.counter.(SessionLister)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Storage backend does not record sessions")
	}
	return l, ok
}

// sessions handles GET /api/samples/sessions
func (h *SamplesHandler) sessions(w http.ResponseWriter) {
	lister, ok := h.lister(w)
	if !ok {
		return
	}

	sessions, err := lister.Sessions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, h.toResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// session handles GET /api/samples/sessions/{id}
func (h *SamplesHandler) session(w http.ResponseWriter, id string) {
	lister, ok := h.lister(w)
	if !ok {
		return
	}

	s, err := lister.GetSession(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(*s))
}

func (h *SamplesHandler) toResponse(s store.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		Label:     s.Label,
		Name:      h.labels.Name(s.Label),
		Samples:   s.Samples,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}
