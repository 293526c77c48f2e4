package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/signbridge/internal/collect"
	"github.com/ayusman/signbridge/internal/labels"
	"github.com/ayusman/signbridge/internal/store"
	"github.com/ayusman/signbridge/internal/telemetry"
)

type stubCounter struct {
	counts map[int]int
	err    error
}

func (s stubCounter) Counts() (map[int]int, error) { return s.counts, s.err }

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLabelsHandler(t *testing.T) {
	h := NewLabelsHandler(labels.MustDefault())

	t.Run("lists labels in code order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/labels", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp labelsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Labels) != 10 || resp.Labels[4].Name != "Hello" {
			t.Errorf("labels = %+v", resp.Labels)
		}
	})

	t.Run("rejects POST", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/labels", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

func TestSamplesHandler_Counts(t *testing.T) {
	h := NewSamplesHandler(stubCounter{counts: map[int]int{0: 40, 4: 12}}, labels.MustDefault())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/samples/counts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp countsResponse
	json.NewDecoder(rec.Body).Decode(&resp)

	if resp.Total != 52 {
		t.Errorf("total = %d, want 52", resp.Total)
	}
	if len(resp.Labels) != 10 {
		t.Fatalf("len(labels) = %d, want 10", len(resp.Labels))
	}
	if resp.Labels[0].Count != 40 || resp.Labels[4].Count != 12 || resp.Labels[1].Count != 0 {
		t.Errorf("labels = %+v", resp.Labels)
	}
}

func TestSamplesHandler_CountsError(t *testing.T) {
	h := NewSamplesHandler(stubCounter{err: errors.New("disk gone")}, labels.MustDefault())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/samples/counts", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestSamplesHandler_Sessions(t *testing.T) {
	s := setupStore(t)
	set := labels.MustDefault()
	sample := collect.LabeledSample{Label: 5}
	sample.Features[0] = 0.5
	if err := s.Append("sess-1", []collect.LabeledSample{sample, sample}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	h := NewSamplesHandler(s, set)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/samples/sessions", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp listSessionsResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if len(resp.Sessions) != 1 || resp.Sessions[0].Name != "My" || resp.Sessions[0].Samples != 2 {
			t.Errorf("sessions = %+v", resp.Sessions)
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/samples/sessions/sess-1", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/samples/sessions/nope", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("csv backend has no sessions", func(t *testing.T) {
		csv, _ := store.NewCSV(filepath.Join(t.TempDir(), "data.csv"))
		h := NewSamplesHandler(csv, set)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/samples/sessions", nil))
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotImplemented)
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/samples/everything", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestStatsHandler(t *testing.T) {
	recorder := telemetry.NewRecorder(nil)
	recorder.StartStream("c", "").RecordObservation(1)

	rec := httptest.NewRecorder()
	NewStatsHandler(recorder).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	var snap telemetry.Snapshot
	json.NewDecoder(rec.Body).Decode(&snap)
	if snap.TotalObservations != 1 || snap.ActiveConnections != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}
