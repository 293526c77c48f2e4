package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ayusman/signbridge/internal/collect"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/labels"
	"github.com/ayusman/signbridge/internal/store"
)

func TestAPI_DatasetWorkflow(t *testing.T) {
	// Setup
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	set := labels.MustDefault()
	machine, err := collect.NewMachine(collect.DefaultConfig(), set, s, nil)
	if err != nil {
		t.Fatalf("NewMachine() error = %v", err)
	}

	// 1. Record 25 frames of "Hello"; 15 survive the trailing drop.
	palm := detector.OpenPalm()
	obs := detector.LandmarkSet{Right: &palm}
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	machine.Tick(t0, collect.Trigger(4), obs)
	now := t0.Add(collect.DefaultCountdown)
	for i := 0; i < 25; i++ {
		machine.Tick(now, collect.Event{}, obs)
		now = now.Add(time.Second / 15)
	}
	st, err := machine.Tick(now, collect.Stop(), obs)
	if err != nil {
		t.Fatalf("stop error = %v", err)
	}
	if st.Summary == nil || st.Summary.Saved != 15 {
		t.Fatalf("summary = %+v, want 15 saved", st.Summary)
	}

	srv := New(Config{Dataset: s, Labels: set})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 2. Counts reflect the saved recording
	resp, err := client.Get(ts.URL + "/api/samples/counts")
	if err != nil {
		t.Fatalf("GET /api/samples/counts error = %v", err)
	}
	var counts struct {
		Labels []struct {
			Code  int `json:"code"`
			Count int `json:"count"`
		} `json:"labels"`
		Total int `json:"total"`
	}
	json.NewDecoder(resp.Body).Decode(&counts)
	resp.Body.Close()

	if counts.Total != 15 || counts.Labels[4].Count != 15 {
		t.Errorf("counts = %+v, want 15 for Hello", counts)
	}

	// 3. The session is listed
	resp, _ = client.Get(ts.URL + "/api/samples/sessions")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/samples/sessions status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var listed struct {
		Sessions []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Samples int    `json:"samples"`
		} `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Sessions) != 1 || listed.Sessions[0].ID != st.Summary.Session {
		t.Fatalf("sessions = %+v", listed.Sessions)
	}

	// 4. Get single session
	resp, _ = client.Get(ts.URL + "/api/samples/sessions/" + st.Summary.Session)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET session status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status  string `json:"status"`
		Uptime  string `json:"uptime"`
		Predict bool   `json:"predict"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
	if health.Predict {
		t.Error("predict should be disabled without an orchestrator")
	}
}

func TestServer_RunShutsDown(t *testing.T) {
	srv := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestHealthServer(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := NewHealthServer(nil)
	done := make(chan error, 1)
	go func() { done <- h.Serve(ctx, lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer conn.Close()

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()
	resp, err := healthgrpc.NewHealthClient(conn).Check(callCtx, &healthgrpc.HealthCheckRequest{Service: HealthServiceName})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if resp.GetStatus() != healthgrpc.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve() error = %v", err)
	}
}
