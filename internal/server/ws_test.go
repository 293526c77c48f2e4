package server

import (
	"encoding/base64"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/signbridge/internal/classifier"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/features"
	"github.com/ayusman/signbridge/internal/inference"
	"github.com/ayusman/signbridge/internal/labels"
	"github.com/ayusman/signbridge/internal/sentence"
	"github.com/ayusman/signbridge/internal/telemetry"
)

// fixedClassifier predicts code with confidence p for every input.
func fixedClassifier(code int, p float64) classifier.Func {
	return func(features.Vector) ([]float64, error) {
		probs := make([]float64, 10)
		probs[code] = p
		return probs, nil
	}
}

func newPredictServer(t *testing.T, est detector.Estimator, clf classifier.Classifier) (*httptest.Server, *telemetry.Recorder) {
	t.Helper()
	o, err := inference.New(est, clf, labels.MustDefault(), nil)
	if err != nil {
		t.Fatalf("inference.New() error = %v", err)
	}
	recorder := telemetry.NewRecorder(nil)
	srv := New(Config{
		Orchestrator: o,
		Sentence:     sentence.DefaultConfig(),
		Telemetry:    recorder,
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, recorder
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, msg string) predictReply {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply predictReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return reply
}

func TestPredict_Landmarks(t *testing.T) {
	ts, recorder := newPredictServer(t, nil, fixedClassifier(4, 0.95))
	conn := dial(t, ts)

	msg := `{"right":` + points(21) + `}`
	var reply predictReply
	for i := 0; i < 9; i++ {
		reply = exchange(t, conn, msg)
		if reply.Token != "" {
			t.Fatalf("token appended after %d frames", i+1)
		}
	}
	if reply.Label != "Hello" || reply.Confidence != 0.95 {
		t.Errorf("reply = %+v, want Hello at 0.95", reply)
	}

	reply = exchange(t, conn, msg)
	if reply.Token != "Hello" || reply.Sentence != "Hello" {
		t.Errorf("10th reply = %+v, want appended Hello", reply)
	}

	reply = exchange(t, conn, msg)
	if reply.Token != "" || reply.Sentence != "Hello" {
		t.Errorf("repeat reply = %+v, want no new token", reply)
	}

	snap := recorder.Snapshot()
	if snap.TotalObservations != 11 || snap.TotalTokens != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestPredict_NoHandsDefaults(t *testing.T) {
	calls := 0
	clf := classifier.Func(func(features.Vector) ([]float64, error) {
		calls++
		return make([]float64, 10), nil
	})
	ts, _ := newPredictServer(t, detector.NewMockEstimator(), clf)
	conn := dial(t, ts)

	for _, msg := range []string{"hello", `{}`, `{"features":[1,2`, "data:image/jpeg;base64,not-an-image"} {
		reply := exchange(t, conn, msg)
		if reply.Label != labels.NoHandsName || reply.Confidence != 0 {
			t.Errorf("message %q: reply = %+v, want No Hands", msg, reply)
		}
	}
	if calls != 0 {
		t.Errorf("classifier called %d times for undecodable messages", calls)
	}

	// The connection must survive decode failures.
	reply := exchange(t, conn, "reset")
	if reply.Label != labels.NoHandsName || reply.Sentence != "" {
		t.Errorf("reset reply = %+v", reply)
	}
}

func TestPredict_Reset(t *testing.T) {
	ts, _ := newPredictServer(t, nil, fixedClassifier(0, 0.9))
	conn := dial(t, ts)

	msg := `{"left":` + points(21) + `}`
	for i := 0; i < 10; i++ {
		exchange(t, conn, msg)
	}
	if reply := exchange(t, conn, msg); reply.Sentence != "A" {
		t.Fatalf("sentence = %q, want A", reply.Sentence)
	}

	exchange(t, conn, "reset")

	// After reset the window is empty again, so nine frames are not enough.
	var reply predictReply
	for i := 0; i < 9; i++ {
		reply = exchange(t, conn, msg)
	}
	if reply.Sentence != "" {
		t.Errorf("sentence after reset = %q, want empty", reply.Sentence)
	}
}

func TestPredict_ConnectionsAreIndependent(t *testing.T) {
	ts, recorder := newPredictServer(t, nil, fixedClassifier(1, 0.99))
	a := dial(t, ts)
	b := dial(t, ts)

	msg := `{"right":` + points(21) + `}`
	for i := 0; i < 10; i++ {
		exchange(t, a, msg)
	}
	if reply := exchange(t, b, msg); reply.Sentence != "" {
		t.Errorf("connection b sentence = %q, want empty", reply.Sentence)
	}

	a.Close()
	if reply := exchange(t, b, msg); reply.Label != "B" {
		t.Errorf("connection b broken after a closed: %+v", reply)
	}

	if snap := recorder.Snapshot(); snap.TotalConnections != 2 {
		t.Errorf("TotalConnections = %d, want 2", snap.TotalConnections)
	}
}

func TestPredict_Image(t *testing.T) {
	est := detector.NewMockEstimator()
	palm := detector.OpenPalm()
	est.SetLandmarks(detector.LandmarkSet{Right: &palm})
	ts, _ := newPredictServer(t, est, fixedClassifier(7, 0.85))
	conn := dial(t, ts)

	img := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		t.Fatalf("IMEncode() error = %v", err)
	}
	defer buf.Close()

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.GetBytes())
	reply := exchange(t, conn, dataURL)
	if reply.Label != "T" || reply.Confidence != 0.85 {
		t.Errorf("reply = %+v, want T at 0.85", reply)
	}
	if est.Calls() != 1 {
		t.Errorf("estimator calls = %d, want 1", est.Calls())
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, buf.GetBytes()); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	var binReply predictReply
	if err := conn.ReadJSON(&binReply); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if binReply.Label != "T" {
		t.Errorf("binary reply = %+v, want T", binReply)
	}
}
