package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/signbridge/internal/classifier"
	"github.com/ayusman/signbridge/internal/inference"
	"github.com/ayusman/signbridge/internal/sentence"
	"github.com/ayusman/signbridge/internal/telemetry"
)

// MaxMessageSize bounds a single client message; a 640x480 JPEG data URL
// fits comfortably.
const MaxMessageSize = 4 << 20

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Browser clients are served from other origins
	},
}

// predictReply is sent once per client message.
type predictReply struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Sentence   string  `json:"sentence"`
	Token      string  `json:"token,omitempty"`
}

// PredictHandler classifies observations sent over a WebSocket. Each
// connection owns its own sentence engine.
type PredictHandler struct {
	orchestrator *inference.Orchestrator
	engineCfg    sentence.Config
	recorder     *telemetry.Recorder
	log          *slog.Logger
}

// NewPredictHandler creates a PredictHandler. The recorder may be nil.
func NewPredictHandler(o *inference.Orchestrator, cfg sentence.Config, recorder *telemetry.Recorder, logger *slog.Logger) *PredictHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictHandler{
		orchestrator: o,
		engineCfg:    cfg,
		recorder:     recorder,
		log:          logger.With("component", "server.PredictHandler"),
	}
}

// ServeHTTP upgrades the request and serves request/response exchanges
// until the client goes away or a transport error occurs.
func (h *PredictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxMessageSize)

	connID := uuid.NewString()
	log := h.log.With("conn_id", connID)
	metrics := h.recorder.StartStream(connID, r.RemoteAddr)
	engine := sentence.NewEngine(h.engineCfg)
	log.Info("client connected", "remote", r.RemoteAddr)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				metrics.Finish(nil)
				return
			}
			log.Info("connection closed", "error", err)
			metrics.Finish(err)
			return
		}

		reply := h.handle(log, engine, metrics, msgType, msg)
		if err := conn.WriteJSON(reply); err != nil {
			log.Info("write failed, closing connection", "error", err)
			metrics.Finish(err)
			return
		}
	}
}

func (h *PredictHandler) handle(log *slog.Logger, engine *sentence.Engine, metrics *telemetry.StreamMetrics, msgType int, msg []byte) predictReply {
	var req request
	if msgType == websocket.BinaryMessage {
		req = request{kind: requestImage, image: msg}
	} else {
		var err error
		req, err = decodeRequest(msg)
		if err != nil {
			log.Debug("undecodable message treated as no hands", "error", err)
		}
	}

	if req.kind == requestReset {
		engine.Reset()
		return predictReply{Label: classifier.NoHandsResult().Label}
	}

	result := h.classify(log, req)
	out := inference.Observe(engine, result)

	metrics.RecordObservation(result.Code)
	if out.Appended {
		metrics.RecordToken(out.Token)
	}

	return predictReply{
		Label:      result.Label,
		Confidence: result.Confidence,
		Sentence:   strings.Join(out.Sentence, " "),
		Token:      out.Token,
	}
}

func (h *PredictHandler) classify(log *slog.Logger, req request) classifier.Result {
	switch req.kind {
	case requestFeatures:
		return h.orchestrator.ClassifyVector(req.features)
	case requestLandmarks:
		return h.orchestrator.ClassifyLandmarks(req.landmarks)
	case requestImage:
		mat, err := gocv.IMDecode(req.image, gocv.IMReadColor)
		if err != nil {
			log.Debug("image decode failed", "error", err)
			return classifier.NoHandsResult()
		}
		defer mat.Close()
		if mat.Empty() {
			return classifier.NoHandsResult()
		}
		return h.orchestrator.Classify(&mat)
	}
	return classifier.NoHandsResult()
}
