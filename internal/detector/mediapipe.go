package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// idleShutdown is how long the Python process may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

// ErrScriptNotFound is returned when the MediaPipe service script cannot be located.
var ErrScriptNotFound = errors.New("mediapipe_service.py not found")

// MediaPipeEstimator implements Estimator using a Python MediaPipe subprocess.
//
// Protocol: each frame is written to stdin as a 4 byte big-endian length
// followed by JPEG bytes; the service answers with one JSON line
// {"hands":[{"points":[{x,y,z}...],"handedness":"Left","score":0.9}]}.
type MediaPipeEstimator struct {
	config    Config
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipeEstimator creates a new MediaPipe estimator.
// The Python process is started lazily on first estimation.
func NewMediaPipeEstimator(config Config) (*MediaPipeEstimator, error) {
	script := config.Script
	if script == "" {
		script = findMediaPipeScript()
	}
	if script == "" {
		return nil, ErrScriptNotFound
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("stat estimator script: %w", err)
	}

	return &MediaPipeEstimator{
		config: config,
		script: script,
	}, nil
}

// Estimate sends a frame to the service and returns the detected hands.
func (d *MediaPipeEstimator) Estimate(frame *gocv.Mat) (LandmarkSet, error) {
	if frame == nil || frame.Empty() {
		return LandmarkSet{}, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return LandmarkSet{}, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return LandmarkSet{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	// An I/O failure leaves the stream out of sync; drop the process so the
	// next call starts a fresh one.
	if _, err := d.stdin.Write(length); err != nil {
		d.shutdown()
		return LandmarkSet{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.shutdown()
		return LandmarkSet{}, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		d.shutdown()
		return LandmarkSet{}, fmt.Errorf("read response: %w", err)
	}

	hands, err := parseHands([]byte(line))
	if err != nil {
		return LandmarkSet{}, err
	}

	d.resetIdleTimer()

	return NewLandmarkSet(hands), nil
}

// Close shuts down the Python process.
func (d *MediaPipeEstimator) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeEstimator) ensureStarted() error {
	if d.started {
		return nil
	}

	python := d.config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	d.cmd = exec.Command(python, d.script,
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *MediaPipeEstimator) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeEstimator) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".signbridge/scripts/mediapipe_service.py"),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".signbridge/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// parseHands decodes one service response line. Hands with fewer than
// NumLandmarks points are rejected rather than zero-padded.
func parseHands(line []byte) ([]Hand, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	hands := make([]Hand, 0, len(response.Hands))
	for i, h := range response.Hands {
		if len(h.Points) < NumLandmarks {
			return nil, fmt.Errorf("hand %d has %d points, expected %d", i, len(h.Points), NumLandmarks)
		}
		hand := Hand{Handedness: h.Handedness, Score: h.Score}
		copy(hand.Points[:], h.Points)
		hands = append(hands, hand)
	}

	return hands, nil
}
