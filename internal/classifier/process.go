package classifier

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/ayusman/signbridge/internal/features"
)

// ErrNoCommand is returned when a Process is built without a command.
var ErrNoCommand = errors.New("classifier: no model command configured")

// Process runs the model in a long-lived subprocess. Each prediction writes
// one JSON line {"features":[...126]} to its stdin and reads one JSON line
// {"probabilities":[...]} from its stdout. The process is started on first
// use and restarted after an I/O failure.
type Process struct {
	name string
	args []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	started bool
}

// NewProcess creates a subprocess classifier for the given command line.
func NewProcess(command []string) (*Process, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, ErrNoCommand
	}
	return &Process{name: command[0], args: command[1:]}, nil
}

type processRequest struct {
	Features []float64 `json:"features"`
}

type processResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

// Predict sends v to the model process and returns its distribution.
func (p *Process) Predict(v features.Vector) ([]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureStarted(); err != nil {
		return nil, err
	}

	line, err := json.Marshal(processRequest{Features: v.Slice()})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	line = append(line, '\n')

	if _, err := p.stdin.Write(line); err != nil {
		p.shutdown()
		return nil, fmt.Errorf("write request: %w", err)
	}

	reply, err := p.stdout.ReadBytes('\n')
	if err != nil {
		p.shutdown()
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp processResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("model error: %s", resp.Error)
	}

	return resp.Probabilities, nil
}

// Close stops the model process.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shutdown()
}

func (p *Process) ensureStarted() error {
	if p.started {
		return nil
	}

	cmd := exec.Command(p.name, p.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start model process: %w", err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdout = bufio.NewReader(stdout)
	p.started = true

	return nil
}

func (p *Process) shutdown() error {
	if !p.started {
		return nil
	}

	p.stdin.Close()
	err := p.cmd.Wait()

	p.started = false
	p.cmd = nil
	p.stdin = nil
	p.stdout = nil

	return err
}
