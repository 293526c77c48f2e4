// Package sentence turns a stream of noisy per-frame classifications into a
// short, debounced sequence of sign tokens.
package sentence

import (
	"strings"

	"github.com/ayusman/signbridge/internal/classifier"
	"github.com/ayusman/signbridge/internal/labels"
)

// Default tuning.
const (
	DefaultWindow    = 10
	DefaultThreshold = 0.8
	DefaultMaxTokens = 6
	DefaultNoOp      = 3
)

// Config holds the engine tuning.
type Config struct {
	// Window is the number of most recent frames that must agree.
	Window int
	// Threshold is the minimum confidence, inclusive.
	Threshold float64
	// MaxTokens bounds the sentence length; older tokens are dropped.
	MaxTokens int
	// NoOp is the label code that never enters the sentence.
	NoOp int
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Window:    DefaultWindow,
		Threshold: DefaultThreshold,
		MaxTokens: DefaultMaxTokens,
		NoOp:      DefaultNoOp,
	}
}

// Engine is the per-stream stabilization state. It is not safe for
// concurrent use; each connection or capture loop owns its own Engine.
type Engine struct {
	cfg    Config
	window []int
	tokens []string
}

// NewEngine creates an Engine. Non-positive Window or MaxTokens fall back
// to the defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Engine{
		cfg:    cfg,
		window: make([]int, 0, cfg.Window),
		tokens: make([]string, 0, cfg.MaxTokens+1),
	}
}

// Observe feeds one classification. It returns the token and true when the
// observation appended a token to the sentence.
func (e *Engine) Observe(r classifier.Result) (string, bool) {
	if len(e.window) == e.cfg.Window {
		copy(e.window, e.window[1:])
		e.window = e.window[:e.cfg.Window-1]
	}
	e.window = append(e.window, r.Code)

	if !e.stable(r.Code) || r.Confidence < e.cfg.Threshold {
		return "", false
	}
	if r.Code == e.cfg.NoOp || r.Code == labels.NoHands || r.Code == labels.Unknown {
		return "", false
	}
	if n := len(e.tokens); n > 0 && e.tokens[n-1] == r.Label {
		return "", false
	}

	e.tokens = append(e.tokens, r.Label)
	if len(e.tokens) > e.cfg.MaxTokens {
		e.tokens = append(e.tokens[:0], e.tokens[len(e.tokens)-e.cfg.MaxTokens:]...)
	}
	return r.Label, true
}

// stable reports whether the window is full and every frame in it carries
// code. A single deviating frame breaks stability.
func (e *Engine) stable(code int) bool {
	if len(e.window) < e.cfg.Window {
		return false
	}
	for _, c := range e.window {
		if c != code {
			return false
		}
	}
	return true
}

// Reset clears the sentence and the stability window.
func (e *Engine) Reset() {
	e.window = e.window[:0]
	e.tokens = e.tokens[:0]
}

// Sentence returns a copy of the current tokens, oldest first.
func (e *Engine) Sentence() []string {
	out := make([]string, len(e.tokens))
	copy(out, e.tokens)
	return out
}

// String joins the tokens with spaces.
func (e *Engine) String() string {
	return strings.Join(e.tokens, " ")
}
