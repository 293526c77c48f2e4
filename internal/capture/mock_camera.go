package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back a fixed frame sequence. Once the sequence is
// exhausted, and loop is off, ReadFrame fails with ErrNoFrame the way a
// disconnected device does.
type MockCamera struct {
	frames  []*gocv.Mat
	index   int
	loop    bool
	reads   int
	mu      sync.Mutex
	running bool
}

// NewMockCamera returns a MockCamera over frames.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
	}
}

// NewBlankMockCamera returns a camera producing n blank 640x480 frames.
// The caller closes the returned Mats once done.
func NewBlankMockCamera(n int, loop bool) (*MockCamera, []*gocv.Mat) {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return NewMockCamera(frames, loop), frames
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if c.index >= len(c.frames) {
		if !c.loop || len(c.frames) == 0 {
			return nil, ErrNoFrame
		}
		c.index = 0
	}

	// Clone the frame so the original isn't modified
	frame := c.frames[c.index].Clone()
	c.index++
	c.reads++

	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {}
func (c *MockCamera) FPS() int       { return DefaultFPS }
func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reads returns the number of frames delivered so far.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
