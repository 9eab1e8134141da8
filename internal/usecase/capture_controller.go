package usecase

import (
	"context"
	"sync"

	"meetingai/internal/ports"
)

// captureController forwards at most one start and one stop per session to
// the external capture pipeline.
type captureController struct {
	control ports.CaptureControl

	mu        sync.Mutex
	requested bool
	stopped   bool
}

func newCaptureController(control ports.CaptureControl) *captureController {
	return &captureController{control: control}
}

func (c *captureController) start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.requested || c.stopped {
		return nil
	}
	c.requested = true
	return c.control.Start(ctx)
}

// stop also prevents a start that has not run yet from ever running.
func (c *captureController) stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return nil
	}
	c.stopped = true
	if !c.requested {
		return nil
	}
	return c.control.Stop()
}
