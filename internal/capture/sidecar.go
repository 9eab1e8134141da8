package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultStartupWindow = 250 * time.Millisecond
	defaultStopGrace     = 1200 * time.Millisecond
	stderrTailLimit      = 8 << 10
)

// Config describes how the capture sidecar process is launched.
type Config struct {
	Command       string
	Args          []string
	Dir           string
	StartupWindow time.Duration
	StopGrace     time.Duration
}

// Sidecar starts and stops the capture/transcription sidecar process.
type Sidecar struct {
	cfg Config
	log zerolog.Logger

	mu      sync.Mutex
	process *sidecarProcess
}

func NewSidecar(cfg Config, log zerolog.Logger) *Sidecar {
	if cfg.StartupWindow <= 0 {
		cfg.StartupWindow = defaultStartupWindow
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = defaultStopGrace
	}
	return &Sidecar{cfg: cfg, log: log.With().Str("component", "capture").Str("command", cfg.Command).Logger()}
}

// Start spawns the sidecar. It is a no-op while a process is already running.
func (s *Sidecar) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.process != nil {
		return nil
	}
	if s.cfg.Command == "" {
		return errors.New("capture sidecar command is not configured")
	}

	cmd := exec.CommandContext(ctx, s.cfg.Command, s.cfg.Args...)
	cmd.Dir = s.cfg.Dir
	stderr := &tailBuffer{limit: stderrTailLimit}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start capture sidecar: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		if err != nil {
			return fmt.Errorf("capture sidecar exited before capture started: %w: %s", err, stderr.String())
		}
		return errors.New("capture sidecar exited before capture started")
	case <-time.After(s.cfg.StartupWindow):
	}

	s.process = &sidecarProcess{
		process: cmd.Process,
		stderr:  stderr,
		waitErr: waitErr,
		grace:   s.cfg.StopGrace,
	}
	s.log.Info().Int("pid", cmd.Process.Pid).Msg("capture sidecar started")
	return nil
}

// Stop interrupts the sidecar, killing it if it outlives the grace period.
// Stopping a sidecar that is not running is a no-op.
func (s *Sidecar) Stop() error {
	s.mu.Lock()
	process := s.process
	s.process = nil
	s.mu.Unlock()

	if process == nil {
		return nil
	}
	err := process.stop()
	s.log.Info().Err(err).Msg("capture sidecar stopped")
	return err
}

type sidecarProcess struct {
	process *os.Process
	stderr  *tailBuffer
	waitErr <-chan error
	grace   time.Duration
}

func (p *sidecarProcess) stop() error {
	_ = p.process.Signal(os.Interrupt)

	var stopErr error
	select {
	case err, ok := <-p.waitErr:
		if ok {
			stopErr = normalizeStopErr(err)
		}
	case <-time.After(p.grace):
		_ = p.process.Kill()
		if err, ok := <-p.waitErr; ok {
			stopErr = normalizeStopErr(err)
		}
	}

	if stopErr != nil && p.stderr.Len() > 0 {
		stopErr = fmt.Errorf("%w: %s", stopErr, p.stderr.String())
	}
	return stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	if overflow := b.buf.Len() - b.limit; overflow > 0 {
		b.buf.Next(overflow)
	}
	return len(p), nil
}

func (b *tailBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(bytes.TrimSpace(b.buf.Bytes()))
}

// Noop is used when the sidecar lifecycle is managed outside this process.
type Noop struct{}

func (Noop) Start(context.Context) error { return nil }
func (Noop) Stop() error                 { return nil }
