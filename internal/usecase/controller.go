package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meetingai/internal/domain"
	"meetingai/internal/ports"
)

var (
	ErrNoActiveSession   = errors.New("no active meeting session")
	ErrSessionActive     = errors.New("a meeting session is already active")
	ErrMinutesInProgress = errors.New("minutes generation already in progress")
	ErrMeetingEnded      = errors.New("minutes already generated; start a new session")
)

// SessionController owns the live session: capture lifecycle, transcript
// stream and the end-of-meeting minutes workflow. It is the only writer of
// the session state.
type SessionController struct {
	capture ports.CaptureControl
	streams ports.StreamFactory
	events  ports.EventSink
	minutes minutesRequestor
	log     zerolog.Logger

	mu      sync.Mutex
	current *activeSession
}

func NewSessionController(
	capture ports.CaptureControl,
	streams ports.StreamFactory,
	summarizer ports.Summarizer,
	events ports.EventSink,
	log zerolog.Logger,
) *SessionController {
	return &SessionController{
		capture: capture,
		streams: streams,
		events:  events,
		minutes: newMinutesRequestor(summarizer, log),
		log:     log,
	}
}

// Start begins a session: capture start and stream connect run concurrently
// and neither waits for the other. Cancelling ctx tears the session down.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		return ErrSessionActive
	}

	sessionID := uuid.NewString()
	sessionCtx, cancel := context.WithCancel(ctx)
	active := &activeSession{
		id:      sessionID,
		cancel:  cancel,
		stream:  c.streams.NewStream(),
		capture: newCaptureController(c.capture),
		state: domain.SessionState{
			SessionID:  sessionID,
			Active:     true,
			Connection: domain.ConnectionDisconnected,
			Minutes:    domain.MinutesState{Phase: domain.MinutesIdle},
		},
		eventsDone: make(chan struct{}),
	}
	c.current = active
	c.mu.Unlock()

	log := c.sessionLog(active)
	log.Info().Msg("session started")

	go consumeStreamEvents(active, c.events, log, active.eventsDone)

	go func() {
		if err := active.capture.start(sessionCtx); err != nil {
			log.Warn().Err(err).Msg("capture start failed")
			c.events.SessionWarning(domain.ErrorCodeCaptureStart, err.Error())
		}
	}()

	if err := active.stream.Connect(); err != nil {
		c.endSession(active)
		return err
	}

	go func() {
		<-sessionCtx.Done()
		c.endSession(active)
	}()
	return nil
}

// Stop tears down the active session: the stream is closed first, then
// capture is stopped. Both are attempted; neither failure is returned.
func (c *SessionController) Stop() error {
	active, err := c.getCurrent()
	if err != nil {
		return err
	}
	c.endSession(active)
	return nil
}

// Run starts a session and keeps it alive until ctx is done, releasing the
// stream and capture on every exit path.
func (c *SessionController) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	if err := c.Stop(); err != nil && !errors.Is(err, ErrNoActiveSession) {
		return err
	}
	return nil
}

// GenerateMinutes ends the meeting and asks the summarizer for minutes. The
// stream is closed before the request is sent, so no reconnect can race it.
// An empty transcript is a no-op. After a failure the call may be repeated
// with the same frozen transcript; after a success the meeting is over.
func (c *SessionController) GenerateMinutes(ctx context.Context) (domain.MinutesState, error) {
	active, err := c.getCurrent()
	if err != nil {
		return domain.MinutesState{}, err
	}

	active.stateMu.Lock()
	switch {
	case active.minutesBusy:
		minutes := active.state.Minutes
		active.stateMu.Unlock()
		return minutes, ErrMinutesInProgress
	case active.state.Minutes.Phase == domain.MinutesSucceeded:
		minutes := active.state.Minutes
		active.stateMu.Unlock()
		return minutes, ErrMeetingEnded
	}
	transcript := active.state.Transcript
	if active.frozenSet {
		transcript = active.frozen
	}
	if transcript == "" {
		minutes := active.state.Minutes
		active.stateMu.Unlock()
		return minutes, nil
	}
	active.minutesBusy = true
	frozenSet := active.frozenSet
	active.stateMu.Unlock()

	log := c.sessionLog(active)
	if !frozenSet {
		log.Info().Msg("meeting ended; closing transcript stream")
		c.closeStream(active)

		active.stateMu.Lock()
		active.frozen = active.state.Transcript
		active.frozenSet = true
		transcript = active.frozen
		active.stateMu.Unlock()
	}

	if transcript == "" {
		active.stateMu.Lock()
		active.minutesBusy = false
		minutes := active.state.Minutes
		active.stateMu.Unlock()
		return minutes, nil
	}

	generating := domain.MinutesState{Phase: domain.MinutesGenerating}
	active.setMinutes(generating)
	c.events.MinutesChanged(generating)

	outcome := c.minutes.Request(context.WithoutCancel(ctx), transcript)

	active.stateMu.Lock()
	active.minutesBusy = false
	ended := !active.state.Active
	if !ended {
		active.state.Minutes = outcome
	}
	active.stateMu.Unlock()

	// A session stopped mid-request still hands the outcome to the caller,
	// but the sink has already seen the session end.
	if ended {
		log.Info().Str("phase", string(outcome.Phase)).Msg("minutes outcome arrived after session ended")
		return outcome, nil
	}
	c.events.MinutesChanged(outcome)
	return outcome, nil
}

// State returns the current session snapshot.
func (c *SessionController) State() domain.SessionState {
	c.mu.Lock()
	active := c.current
	c.mu.Unlock()

	if active == nil {
		return domain.SessionState{
			Connection: domain.ConnectionDisconnected,
			Minutes:    domain.MinutesState{Phase: domain.MinutesIdle},
		}
	}
	return active.snapshot()
}

func (c *SessionController) getCurrent() (*activeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, ErrNoActiveSession
	}
	return c.current, nil
}

func (c *SessionController) closeStream(active *activeSession) {
	if err := active.stream.Close(); err != nil {
		log := c.sessionLog(active)
		log.Warn().Err(err).Msg("failed to close transcript stream")
	}
	<-active.eventsDone
	if active.markDisconnected() {
		c.events.ConnectionChanged(domain.ConnectionDisconnected)
	}
}

func (c *SessionController) endSession(active *activeSession) {
	active.endOnce.Do(func() {
		log := c.sessionLog(active)

		c.closeStream(active)
		if err := active.capture.stop(); err != nil {
			log.Warn().Err(err).Msg("capture stop failed")
			c.events.SessionWarning(domain.ErrorCodeCaptureStop, err.Error())
		}
		active.cancel()

		active.stateMu.Lock()
		active.state.Active = false
		active.stateMu.Unlock()

		c.mu.Lock()
		if c.current == active {
			c.current = nil
		}
		c.mu.Unlock()

		log.Info().Msg("session ended")
	})
}

func (c *SessionController) sessionLog(active *activeSession) zerolog.Logger {
	return c.log.With().Str("session_id", active.id).Logger()
}
