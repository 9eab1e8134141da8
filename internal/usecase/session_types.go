package usecase

import (
	"sync"

	"meetingai/internal/domain"
	"meetingai/internal/ports"
)

type activeSession struct {
	id      string
	cancel  func()
	stream  ports.TranscriptionStream
	capture *captureController

	stateMu sync.Mutex
	state   domain.SessionState

	// frozen holds the transcript sent for minutes once the stream is closed.
	frozen      string
	frozenSet   bool
	minutesBusy bool

	eventsDone chan struct{}
	endOnce    sync.Once
}

func (s *activeSession) apply(event domain.StreamEvent) (domain.SessionState, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	next, changed := reduceTranscript(s.state, event)
	s.state = next
	return next, changed
}

func (s *activeSession) snapshot() domain.SessionState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *activeSession) setMinutes(minutes domain.MinutesState) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.state.Minutes = minutes
}

// markDisconnected records an intentional close and reports whether the
// status changed.
func (s *activeSession) markDisconnected() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state.Connection == domain.ConnectionDisconnected {
		return false
	}
	s.state.Connection = domain.ConnectionDisconnected
	return true
}
