package usecase

import (
	"github.com/rs/zerolog"

	"meetingai/internal/domain"
	"meetingai/internal/ports"
)

// reduceTranscript applies one stream event to the session state. A
// transcription event replaces the transcript wholesale because the source
// always sends the full rolling text.
func reduceTranscript(state domain.SessionState, event domain.StreamEvent) (domain.SessionState, bool) {
	switch event.Type {
	case domain.StreamEventTranscription:
		if event.Transcription.Kind != domain.EventKindTranscription {
			return state, false
		}
		state.Transcript = event.Transcription.Text
		return state, true
	case domain.StreamEventStatus:
		if state.Connection == event.Status {
			return state, false
		}
		state.Connection = event.Status
		return state, true
	default:
		return state, false
	}
}

func consumeStreamEvents(
	session *activeSession,
	events ports.EventSink,
	log zerolog.Logger,
	done chan struct{},
) {
	defer close(done)

	for event := range session.stream.Events() {
		if event.Type == domain.StreamEventFrameError {
			events.SessionWarning(domain.ErrorCodeStreamFrame, event.Err.Error())
			continue
		}

		next, changed := session.apply(event)
		if !changed {
			continue
		}

		switch event.Type {
		case domain.StreamEventTranscription:
			events.TranscriptChanged(next.Transcript, event.Transcription.IsPartial)
		case domain.StreamEventStatus:
			log.Debug().Str("connection", string(next.Connection)).Msg("connection status changed")
			events.ConnectionChanged(next.Connection)
		}
	}
}
