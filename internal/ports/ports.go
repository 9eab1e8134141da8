package ports

import (
	"context"

	"meetingai/internal/domain"
)

// CaptureControl starts and stops the external audio-capture pipeline.
type CaptureControl interface {
	Start(ctx context.Context) error
	Stop() error
}

// TranscriptionStream is one logical connection to the transcription source.
// Connect is non-blocking; connectivity and transcript updates arrive on Events
// in wire order. Close is terminal and idempotent.
type TranscriptionStream interface {
	Connect() error
	Events() <-chan domain.StreamEvent
	Close() error
}

// StreamFactory creates a fresh stream for every session.
type StreamFactory interface {
	NewStream() TranscriptionStream
}

// Summarizer sends a transcript to the minutes endpoint.
type Summarizer interface {
	GenerateMinutes(ctx context.Context, transcript string) (domain.MinutesResult, error)
}

// EventSink emits session state changes to the presentation layer.
type EventSink interface {
	TranscriptChanged(text string, partial bool)
	ConnectionChanged(status domain.ConnectionStatus)
	MinutesChanged(state domain.MinutesState)
	SessionWarning(code domain.ErrorCode, detail string)
}
