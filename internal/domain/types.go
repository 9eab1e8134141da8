package domain

// EventKindTranscription is the only stream event kind the session acts upon.
const EventKindTranscription = "transcription"

// TranscriptionEvent is one inbound unit from the transcription stream.
// Text carries the full rolling transcript, not a delta.
type TranscriptionEvent struct {
	Kind      string `json:"type"`
	Text      string `json:"text"`
	IsPartial bool   `json:"partial"`
}

// ConnectionStatus reports stream connectivity to the presentation layer.
type ConnectionStatus string

const (
	ConnectionConnecting   ConnectionStatus = "connecting"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

// MinutesPhase models the one-shot minutes workflow.
type MinutesPhase string

const (
	MinutesIdle       MinutesPhase = "idle"
	MinutesGenerating MinutesPhase = "generating"
	MinutesSucceeded  MinutesPhase = "succeeded"
	MinutesFailed     MinutesPhase = "failed"
)

// MinutesState carries the phase plus its payload: Text on success, Reason on failure.
type MinutesState struct {
	Phase  MinutesPhase `json:"phase"`
	Text   string       `json:"text,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

func MinutesSucceededWith(text string) MinutesState {
	return MinutesState{Phase: MinutesSucceeded, Text: text}
}

func MinutesFailedWith(reason string) MinutesState {
	return MinutesState{Phase: MinutesFailed, Reason: reason}
}

// SessionState is the read-only snapshot exposed to the presentation layer.
type SessionState struct {
	SessionID  string           `json:"sessionId"`
	Active     bool             `json:"active"`
	Transcript string           `json:"transcript"`
	Connection ConnectionStatus `json:"connection"`
	Minutes    MinutesState     `json:"minutes"`
}

// ErrorCode identifies non-fatal warnings surfaced to the presentation layer.
type ErrorCode string

const (
	ErrorCodeStartup      ErrorCode = "startup"
	ErrorCodeCaptureStart ErrorCode = "capture_start"
	ErrorCodeCaptureStop  ErrorCode = "capture_stop"
	ErrorCodeStreamFrame  ErrorCode = "stream_frame"
)

// MinutesResult is the decoded answer of the summarization endpoint.
// Exactly one of Summary or ServerError is meaningful; both empty means the
// endpoint answered without content.
type MinutesResult struct {
	Summary     string
	ServerError string
}

// StreamEventType tags a delivery from the stream client.
type StreamEventType string

const (
	StreamEventStatus        StreamEventType = "status"
	StreamEventTranscription StreamEventType = "transcription"
	StreamEventFrameError    StreamEventType = "frame_error"
)

// StreamEvent is one ordered delivery from the stream client: a connectivity
// change, a parsed transcription event, or a dropped malformed frame.
type StreamEvent struct {
	Type          StreamEventType
	Status        ConnectionStatus
	Transcription TranscriptionEvent
	Err           error
}
