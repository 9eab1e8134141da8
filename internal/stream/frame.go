package stream

import (
	"encoding/json"
	"fmt"

	"meetingai/internal/domain"
)

// ParseFrame decodes one inbound frame. Unknown event types decode without
// error; callers decide what to act on.
func ParseFrame(payload []byte) (domain.TranscriptionEvent, error) {
	var event domain.TranscriptionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.TranscriptionEvent{}, fmt.Errorf("invalid stream frame: %w", err)
	}
	return event, nil
}
