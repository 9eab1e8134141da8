package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"meetingai/internal/domain"
)

// Formatter renders session events as terminal lines. It implements
// ports.EventSink and is safe for concurrent use.
type Formatter struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) TranscriptChanged(text string, partial bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if text == f.last && !partial {
		return
	}
	f.last = text
	if partial {
		fmt.Fprintf(f.w, "… %s\n", text)
		return
	}
	fmt.Fprintf(f.w, "📝 %s\n", text)
}

func (f *Formatter) ConnectionChanged(status domain.ConnectionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch status {
	case domain.ConnectionConnecting:
		fmt.Fprintf(f.w, "🔌 Connecting to transcription stream...\n")
	case domain.ConnectionConnected:
		fmt.Fprintf(f.w, "🟢 Connected\n")
	case domain.ConnectionDisconnected:
		fmt.Fprintf(f.w, "🔴 Disconnected\n")
	}
}

func (f *Formatter) MinutesChanged(state domain.MinutesState) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch state.Phase {
	case domain.MinutesGenerating:
		fmt.Fprintf(f.w, "🤖 Generating minutes...\n")
	case domain.MinutesSucceeded:
		fmt.Fprintf(f.w, "\n✅ Meeting minutes:\n%s\n", indent(state.Text))
	case domain.MinutesFailed:
		fmt.Fprintf(f.w, "❌ Minutes failed: %s\n", state.Reason)
	}
}

func (f *Formatter) SessionWarning(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, "⚠️  %s: %s\n", code, detail)
}

func (f *Formatter) Error(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
