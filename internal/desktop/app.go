package desktop

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"meetingai/internal/bootstrap"
	"meetingai/internal/config"
	"meetingai/internal/domain"
	"meetingai/internal/usecase"
)

const (
	eventTranscript = "meetingai:transcript"
	eventConnection = "meetingai:connection"
	eventMinutes    = "meetingai:minutes"
	eventWarning    = "meetingai:warning"
)

type emitFunc func(ctx context.Context, name string, data ...interface{})

// App is the Wails application root. It is bound to the frontend and acts as
// the session's event sink.
type App struct {
	ctx  context.Context
	emit emitFunc
	log  zerolog.Logger

	controller *usecase.SessionController
	cfg        config.Config
	bootErr    error
}

func NewApp(cfg config.Config, log zerolog.Logger) *App {
	return &App{cfg: cfg, log: log, emit: runtime.EventsEmit}
}

// Startup wires the backend and starts the live session.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	services := bootstrap.Build(a.cfg, a, a.log)
	if err := services.Controller.Start(ctx); err != nil {
		a.bootErr = err
		a.SessionWarning(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.controller = services.Controller
}

// Shutdown closes the stream and stops capture.
func (a *App) Shutdown(_ context.Context) {
	if a.controller == nil {
		return
	}
	if err := a.controller.Stop(); err != nil && !errors.Is(err, usecase.ErrNoActiveSession) {
		a.log.Warn().Err(err).Msg("session stop failed")
	}
}

// GenerateMinutes ends the meeting and requests minutes for the transcript.
func (a *App) GenerateMinutes() (domain.MinutesState, error) {
	if err := a.requireReady(); err != nil {
		return domain.MinutesState{}, err
	}
	return a.controller.GenerateMinutes(a.ctx)
}

// GetState returns the current session snapshot.
func (a *App) GetState() domain.SessionState {
	if a.controller == nil {
		return domain.SessionState{
			Connection: domain.ConnectionDisconnected,
			Minutes:    domain.MinutesState{Phase: domain.MinutesIdle},
		}
	}
	return a.controller.State()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"streamURL":      a.cfg.StreamURL(),
		"minutesURL":     a.cfg.MinutesURL(),
		"reconnectDelay": a.cfg.Stream.ReconnectDelay.String(),
		"captureCommand": a.cfg.Capture.Command,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// TranscriptChanged emits the full transcript text.
func (a *App) TranscriptChanged(text string, partial bool) {
	a.send(eventTranscript, map[string]interface{}{
		"text":    text,
		"partial": partial,
	})
}

// ConnectionChanged emits the stream connection status.
func (a *App) ConnectionChanged(status domain.ConnectionStatus) {
	a.send(eventConnection, map[string]string{
		"status": string(status),
		"label":  connectionLabel(status),
	})
}

// MinutesChanged emits minutes workflow updates.
func (a *App) MinutesChanged(state domain.MinutesState) {
	a.send(eventMinutes, map[string]string{
		"phase":   string(state.Phase),
		"text":    state.Text,
		"reason":  state.Reason,
		"message": minutesMessage(state),
	})
}

// SessionWarning emits non-fatal backend issues to the UI.
func (a *App) SessionWarning(code domain.ErrorCode, detail string) {
	a.send(eventWarning, map[string]string{
		"code":    string(code),
		"message": warningMessage(code, detail),
		"detail":  detail,
	})
}

func (a *App) send(name string, payload interface{}) {
	if a.ctx == nil || a.emit == nil {
		return
	}
	a.emit(a.ctx, name, payload)
}

func connectionLabel(status domain.ConnectionStatus) string {
	switch status {
	case domain.ConnectionConnecting:
		return "Connecting..."
	case domain.ConnectionConnected:
		return "Live"
	case domain.ConnectionDisconnected:
		return "Disconnected"
	default:
		return ""
	}
}

func minutesMessage(state domain.MinutesState) string {
	switch state.Phase {
	case domain.MinutesGenerating:
		return "Generating minutes..."
	case domain.MinutesSucceeded:
		return "Minutes ready"
	case domain.MinutesFailed:
		return "Minutes failed: " + state.Reason
	default:
		return ""
	}
}

func warningMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeCaptureStart:
		return "Audio capture failed to start"
	case domain.ErrorCodeCaptureStop:
		return "Audio capture failed to stop"
	case domain.ErrorCodeStreamFrame:
		return "Dropped a malformed transcript update"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
