package bootstrap

import (
	"github.com/rs/zerolog"

	"meetingai/internal/capture"
	"meetingai/internal/config"
	"meetingai/internal/minutes"
	"meetingai/internal/ports"
	"meetingai/internal/stream"
	"meetingai/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Summarizer *minutes.Client
	Config     config.Config
}

// Build wires all backend dependencies from a resolved config.
func Build(cfg config.Config, eventSink ports.EventSink, log zerolog.Logger) Services {
	summarizer := minutes.NewClient(minutes.Config{
		URL:     cfg.MinutesURL(),
		Timeout: cfg.Minutes.Timeout,
	}, log)

	controller := usecase.NewSessionController(
		newCapture(cfg.Capture, log),
		stream.NewFactory(stream.Config{
			URL:              cfg.StreamURL(),
			ReconnectDelay:   cfg.Stream.ReconnectDelay,
			HandshakeTimeout: cfg.Stream.HandshakeTimeout,
		}, log),
		summarizer,
		eventSink,
		log,
	)

	return Services{Controller: controller, Summarizer: summarizer, Config: cfg}
}

func newCapture(cfg config.CaptureConfig, log zerolog.Logger) ports.CaptureControl {
	if cfg.Command == "" {
		log.Debug().Msg("no capture command configured; sidecar is managed externally")
		return capture.Noop{}
	}
	return capture.NewSidecar(capture.Config{
		Command: cfg.Command,
		Args:    cfg.Args,
		Dir:     cfg.Dir,
	}, log)
}
