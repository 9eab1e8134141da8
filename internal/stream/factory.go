package stream

import (
	"github.com/rs/zerolog"

	"meetingai/internal/ports"
)

// Factory implements ports.StreamFactory with a fixed configuration.
type Factory struct {
	cfg Config
	log zerolog.Logger
}

func NewFactory(cfg Config, log zerolog.Logger) *Factory {
	return &Factory{cfg: cfg, log: log}
}

func (f *Factory) NewStream() ports.TranscriptionStream {
	return NewClient(f.cfg, f.log)
}
