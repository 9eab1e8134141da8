package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"meetingai/internal/domain"
	"meetingai/internal/ports"
)

const emptyResponseReason = "empty response"

type minutesRequestor struct {
	summarizer ports.Summarizer
	log        zerolog.Logger
}

func newMinutesRequestor(summarizer ports.Summarizer, log zerolog.Logger) minutesRequestor {
	return minutesRequestor{summarizer: summarizer, log: log}
}

// Request issues exactly one summarization call and maps every outcome,
// including transport failures, to a terminal minutes state.
func (r minutesRequestor) Request(ctx context.Context, transcript string) domain.MinutesState {
	result, err := r.summarizer.GenerateMinutes(ctx, transcript)
	state := MinutesOutcome(result, err)

	if state.Phase == domain.MinutesFailed {
		r.log.Warn().Err(err).Str("reason", state.Reason).Msg("minutes generation failed")
	} else {
		r.log.Info().Int("minutes_bytes", len(state.Text)).Msg("minutes generated")
	}
	return state
}

// MinutesOutcome maps one summarizer answer to a terminal minutes state.
func MinutesOutcome(result domain.MinutesResult, err error) domain.MinutesState {
	switch {
	case err != nil:
		return domain.MinutesFailedWith(err.Error())
	case result.Summary != "":
		return domain.MinutesSucceededWith(result.Summary)
	case result.ServerError != "":
		return domain.MinutesFailedWith(result.ServerError)
	default:
		return domain.MinutesFailedWith(emptyResponseReason)
	}
}
