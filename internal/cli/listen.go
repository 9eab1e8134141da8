package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"meetingai/internal/bootstrap"
	"meetingai/internal/domain"
	"meetingai/internal/output"
	"meetingai/internal/usecase"
)

// session is the part of usecase.SessionController the listen command drives.
type session interface {
	Start(ctx context.Context) error
	Stop() error
	GenerateMinutes(ctx context.Context) (domain.MinutesState, error)
}

func NewListenCmd(deps *Dependencies) *cobra.Command {
	var noMinutes bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Run a live session in the terminal",
		Long:  "Connects to the transcription sidecar and prints the live transcript.\nPress Ctrl+C once to end the meeting and generate minutes, twice to quit immediately.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter := output.NewFormatter(cmd.OutOrStdout())
			services := bootstrap.Build(deps.Config, formatter, deps.Log)

			signals := make(chan os.Signal, 2)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(signals)

			return runListen(cmd.Context(), services.Controller, formatter, signals, noMinutes)
		},
	}

	cmd.Flags().BoolVar(&noMinutes, "no-minutes", false, "Quit on Ctrl+C without generating minutes")

	return cmd
}

func runListen(ctx context.Context, s session, formatter *output.Formatter, signals <-chan os.Signal, noMinutes bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.Stop(); err != nil && !errors.Is(err, usecase.ErrNoActiveSession) {
			formatter.Error(err.Error())
		}
	}()

	formatter.Info("Listening. Press Ctrl+C to end the meeting.")
	select {
	case <-signals:
	case <-ctx.Done():
		return nil
	}

	if noMinutes {
		return nil
	}

	formatter.Info("Meeting ended. Press Ctrl+C again to quit without minutes.")
	type result struct {
		state domain.MinutesState
		err   error
	}
	done := make(chan result, 1)
	go func() {
		state, err := s.GenerateMinutes(ctx)
		done <- result{state: state, err: err}
	}()

	select {
	case <-signals:
		return nil
	case <-ctx.Done():
		return nil
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		if res.state.Phase == domain.MinutesIdle {
			formatter.Info("Transcript is empty; no minutes generated.")
		}
		return nil
	}
}
