package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"meetingai/internal/domain"
	"meetingai/internal/minutes"
	"meetingai/internal/usecase"
)

var errEmptyTranscript = errors.New("transcript is empty")

func NewMinutesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "minutes [file]",
		Short: "Generate minutes for a saved transcript",
		Long:  "Sends a transcript file (or stdin when no file is given) to the sidecar's minutes endpoint and prints the result.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, err := readTranscript(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(transcript) == "" {
				return errEmptyTranscript
			}

			client := minutes.NewClient(minutes.Config{
				URL:     deps.Config.MinutesURL(),
				Timeout: deps.Config.Minutes.Timeout,
			}, deps.Log)

			result, err := client.GenerateMinutes(cmd.Context(), transcript)
			if err != nil {
				return fmt.Errorf("network error: %w", err)
			}
			state := usecase.MinutesOutcome(result, nil)
			if state.Phase != domain.MinutesSucceeded {
				return fmt.Errorf("minutes failed: %s", state.Reason)
			}
			fmt.Fprintln(cmd.OutOrStdout(), state.Text)
			return nil
		},
	}
}

func readTranscript(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}
	return string(data), nil
}
