package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"meetingai/internal/simulator"
)

func NewSimulateCmd(deps *Dependencies) *cobra.Command {
	var scriptPath string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a local stand-in for the transcription sidecar",
		Long:  "Serves the streaming and minutes endpoints on the configured sidecar address, reading a scripted meeting aloud one word at a time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			script, err := readScript(scriptPath)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = deps.Config.Simulator.Interval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := simulator.New(simulator.Config{
				Interval:    interval,
				Script:      script,
				StreamPath:  deps.Config.Sidecar.StreamPath,
				MinutesPath: deps.Config.Sidecar.MinutesPath,
			}, deps.Log)

			fmt.Fprintf(cmd.OutOrStdout(), "Simulator listening on %s\n", deps.Config.Addr())
			return server.Serve(ctx, deps.Config.Addr())
		},
	}

	cmd.Flags().StringVar(&scriptPath, "script", "", "File with one sentence per line to read out")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Delay between words (default from config)")

	return cmd
}

func readScript(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return lines, nil
}
