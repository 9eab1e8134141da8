package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"meetingai/internal/config"
	"meetingai/internal/version"
)

type Dependencies struct {
	Config config.Config
	Log    zerolog.Logger
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meetingai",
		Short:         "Live meeting transcript and minutes",
		Long:          "Streams a live transcript from the local transcription sidecar and asks it for meeting minutes when the meeting ends.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewListenCmd(deps))
	rootCmd.AddCommand(NewMinutesCmd(deps))
	rootCmd.AddCommand(NewSimulateCmd(deps))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
}
