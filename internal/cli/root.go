package cli

import (
	"github.com/spf13/cobra"

	"github.com/dkeye/Meet/internal/config"
	"github.com/dkeye/Meet/internal/version"
)

type Dependencies struct {
	Config *config.Client
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meet",
		Short: "Join mesh meetings from the terminal",
		Long:  "A headless meeting participant. It joins without a camera, optionally sends a silent audio track, and shows the roster and chat.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(deps.Config.LogLevel)
		},
		SilenceUsage: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&deps.Config.ServerURL, "server", "s", deps.Config.ServerURL, "Coordinator signaling URL")
	flags.StringVar(&deps.Config.LogLevel, "log-level", deps.Config.LogLevel, "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(NewCreateCmd(deps))
	rootCmd.AddCommand(NewJoinCmd(deps))
	rootCmd.AddCommand(NewLookupCmd(deps))

	return rootCmd
}
