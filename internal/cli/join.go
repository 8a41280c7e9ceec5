package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dkeye/Meet/internal/roster"
)

func NewJoinCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join CODE",
		Short: "Join a meeting by its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := roster.New()
			c, err := connect(cmd.Context(), deps, r)
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.Join(cmd.Context(), args[0], deps.Config.Name); err != nil {
				return err
			}
			return runSession(cmd.Context(), c, r, os.Stdin)
		},
	}

	cmd.Flags().StringVarP(&deps.Config.Name, "name", "n", deps.Config.Name, "Display name")
	cmd.Flags().BoolVar(&deps.Config.Audio, "audio", deps.Config.Audio, "Send a silent audio track")

	return cmd
}
