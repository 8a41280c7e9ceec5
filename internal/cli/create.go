package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/roster"
)

func NewCreateCmd(deps *Dependencies) *cobra.Command {
	meeting := domain.DefaultMeetingConfig()
	var noChat, noVideo bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a meeting and stay in it as the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			meeting.AllowChat = !noChat
			meeting.AllowVideo = !noVideo

			r := roster.New()
			c, err := connect(cmd.Context(), deps, r)
			if err != nil {
				return err
			}
			defer c.Close()

			code, err := c.Create(cmd.Context(), deps.Config.Name, &meeting)
			if err != nil {
				return err
			}
			newPrinter(os.Stdout).created(code)
			return runSession(cmd.Context(), c, r, os.Stdin)
		},
	}

	cmd.Flags().StringVarP(&deps.Config.Name, "name", "n", deps.Config.Name, "Display name")
	cmd.Flags().BoolVar(&deps.Config.Audio, "audio", deps.Config.Audio, "Send a silent audio track")
	cmd.Flags().IntVar(&meeting.MaxParticipants, "max", meeting.MaxParticipants, "Maximum participants")
	cmd.Flags().BoolVar(&noChat, "no-chat", false, "Disable chat")
	cmd.Flags().BoolVar(&noVideo, "no-video", false, "Disallow video")

	return cmd
}
