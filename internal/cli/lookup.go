package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkeye/Meet/internal/client"
)

func NewLookupCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup CODE",
		Short: "Show a meeting without joining it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := client.Lookup(cmd.Context(), deps.Config.ServerURL, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "📞 Meeting %s\n", info.Code)
			fmt.Fprintf(w, "  Host:         %s\n", info.HostName)
			fmt.Fprintf(w, "  Participants: %d/%d\n", info.ParticipantCount, info.Config.MaxParticipants)
			fmt.Fprintf(w, "  Created:      %s\n", info.CreatedAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintf(w, "  Chat:         %s\n", onOff(info.Config.AllowChat))
			fmt.Fprintf(w, "  Video:        %s\n", onOff(info.Config.AllowVideo))
			return nil
		},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
