package cli

import (
	"github.com/spf13/cobra"
)

func newBanCmd() *cobra.Command {
	var (
		minutes  int
		reason   string
		bannedBy string
	)

	banCmd := &cobra.Command{
		Use:   "ban <username>",
		Short: "Ban a player by display name",
		Long: `Ban a player by display name. Without --minutes the ban is permanent.
If the player is currently online they are ejected from their room and
disconnected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"username": args[0],
			}
			if cmd.Flags().Changed("minutes") {
				body["banMinutes"] = minutes
			}
			if reason != "" {
				body["reason"] = reason
			}
			if bannedBy != "" {
				body["bannedBy"] = bannedBy
			}

			var result BanResult
			if err := client.Post("/api/admin/ban", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	banCmd.Flags().IntVar(&minutes, "minutes", 0, "Ban duration in minutes (omit for permanent)")
	banCmd.Flags().StringVar(&reason, "reason", "", "Reason shown to the banned player")
	banCmd.Flags().StringVar(&bannedBy, "banned-by", "", "Admin identity recorded on the ban")

	return banCmd
}
