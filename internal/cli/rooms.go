package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newRoomsCmd() *cobra.Command {
	roomsCmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect active rooms",
	}

	roomsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all active rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomList
			if err := client.Get("/api/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	roomsCmd.AddCommand(&cobra.Command{
		Use:   "get <code>",
		Short: "Show one room with its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.ToUpper(args[0])

			var result Room
			if err := client.Get("/api/rooms/"+code, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	return roomsCmd
}
