package cli

import (
	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List connected users",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result UserList
			if err := client.Get("/api/users", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
