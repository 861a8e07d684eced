package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// StatusCmd returns the status command.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show groups, rosters, and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, closeStore, err := openMailroom(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			groups, err := svc.Groups(ctx)
			if err != nil {
				return fmt.Errorf("listing groups: %w", err)
			}

			fmt.Println("Sandbox status")
			fmt.Println()

			if len(groups) == 0 {
				fmt.Println("No groups yet. Run `sandbox init` to create one.")
				return nil
			}

			fmt.Printf("Groups (%d):\n", len(groups))
			for _, group := range groups {
				fmt.Printf("  %s (%d agents)\n", color.New(color.FgCyan).Sprint(group.ID), len(group.Agents))
			}

			events, err := svc.Events(ctx, "", 10)
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}
			if len(events) > 0 {
				fmt.Println()
				fmt.Println("Recent activity:")
				for _, ev := range events {
					fmt.Printf("  %s  %s\n", ev.CreatedAt.Local().Format("2006-01-02 15:04:05"), describeEvent(ev))
				}
			}
			return nil
		},
	}
}
