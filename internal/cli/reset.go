package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ResetCmd returns the reset command.
func ResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all groups, threads, messages, and the activity log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirmPrompt("This erases the entire sandbox. Continue?") {
				fmt.Println("Aborted.")
				return nil
			}

			ctx := context.Background()
			svc, closeStore, err := openMailroom(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := svc.Reset(ctx); err != nil {
				return fmt.Errorf("resetting store: %w", err)
			}

			fmt.Printf("%s Sandbox reset\n", checkMark())
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}
