package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/models"
)

// TailCmd returns the tail command.
func TailCmd() *cobra.Command {
	var groupID string
	var count int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show recent activity log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, closeStore, err := openMailroom(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			events, err := svc.Events(ctx, groupID, count)
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}

			if len(events) == 0 {
				fmt.Println("No activity yet.")
				return nil
			}

			// Events arrive newest first; print oldest first like a log.
			for i := len(events) - 1; i >= 0; i-- {
				ev := events[i]
				fmt.Printf("%s  %-15s %s\n", ev.CreatedAt.Local().Format(time.RFC3339), ev.Type, describeEvent(ev))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&groupID, "group", "", "Only entries for this group")
	cmd.Flags().IntVarP(&count, "lines", "n", 20, "Number of entries")

	return cmd
}

func describeEvent(ev models.Event) string {
	switch ev.Type {
	case models.EventGroupCreated:
		return fmt.Sprintf("group %s created", ev.GroupID)
	case models.EventMessageSent:
		return fmt.Sprintf("%s sent message %d in %s (thread %s)", ev.Agent, ev.Seq, ev.GroupID, shortID(ev.ThreadID))
	case models.EventStoreReset:
		return "store reset"
	default:
		return string(ev.Type)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
