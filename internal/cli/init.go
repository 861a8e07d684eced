package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// InitCmd returns the init command: an interactive wizard that
// provisions the first group.
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively provision a sandbox group",
		Long: `Walk through creating a group and its agent roster.

The wizard prompts for a group id (convention: "@" prefix, e.g. @dev-team)
and a comma-separated list of agent addresses, then seeds the same store
the server reads.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			reader := bufio.NewReader(os.Stdin)

			fmt.Println("Sandbox setup")
			fmt.Println()

			groupID, err := prompt(reader, "Group id (e.g. @dev-team): ")
			if err != nil {
				return err
			}
			if groupID != "" && !strings.HasPrefix(groupID, "@") {
				groupID = "@" + groupID
			}

			agentsLine, err := prompt(reader, "Agent addresses (comma-separated, e.g. alice,bob,carol): ")
			if err != nil {
				return err
			}
			agents := splitList(agentsLine)

			svc, closeStore, err := openMailroom(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			group, err := svc.CreateGroup(ctx, groupID, agents)
			if err != nil {
				return fmt.Errorf("creating group: %w", err)
			}

			fmt.Println()
			fmt.Printf("%s Group %s created with %d agent(s)\n", checkMark(), group.ID, len(group.Agents))
			for _, agent := range group.Agents {
				fmt.Printf("    %s\n", agent)
			}
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  sandbox status              # see groups and recent activity")
			fmt.Println("  go run ./cmd/server         # serve the HTTP API on :8080")
			return nil
		},
	}
}
