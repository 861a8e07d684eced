package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// GroupCmd returns the group command with its subcommands.
func GroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups and rosters",
	}

	cmd.AddCommand(groupCreateCmd())
	cmd.AddCommand(groupListCmd())
	cmd.AddCommand(groupAddAgentCmd())

	return cmd
}

func groupCreateCmd() *cobra.Command {
	var agents string

	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, closeStore, err := openMailroom(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			group, err := svc.CreateGroup(ctx, args[0], splitList(agents))
			if err != nil {
				return fmt.Errorf("creating group: %w", err)
			}

			fmt.Printf("%s Group %s created with %d agent(s)\n", checkMark(), group.ID, len(group.Agents))
			return nil
		},
	}

	cmd.Flags().StringVar(&agents, "agents", "", "Comma-separated agent addresses")

	return cmd
}

func groupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups and their rosters",
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

			if len(groups) == 0 {
				fmt.Println("No groups yet. Run `sandbox init` to create one.")
				return nil
			}

			for _, group := range groups {
				fmt.Printf("%s (%d agents)\n", color.New(color.FgCyan).Sprint(group.ID), len(group.Agents))
				for _, agent := range group.Agents {
					fmt.Printf("  %s\n", agent)
				}
			}
			return nil
		},
	}
}

func groupAddAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-agent <id> <address>...",
		Short: "Add agents to a group's roster",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, closeStore, err := openMailroom(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			group, err := svc.AddAgents(ctx, args[0], args[1:])
			if err != nil {
				return fmt.Errorf("adding agents: %w", err)
			}

			fmt.Printf("%s Group %s now has %d agent(s)\n", checkMark(), group.ID, len(group.Agents))
			return nil
		},
	}
}
