package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Sandbox - disposable email networks for agent groups",
		Long: `Sandbox provisions disposable, isolated email-like networks in which
groups of agents exchange threaded messages. The CLI manages groups and
rosters against the same store the server reads.`,
	}

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.GroupCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.TailCmd())
	rootCmd.AddCommand(cli.ResetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
