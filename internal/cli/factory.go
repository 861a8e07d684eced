package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/andybrowning5/Simple-Email-Sandbox/internal/config"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/mailroom"
	"github.com/andybrowning5/Simple-Email-Sandbox/internal/store"
)

// openMailroom opens the store from the same configuration the server
// reads and wraps it in a mailroom service. The returned closer must be
// called when the command is done with the store.
func openMailroom(ctx context.Context) (*mailroom.Service, func(), error) {
	cfg := config.Load()

	var st store.Store
	if cfg.DatabaseURL != "" {
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		st = pg
	} else {
		sq, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		st = sq
	}

	svc := mailroom.New(st, zerolog.Nop())
	return svc, st.Close, nil
}

func checkMark() string {
	return color.New(color.FgGreen).Sprint("✓")
}

// prompt prints a label and reads one trimmed line from the reader.
func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirmPrompt asks a yes/no question and returns true on "y" or "yes".
func confirmPrompt(msg string) bool {
	fmt.Printf("%s [y/N]: ", msg)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// splitList splits a comma-separated flag value into trimmed entries.
func splitList(line string) []string {
	var out []string
	for _, part := range strings.Split(line, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
