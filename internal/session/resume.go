package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
)

// Launch executes a resume command with the caller's terminal attached.
// The resumed CLI owns the terminal, including ctrl+c, until it exits.
func Launch(ctx context.Context, command string) error {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return errors.New("empty resume command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	signal.Ignore(os.Interrupt)
	defer signal.Reset(os.Interrupt)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("resume command failed: %w", err)
	}
	return nil
}
