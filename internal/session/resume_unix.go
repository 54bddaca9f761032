//go:build !windows
// +build !windows

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// LaunchCapture executes a resume command under a pty and tees
// everything written to the terminal into a transcript file.
func LaunchCapture(ctx context.Context, command, transcript string) error {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return errors.New("empty resume command")
	}

	out, err := os.Create(transcript)
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	defer out.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("start pty: %w", err)
	}
	defer ptmx.Close()

	stdinFd := int(os.Stdin.Fd())
	if term.IsTerminal(stdinFd) {
		oldState, err := term.MakeRaw(stdinFd)
		if err != nil {
			return fmt.Errorf("set raw mode: %w", err)
		}
		defer func() { _ = term.Restore(stdinFd, oldState) }()
	}

	// Keep the child's pty sized to the caller's window.
	sigwinch := make(chan os.Signal, 1)
	signal.Notify(sigwinch, syscall.SIGWINCH)
	sigwinchDone := make(chan struct{})
	defer func() {
		signal.Stop(sigwinch)
		close(sigwinchDone)
	}()
	go func() {
		for {
			select {
			case <-sigwinchDone:
				return
			case _, ok := <-sigwinch:
				if !ok {
					return
				}
				if ws, err := pty.GetsizeFull(os.Stdin); err == nil {
					_ = pty.Setsize(ptmx, ws)
				}
			}
		}
	}()
	sigwinch <- syscall.SIGWINCH

	go func() {
		_, _ = io.Copy(ptmx, os.Stdin)
	}()

	// Drain in the foreground so the transcript holds every byte the
	// child wrote before it exited. Linux reports EIO on the master
	// side once the child closes the pty.
	tee := io.MultiWriter(os.Stdout, out)
	if _, err := io.Copy(tee, ptmx); err != nil && !errors.Is(err, syscall.EIO) {
		return fmt.Errorf("pty read: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("resume command failed: %w", err)
	}
	return nil
}
