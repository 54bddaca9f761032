// Package clipboard copies text to the system clipboard, trying the
// platform's native tool first and falling back to the OSC 52 escape
// sequence for terminals that support it.
package clipboard

import (
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/zbsdsb/ai-session-viewer/internal/platform"
)

// Copy places text on the system clipboard and reports the method
// used, for example "pbcopy", "xclip", or "osc52".
func Copy(text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("no content to copy")
	}

	if method, err := copyNative(text); err == nil {
		return method, nil
	}

	if osc52Supported() {
		if err := copyOSC52(text); err != nil {
			return "", fmt.Errorf("OSC 52 clipboard failed: %w", err)
		}
		return "osc52", nil
	}

	return "", fmt.Errorf("no clipboard method available (install pbcopy, xclip, xsel, or wl-copy)")
}

// copyNative pipes text into a platform clipboard command. Returns
// the command name on success.
func copyNative(text string) (string, error) {
	switch p := platform.Detect(); p {
	case platform.MacOS:
		return "pbcopy", runClipCmd("pbcopy", nil, text)

	case platform.WSL1, platform.WSL2:
		return "clip.exe", runClipCmd("clip.exe", nil, text)

	case platform.Linux:
		// Wayland takes priority over X11.
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			if path, err := exec.LookPath("wl-copy"); err == nil {
				return "wl-copy", runClipCmd(path, nil, text)
			}
		}
		if path, err := exec.LookPath("xclip"); err == nil {
			return "xclip", runClipCmd(path, []string{"-selection", "clipboard"}, text)
		}
		if path, err := exec.LookPath("xsel"); err == nil {
			return "xsel", runClipCmd(path, []string{"--clipboard", "--input"}, text)
		}
		return "", fmt.Errorf("no clipboard command found on Linux")

	default:
		return "", fmt.Errorf("unsupported platform: %s", p)
	}
}

// runClipCmd feeds text to a clipboard tool over stdin.
func runClipCmd(name string, args []string, text string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// osc52Supported guesses whether the terminal honors OSC 52. tmux
// passes the sequence through, and the common modern emulators all
// implement it.
func osc52Supported() bool {
	if os.Getenv("TMUX") != "" {
		return true
	}
	if os.Getenv("WT_SESSION") != "" {
		return true
	}
	term := os.Getenv("TERM")
	for _, known := range []string{"xterm", "alacritty", "kitty", "wezterm", "foot", "ghostty"} {
		if strings.Contains(term, known) {
			return true
		}
	}
	return false
}

// copyOSC52 copies text using the OSC 52 terminal escape sequence,
// written straight to /dev/tty so it works when stdout is redirected.
func copyOSC52(text string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	seq := osc52Sequence(encoded, os.Getenv("TMUX") != "")

	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("cannot open /dev/tty: %w", err)
	}
	defer tty.Close()

	_, err = tty.WriteString(seq)
	return err
}

// osc52Sequence builds the OSC 52 escape sequence. Inside tmux the
// sequence needs a DCS passthrough wrapper to reach the outer
// terminal.
func osc52Sequence(base64Content string, inTmux bool) string {
	osc := "\x1b]52;c;" + base64Content + "\x07"
	if inTmux {
		return "\x1bPtmux;\x1b" + osc + "\x1b\\"
	}
	return osc
}
