// Package platform detects the host environment and the filesystem
// quirks that change how file watching and the clipboard behave.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform identifies the host environment.
type Platform string

const (
	MacOS   Platform = "macos"
	Linux   Platform = "linux"
	WSL1    Platform = "wsl1"
	WSL2    Platform = "wsl2"
	Windows Platform = "windows"
	Unknown Platform = "unknown"
)

var (
	detected      Platform
	detectionDone bool
)

// Detect returns the host platform, caching the result after the
// first call.
func Detect() Platform {
	if detectionDone {
		return detected
	}
	detected = detect()
	detectionDone = true
	return detected
}

func detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "windows":
		return Windows
	case "linux":
		return detectLinux()
	default:
		return Unknown
	}
}

// detectLinux separates native Linux from WSL. WSL sets
// WSL_DISTRO_NAME and leaves a Microsoft signature in /proc/version.
func detectLinux() Platform {
	if os.Getenv("WSL_DISTRO_NAME") != "" {
		return wslVersion()
	}
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return Linux
	}
	if strings.Contains(strings.ToLower(string(data)), "microsoft") {
		return wslVersion()
	}
	return Linux
}

// wslVersion tells WSL1 from WSL2. WSL2 kernels carry the lowercase
// "microsoft-standard" signature and expose /run/WSL and /dev/vsock;
// WSL1 kernels say "Microsoft" with a capital M.
func wslVersion() Platform {
	if data, err := os.ReadFile("/proc/version"); err == nil {
		s := string(data)
		if strings.Contains(s, "microsoft-standard") {
			return WSL2
		}
		if strings.Contains(s, "Microsoft") {
			return WSL1
		}
	}
	if _, err := os.Stat("/run/WSL"); err == nil {
		return WSL2
	}
	if _, err := os.Stat("/dev/vsock"); err == nil {
		return WSL2
	}
	return WSL1
}

// String returns a human-readable platform name.
func (p Platform) String() string {
	switch p {
	case MacOS:
		return "macOS"
	case Linux:
		return "Linux"
	case WSL1:
		return "WSL1"
	case WSL2:
		return "WSL2"
	case Windows:
		return "Windows"
	default:
		return "Unknown"
	}
}

// WatchWarning reports whether the filesystem holding path delivers
// inotify events. Network and passthrough mounts drop them silently,
// so a watcher there never sees new log files. Returns a warning to
// show the user, or "" when watching should work.
func WatchWarning(path string) string {
	// WSL2 reaches Windows drives over 9p, so this only matters on Linux.
	if runtime.GOOS != "linux" {
		return ""
	}
	fsType := mountType(path)
	switch fsType {
	case "9p":
		return "logs are on a 9p mount (WSL2 Windows drive): file events are not delivered, rerun 'ai-session-viewer index' to pick up new sessions"
	case "nfs", "nfs4":
		return "logs are on an NFS mount: file events may be dropped, rerun 'ai-session-viewer index' if sessions go missing"
	case "cifs", "smbfs":
		return "logs are on a CIFS/SMB mount: file events may be dropped, rerun 'ai-session-viewer index' if sessions go missing"
	}
	if strings.HasPrefix(fsType, "fuse.sshfs") {
		return "logs are on an SSHFS mount: file events are not delivered, rerun 'ai-session-viewer index' to pick up new sessions"
	}
	return ""
}

// mountType returns the filesystem type of the longest mount point
// containing path, read from /proc/mounts.
func mountType(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	mounts, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return ""
	}
	var bestMount, bestType string
	for _, line := range strings.Split(string(mounts), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		if strings.HasPrefix(abs, fields[1]) && len(fields[1]) > len(bestMount) {
			bestMount, bestType = fields[1], fields[2]
		}
	}
	return bestType
}
