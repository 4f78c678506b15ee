package deps

import (
	"os/exec"
	"strings"
)

// ResolveFFprobePath returns the absolute ffprobe path when the configured
// binary is on PATH, or the configured value unchanged otherwise so the
// failure message names what the user asked for.
func ResolveFFprobePath(configured string) string {
	bin := strings.TrimSpace(configured)
	if bin == "" {
		bin = "ffprobe"
	}
	if resolved, err := exec.LookPath(bin); err == nil {
		return resolved
	}
	return bin
}
