package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// versionTimeout bounds each version probe.
const versionTimeout = 5 * time.Second

// Requirement describes an external binary soundpack runs.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are passed to Command to read its version.
	VersionArgs []string
}

// Status reports whether a requirement is usable.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Version is the first line the binary printed for VersionArgs.
	Version string
	Detail  string
}

// CheckBinaries resolves every requirement on PATH and, for the ones found,
// reads their version. A binary that is present but fails its version
// probe is reported unavailable; for ffprobe that usually means a broken
// shared library install.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(ctx, req))
	}
	return results
}

func check(ctx context.Context, req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	if len(req.VersionArgs) > 0 {
		version, err := readVersion(ctx, resolved, req.VersionArgs)
		if err != nil {
			status.Detail = fmt.Sprintf("%s %s failed: %v", cmd, strings.Join(req.VersionArgs, " "), err)
			return status
		}
		status.Version = version
	}
	status.Available = true
	return status
}

func readVersion(ctx context.Context, binary string, args []string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", nil
}
