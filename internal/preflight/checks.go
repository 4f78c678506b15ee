package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"soundpack/internal/assetindex"
	"soundpack/internal/config"
	"soundpack/internal/deps"
	"soundpack/internal/upload"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatable passes when path is an accessible directory or could be
// created: its nearest existing ancestor is a writable directory.
func CheckCreatable(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", path)}
		}
		ancestor = parent
	}
	check := CheckDirectoryAccess(name, ancestor)
	if !check.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s)", path, ancestor)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckSystemDeps evaluates the external binaries soundpack runs.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFprobe",
			Command:     deps.ResolveFFprobePath(cfg.FFprobeBinary()),
			Description: "Required for audio inspection",
			VersionArgs: []string{"-version"},
		},
	}
	return deps.CheckBinaries(ctx, requirements)
}

// CheckIndex opens the asset index, creating it if needed, and reports its size.
func CheckIndex(path string) Result {
	const name = "Asset index"
	store, err := assetindex.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	stats, err := store.Stats(context.Background())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d packages, %d assets)", path, stats.Packages, stats.Assets)}
}

// CheckUpload verifies the pinning service accepts the configured JWT. It
// uses a 10-second timeout and a single attempt.
func CheckUpload(ctx context.Context, cfg config.Upload) Result {
	const name = "Pinning service"
	if cfg.JWT == "" {
		return Result{Name: name, Detail: "JWT missing"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := upload.NewClient(upload.Config{
		JWT:            cfg.JWT,
		FileURL:        cfg.FileURL,
		JSONURL:        cfg.JSONURL,
		Gateway:        cfg.Gateway,
		TimeoutSeconds: 10,
	}, upload.WithRetryMaxAttempts(1))
	if err := client.CheckAuth(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeUploadError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "authenticated"}
}

func summarizeUploadError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "auth check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "auth check timed out (service unreachable)"
	}
	return err.Error()
}
