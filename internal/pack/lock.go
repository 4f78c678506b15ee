package pack

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"soundpack/internal/services"
)

const lockFileName = ".soundpack.lock"

// acquireLock takes a non-blocking advisory lock on the packages root. It
// narrows, but does not close, the window between the existence check and
// the writes for processes that honour the lock.
func acquireLock(packagesDir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(packagesDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.WrapIO("pack", "lock", packagesDir, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, "pack", "lock", fmt.Sprintf("another build holds %s", lock.Path()), nil)
	}
	return lock, nil
}

// checkWritable reports ErrPermission when dir cannot be written by this
// process.
func checkWritable(dir string) error {
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return services.Wrap(services.ErrPermission, "pack", "preflight", dir+" is not writable", err)
	}
	return nil
}
