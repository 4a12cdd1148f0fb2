package file

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/jaxron/urlview/pkg/errors"
)

const (
	filePerms         = 0o644
	lockRetryInterval = 10 * time.Millisecond
)

// LockTimeout is how long a write waits for the state file lock by default.
const LockTimeout = 5 * time.Second

// fileLock is an exclusive flock on a sidecar ".lock" file.
type fileLock struct {
	file *os.File
}

// acquireLock blocks until the lock is held, timeout passes or ctx is done.
// Only contention is retried; any other flock failure is returned at once.
func acquireLock(ctx context.Context, path string, timeout time.Duration) (*fileLock, error) {
	file, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, filePerms) //nolint:gosec // path is from the caller
	if err != nil {
		return nil, fmt.Errorf("%w: opening lock file: %w", errors.ErrState, err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		// Try non-blocking exclusive lock
		err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		switch {
		case err == nil:
			return &fileLock{file: file}, nil
		case stderrors.Is(err, syscall.EWOULDBLOCK), stderrors.Is(err, syscall.EINTR):
		default:
			_ = file.Close()
			return nil, fmt.Errorf("%w: locking %s: %w", errors.ErrState, path, err)
		}

		select {
		case <-ctx.Done():
			_ = file.Close()
			return nil, fmt.Errorf("%w: waiting for lock on %s: %w", errors.ErrTimeout, path, ctx.Err())
		case <-deadline.C:
			_ = file.Close()
			return nil, fmt.Errorf("%w: lock on %s still held after %s", errors.ErrTimeout, path, timeout)
		case <-time.After(lockRetryInterval):
		}
	}
}

func (l *fileLock) release() {
	if l.file != nil {
		_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
		_ = l.file.Close()
	}
}
