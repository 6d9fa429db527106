//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// isResourceExhausted reports inotify watch or file descriptor exhaustion.
func isResourceExhausted(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
