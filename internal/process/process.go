// Package process terminates browser process trees left behind by PDF export.
package process

import (
	"errors"
	"fmt"
)

// ErrInvalidPID is returned for PIDs that would target the caller's own
// process group or init.
var ErrInvalidPID = errors.New("invalid pid")

// KillTree kills pid and every process it spawned.
func KillTree(pid int) error {
	if pid <= 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	return killTree(pid)
}
