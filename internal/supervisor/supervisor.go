// Package supervisor owns the OS process primitives behind window lifecycle: spawning a
// window process, finding and killing one by name, and restarting or quitting self.
package supervisor

import (
	"context"
	"errors"

	"github.com/danmuck/editorhost/internal/launch"
	"github.com/danmuck/editorhost/internal/window"
)

var (
	ErrNotFound = errors.New("supervisor: process not found")
	ErrSelf     = errors.New("supervisor: refusing to target own process")
)

// Handle identifies a running window process.
type Handle struct {
	PID         int
	ProcessName string
}

type LaunchOptions struct {
	// Adjacent requests side-by-side placement next to the launching window.
	Adjacent bool
}

// Supervisor is the process collaborator the activity depends on.
type Supervisor interface {
	Spawn(ctx context.Context, desc window.Descriptor, intent launch.Intent, opts LaunchOptions) (Handle, error)
	Kill(h Handle) error
	// Lookup finds a running process by its OS-visible name.
	Lookup(processName string) (Handle, error)
	// RestartSelf replaces the current process with a fresh instance started from intent.
	RestartSelf(intent launch.Intent) error
	// ForceQuitSelf terminates the current process. It does not return on success.
	ForceQuitSelf()
}
