package activity

import (
	"sync"

	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
)

// State is where a window role sits in its process lifecycle, as seen from this process.
type State int

const (
	StateAbsent State = iota
	StateStarting
	StateRunning
	StateForceQuitting
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateForceQuitting:
		return "force-quitting"
	default:
		return "absent"
	}
}

// WindowStatus is one row of a lifecycle snapshot.
type WindowStatus struct {
	Role      string `json:"role"`
	ID        int    `json:"id"`
	State     string `json:"state"`
	Reachable bool   `json:"reachable"`
}

// Lifecycle tracks the state of every window role. Roles never seen are absent.
type Lifecycle struct {
	mu     sync.Mutex
	states map[int]State
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{states: make(map[int]State)}
}

func (l *Lifecycle) Get(desc window.Descriptor) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[desc.ID]
}

// Transition moves desc to next and returns the previous state.
func (l *Lifecycle) Transition(desc window.Descriptor, next State) State {
	l.mu.Lock()
	prev := l.states[desc.ID]
	if next == StateAbsent {
		delete(l.states, desc.ID)
	} else {
		l.states[desc.ID] = next
	}
	l.mu.Unlock()
	if prev != next {
		log.Debug().
			Str("window", desc.String()).
			Str("from", prev.String()).
			Str("to", next.String()).
			Msg("activity.Lifecycle.Transition")
	}
	return prev
}

// Snapshot lists every known role in registry order. reachable reports whether this
// process holds an endpoint for a window ID.
func (l *Lifecycle) Snapshot(reachable func(id int) bool) []WindowStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]WindowStatus, 0, len(l.states))
	for _, desc := range window.All() {
		st := l.states[desc.ID]
		ok := reachable != nil && reachable(desc.ID)
		out = append(out, WindowStatus{
			Role:      string(desc.Role),
			ID:        desc.ID,
			State:     st.String(),
			Reachable: ok,
		})
	}
	return out
}
