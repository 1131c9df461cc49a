package window

import (
	"fmt"
	"strings"
)

// Role names a kind of top-level session. Each role runs in its own OS process.
type Role string

const (
	RoleEditor          Role = "editor"
	RoleRunGame         Role = "run-game"
	RoleEmbeddedRunGame Role = "embedded-run-game"
	RoleXRRunGame       Role = "xr-run-game"
)

type LaunchPolicy int

const (
	LaunchDefault LaunchPolicy = iota
	LaunchAdjacent
)

func (p LaunchPolicy) String() string {
	switch p {
	case LaunchAdjacent:
		return "adjacent"
	default:
		return "default"
	}
}

// Descriptor identifies a window role. ID is the cross-process correlation key carried
// in every control message and launch intent.
type Descriptor struct {
	Role              Role
	ID                int
	ProcessNameSuffix string
	LaunchPolicy      LaunchPolicy
}

var (
	Editor = Descriptor{
		Role: RoleEditor,
		ID:   777,
	}
	RunGame = Descriptor{
		Role:              RoleRunGame,
		ID:                667,
		ProcessNameSuffix: ":GodotGame",
		LaunchPolicy:      LaunchAdjacent,
	}
	EmbeddedRunGame = Descriptor{
		Role:              RoleEmbeddedRunGame,
		ID:                2667,
		ProcessNameSuffix: ":EmbeddedGodotGame",
	}
	XRRunGame = Descriptor{
		Role:              RoleXRRunGame,
		ID:                1667,
		ProcessNameSuffix: ":GodotXRGame",
	}
)

var (
	ordered = []Descriptor{Editor, RunGame, EmbeddedRunGame, XRRunGame}
	byID    = indexByID(ordered)
)

func indexByID(ds []Descriptor) map[int]Descriptor {
	out := make(map[int]Descriptor, len(ds))
	for _, d := range ds {
		if _, dup := out[d.ID]; dup {
			panic(fmt.Sprintf("window: duplicate descriptor id %d", d.ID))
		}
		out[d.ID] = d
	}
	return out
}

// Resolve looks up a descriptor by its window ID. Unknown IDs belong to unmanaged windows.
func Resolve(id int) (Descriptor, bool) {
	d, ok := byID[id]
	return d, ok
}

// All returns every descriptor in registry order.
func All() []Descriptor {
	out := make([]Descriptor, len(ordered))
	copy(out, ordered)
	return out
}

func ParseRole(raw string) (Descriptor, error) {
	want := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, d := range ordered {
		if d.Role == want {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("window: unknown role %q", raw)
}

// ProcessName is the OS-visible process name for this window under packageName.
func (d Descriptor) ProcessName(packageName string) string {
	return packageName + d.ProcessNameSuffix
}

func (d Descriptor) IsGame() bool {
	return d.Role != RoleEditor && d.Role != ""
}

func (d Descriptor) IsZero() bool {
	return d.ID == 0
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%d)", d.Role, d.ID)
}
