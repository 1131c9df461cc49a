package launch

import (
	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
)

// SettingOpenXREnabled is the project setting consulted when the xr mode defers to the project.
const SettingOpenXREnabled = "xr/openxr/enabled"

// Environment answers the device and project questions window selection depends on.
type Environment interface {
	IsNativeXRDevice() bool
	ProjectSettingBool(key string) bool
	IsProjectManagerHint() bool
	IsInMultiWindowMode() bool
	IsLargeScreen() bool
}

// Resolver picks the window role that should handle a launch. It keeps no state
// between calls; identical inputs produce identical descriptors.
type Resolver struct {
	env Environment
}

func NewResolver(env Environment) *Resolver {
	return &Resolver{env: env}
}

func (r *Resolver) Resolve(args []string, mode EmbedMode) window.Descriptor {
	parsed := parseArgs(args)
	if parsed.hasEditor {
		return window.Editor
	}

	nativeXR := r.env.IsNativeXRDevice()
	openxr := parsed.xrMode == XRModeOn ||
		(parsed.xrMode == XRModeDefault && r.env.ProjectSettingBool(SettingOpenXREnabled))
	if openxr && nativeXR {
		return window.XRRunGame
	}
	if r.env.IsProjectManagerHint() || nativeXR {
		return window.RunGame
	}

	switch mode {
	case EmbedDisabled:
		return window.RunGame
	case EmbedEnabled:
		return window.EmbeddedRunGame
	case EmbedAuto:
		if r.env.IsInMultiWindowMode() || r.env.IsLargeScreen() {
			return window.RunGame
		}
		return window.EmbeddedRunGame
	default:
		log.Warn().Int("mode", int(mode)).Msg("launch.Resolver.Resolve unknown embed mode")
		return window.RunGame
	}
}
