package launch

import "github.com/danmuck/editorhost/internal/window"

// AugmentArgs keeps an immersive editor session fullscreen across a relaunch. Game windows
// control fullscreen themselves and are returned unchanged. The input slice is never modified.
func AugmentArgs(desc window.Descriptor, args []string, immersive bool) []string {
	out := append([]string(nil), args...)
	if desc.Role != window.RoleEditor || !immersive || HasFullscreen(args) {
		return out
	}
	return append(out, ArgFullscreen)
}

// WithBuildArgs appends build-specific parameters before command-line params are applied.
func WithBuildArgs(buildType string, args []string) []string {
	out := append([]string(nil), args...)
	if buildType == "dev" {
		out = append(out, ArgBenchmark)
	}
	return out
}
