package launch

import "slices"

// Command-line flags understood by every window process.
const (
	ArgFullscreen          = "--fullscreen"
	ArgFullscreenShort     = "-f"
	ArgEditor              = "--editor"
	ArgEditorShort         = "-e"
	ArgProjectManager      = "--project-manager"
	ArgProjectManagerShort = "-p"
	ArgXRMode              = "--xr-mode"
	ArgBenchmark           = "--benchmark"
)

type XRMode string

const (
	XRModeDefault XRMode = "default"
	XRModeOff     XRMode = "off"
	XRModeOn      XRMode = "on"
)

type parsedArgs struct {
	hasEditor bool
	xrMode    XRMode
}

func parseArgs(args []string) parsedArgs {
	out := parsedArgs{xrMode: XRModeDefault}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case ArgEditor, ArgEditorShort, ArgProjectManager, ArgProjectManagerShort:
			out.hasEditor = true
		case ArgXRMode:
			// A trailing flag with no value is ignored.
			if i+1 >= len(args) {
				continue
			}
			i++
			out.xrMode = parseXRMode(args[i])
		}
	}
	return out
}

// parseXRMode treats unrecognized values like "off": only "on" forces OpenXR and only
// "default" defers to the project setting.
func parseXRMode(raw string) XRMode {
	switch XRMode(raw) {
	case XRModeOn:
		return XRModeOn
	case XRModeDefault:
		return XRModeDefault
	default:
		return XRModeOff
	}
}

// HasFullscreen reports whether args start the window fullscreen.
func HasFullscreen(args []string) bool {
	return slices.Contains(args, ArgFullscreen) || slices.Contains(args, ArgFullscreenShort)
}

// Hints reports whether args start the editor or the project manager.
func Hints(args []string) (editor, projectManager bool) {
	editor = slices.Contains(args, ArgEditor) || slices.Contains(args, ArgEditorShort)
	projectManager = slices.Contains(args, ArgProjectManager) || slices.Contains(args, ArgProjectManagerShort)
	return editor, projectManager
}
