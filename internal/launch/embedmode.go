package launch

import (
	"fmt"
	"strings"
)

// EmbedMode governs whether a run-game launch renders inside the editor window.
type EmbedMode int

const (
	EmbedAuto EmbedMode = iota
	EmbedDisabled
	EmbedEnabled
)

func (m EmbedMode) String() string {
	switch m {
	case EmbedDisabled:
		return "disabled"
	case EmbedEnabled:
		return "enabled"
	default:
		return "auto"
	}
}

func ParseEmbedMode(raw string) (EmbedMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return EmbedAuto, nil
	case "disabled", "off":
		return EmbedDisabled, nil
	case "enabled", "on":
		return EmbedEnabled, nil
	default:
		return EmbedAuto, fmt.Errorf("launch: unknown embed mode %q", raw)
	}
}

// EmbedModeFor maps the embed-on-play toggle to a persisted mode.
func EmbedModeFor(embedded bool) EmbedMode {
	if embedded {
		return EmbedEnabled
	}
	return EmbedDisabled
}
