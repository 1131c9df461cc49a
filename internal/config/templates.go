package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "host":
		return hostTemplate, nil
	case "settings":
		return settingsTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const hostTemplate = `settings_path = "/tmp/editorhost/editor_settings.toml"

[host]
package_name = "org.godotengine.editor.v4"
runtime_dir = "/tmp/editorhost"
build_type = "release"
flavor = "standard"
platform_version = 34
admin_addr = "127.0.0.1:7770"
cors_origins = ["http://localhost:3000"]
immersive = false

[device]
native_xr = false
picture_in_picture = true
multi_window = false
width_px = 1080
height_px = 2400
density = 2.625
`

const settingsTemplate = `game_embed_mode = "auto"

[project]
"xr/openxr/enabled" = false

[editor]
"interface/touchscreen/enable_long_press_as_right_click" = true
"interface/touchscreen/enable_pan_and_scale_gestures" = true
`
