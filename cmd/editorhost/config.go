package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/editorhost/internal/config"
)

type fileConfig struct {
	SettingsPath string        `toml:"settings_path"`
	Host         hostSection   `toml:"host"`
	Device       deviceSection `toml:"device"`
}

type hostSection struct {
	PackageName     string   `toml:"package_name"`
	RuntimeDir      string   `toml:"runtime_dir"`
	BuildType       string   `toml:"build_type"`
	Flavor          string   `toml:"flavor"`
	PlatformVersion int      `toml:"platform_version"`
	AdminAddr       string   `toml:"admin_addr"`
	CorsOrigins     []string `toml:"cors_origins"`
	Immersive       bool     `toml:"immersive"`
}

type deviceSection struct {
	NativeXR         bool    `toml:"native_xr"`
	PictureInPicture bool    `toml:"picture_in_picture"`
	MultiWindow      bool    `toml:"multi_window"`
	WidthPx          int     `toml:"width_px"`
	HeightPx         int     `toml:"height_px"`
	Density          float64 `toml:"density"`
}

// loadConfig overlays the keys present in path onto the defaults, then applies
// EDITORHOST_* environment overrides. An empty path uses defaults only.
func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if strings.TrimSpace(path) != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return config.Config{}, fmt.Errorf("load editorhost config: %w", err)
		}
		overlay(&cfg, raw, meta)
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func overlay(cfg *config.Config, raw fileConfig, meta toml.MetaData) {
	if meta.IsDefined("settings_path") {
		cfg.SettingsPath = strings.TrimSpace(raw.SettingsPath)
	}

	h := raw.Host
	if meta.IsDefined("host", "package_name") {
		cfg.Host.PackageName = strings.TrimSpace(h.PackageName)
	}
	if meta.IsDefined("host", "runtime_dir") {
		cfg.Host.RuntimeDir = strings.TrimSpace(h.RuntimeDir)
	}
	if meta.IsDefined("host", "build_type") {
		cfg.Host.BuildType = strings.TrimSpace(h.BuildType)
	}
	if meta.IsDefined("host", "flavor") {
		cfg.Host.Flavor = strings.TrimSpace(h.Flavor)
	}
	if meta.IsDefined("host", "platform_version") {
		cfg.Host.PlatformVersion = h.PlatformVersion
	}
	if meta.IsDefined("host", "admin_addr") {
		cfg.Host.AdminAddr = strings.TrimSpace(h.AdminAddr)
	}
	if meta.IsDefined("host", "cors_origins") {
		cfg.Host.CorsOrigins = normalizeOrigins(h.CorsOrigins)
	}
	if meta.IsDefined("host", "immersive") {
		cfg.Host.Immersive = h.Immersive
	}

	d := raw.Device
	if meta.IsDefined("device", "native_xr") {
		cfg.Device.NativeXR = d.NativeXR
	}
	if meta.IsDefined("device", "picture_in_picture") {
		cfg.Device.PictureInPicture = d.PictureInPicture
	}
	if meta.IsDefined("device", "multi_window") {
		cfg.Device.MultiWindow = d.MultiWindow
	}
	if meta.IsDefined("device", "width_px") {
		cfg.Device.WidthPx = d.WidthPx
	}
	if meta.IsDefined("device", "height_px") {
		cfg.Device.HeightPx = d.HeightPx
	}
	if meta.IsDefined("device", "density") {
		cfg.Device.Density = d.Density
	}
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
