package config

import (
	"fmt"
	"math"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// Config is everything a window process needs before it starts its activity.
type Config struct {
	Host         HostConfig   `toml:"host"`
	Device       DeviceConfig `toml:"device"`
	SettingsPath string       `toml:"settings_path"`
}

type HostConfig struct {
	PackageName     string   `toml:"package_name" env:"PACKAGE_NAME"`
	RuntimeDir      string   `toml:"runtime_dir" env:"RUNTIME_DIR"`
	BuildType       string   `toml:"build_type" env:"BUILD_TYPE"`
	Flavor          string   `toml:"flavor" env:"FLAVOR"`
	PlatformVersion int      `toml:"platform_version"`
	AdminAddr       string   `toml:"admin_addr" env:"ADMIN_ADDR"`
	CorsOrigins     []string `toml:"cors_origins"`
	Immersive       bool     `toml:"immersive"`
}

// DeviceConfig describes the display and capabilities of the host device.
type DeviceConfig struct {
	NativeXR         bool    `toml:"native_xr"`
	PictureInPicture bool    `toml:"picture_in_picture"`
	MultiWindow      bool    `toml:"multi_window"`
	WidthPx          int     `toml:"width_px"`
	HeightPx         int     `toml:"height_px"`
	Density          float64 `toml:"density"`
}

// LargeScreenMinDP is the shorter-side width, in density-independent pixels, of the
// expanded window size class.
const LargeScreenMinDP = 840.0

// MinAdjacentPlatformVersion is the first platform version with side-by-side launches.
const MinAdjacentPlatformVersion = 24

func Default() Config {
	return Config{
		Host: HostConfig{
			PackageName:     "org.godotengine.editor.v4",
			RuntimeDir:      filepath.Join(os.TempDir(), "editorhost"),
			BuildType:       "release",
			Flavor:          "standard",
			PlatformVersion: 34,
		},
		Device: DeviceConfig{
			PictureInPicture: true,
			WidthPx:          1080,
			HeightPx:         2400,
			Density:          2.625,
		},
	}
}

// LargeScreen reports whether the device's shorter side is at least LargeScreenMinDP.
func (d DeviceConfig) LargeScreen() bool {
	if d.Density <= 0 {
		return false
	}
	minPx := math.Min(float64(d.WidthPx), float64(d.HeightPx))
	return minPx/d.Density >= LargeScreenMinDP
}

func (h HostConfig) SupportsAdjacentLaunch() bool {
	return h.PlatformVersion >= MinAdjacentPlatformVersion
}

// AdminAddrFor offsets the admin port by slot so every window process of one installation
// gets its own listener. An empty admin_addr disables the admin API.
func (h HostConfig) AdminAddrFor(slot int) (string, error) {
	if strings.TrimSpace(h.AdminAddr) == "" {
		return "", nil
	}
	host, portRaw, err := net.SplitHostPort(h.AdminAddr)
	if err != nil {
		return "", fmt.Errorf("host config admin_addr: %w", err)
	}
	port, err := strconv.Atoi(portRaw)
	if err != nil {
		return "", fmt.Errorf("host config admin_addr port: %w", err)
	}
	if port == 0 {
		return h.AdminAddr, nil
	}
	return net.JoinHostPort(host, strconv.Itoa(port+slot)), nil
}

// ApplyEnv overlays EDITORHOST_* environment variables onto the host section.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(&cfg.Host, env.Options{Prefix: "EDITORHOST_"}); err != nil {
		return fmt.Errorf("config env overrides: %w", err)
	}
	return nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Host.PackageName) == "" {
		return fmt.Errorf("host config missing package_name")
	}
	if strings.ContainsAny(cfg.Host.PackageName, ":/ ") {
		return fmt.Errorf("host config package_name %q has invalid characters", cfg.Host.PackageName)
	}
	if strings.TrimSpace(cfg.Host.RuntimeDir) == "" {
		return fmt.Errorf("host config missing runtime_dir")
	}
	if cfg.Device.WidthPx < 0 || cfg.Device.HeightPx < 0 {
		return fmt.Errorf("device config dimensions must be non-negative")
	}
	if cfg.Device.Density < 0 {
		return fmt.Errorf("device config density must be non-negative")
	}
	return nil
}

// Load reads a complete config file over the defaults. Missing keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveSettingsPath defaults the settings file into the runtime directory.
func (c Config) ResolveSettingsPath() string {
	if strings.TrimSpace(c.SettingsPath) != "" {
		return c.SettingsPath
	}
	return filepath.Join(c.Host.RuntimeDir, "editor_settings.toml")
}
