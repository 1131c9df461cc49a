package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/editorhost/internal/launch"
	"github.com/danmuck/editorhost/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func TestTemplatesLoadAndValidate(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "editorhost.toml")
	require.NoError(t, WriteTemplate(path, "host", false))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "org.godotengine.editor.v4", cfg.Host.PackageName)
	require.Equal(t, "127.0.0.1:7770", cfg.Host.AdminAddr)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.Host.CorsOrigins)
	require.True(t, cfg.Device.PictureInPicture)
	require.True(t, cfg.Host.SupportsAdjacentLaunch())

	require.Error(t, WriteTemplate(path, "host", false))
	require.NoError(t, WriteTemplate(path, "host", true))
	_, err = Template("nope")
	require.Error(t, err)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "partial.toml")
	require.NoError(t, os.WriteFile(path, []byte("[host]\nflavor = \"horizonos\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "horizonos", cfg.Host.Flavor)
	require.Equal(t, Default().Host.PackageName, cfg.Host.PackageName)
	require.Equal(t, Default().Device.Density, cfg.Device.Density)
}

func TestValidateRejectsBadPackageName(t *testing.T) {
	testlog.Start(t)
	cfg := Default()
	cfg.Host.PackageName = "bad:name"
	require.Error(t, Validate(cfg))
	cfg.Host.PackageName = ""
	require.Error(t, Validate(cfg))
}

func TestApplyEnvOverridesHost(t *testing.T) {
	testlog.Start(t)
	t.Setenv("EDITORHOST_RUNTIME_DIR", "/run/editorhost-test")
	t.Setenv("EDITORHOST_ADMIN_ADDR", "127.0.0.1:9999")
	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg))
	require.Equal(t, "/run/editorhost-test", cfg.Host.RuntimeDir)
	require.Equal(t, "127.0.0.1:9999", cfg.Host.AdminAddr)
	require.Equal(t, Default().Host.PackageName, cfg.Host.PackageName)
}

func TestLargeScreen(t *testing.T) {
	testlog.Start(t)
	phone := DeviceConfig{WidthPx: 1080, HeightPx: 2400, Density: 2.625}
	require.False(t, phone.LargeScreen())
	tablet := DeviceConfig{WidthPx: 2560, HeightPx: 1600, Density: 1.5}
	require.True(t, tablet.LargeScreen())
	require.False(t, DeviceConfig{WidthPx: 4000, HeightPx: 4000}.LargeScreen())
}

func TestSettingsPersistEmbedMode(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "nested", "editor_settings.toml")
	s, err := LoadSettings(path)
	require.NoError(t, err)
	require.Equal(t, launch.EmbedAuto, s.GameEmbedMode())

	s.SetProjectSetting("xr/openxr/enabled", true)
	s.SetEditorSetting(SettingPanAndScaleGestures, "true")
	require.NoError(t, s.SaveGameEmbedMode(launch.EmbedDisabled))

	reloaded, err := LoadSettings(path)
	require.NoError(t, err)
	require.Equal(t, launch.EmbedDisabled, reloaded.GameEmbedMode())
	require.True(t, reloaded.ProjectSettingBool("xr/openxr/enabled"))
	require.True(t, reloaded.EditorSettingBool(SettingPanAndScaleGestures))
	require.False(t, reloaded.EditorSettingBool(SettingLongPressAsRightClick))
}

func TestSettingsTemplateParses(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "editor_settings.toml")
	require.NoError(t, WriteTemplate(path, "settings", false))
	s, err := LoadSettings(path)
	require.NoError(t, err)
	require.False(t, s.ProjectSettingBool("xr/openxr/enabled"))
	require.True(t, s.EditorSettingBool(SettingLongPressAsRightClick))
	require.Equal(t, launch.EmbedAuto, s.GameEmbedMode())
}

func TestInMemorySettingsDoNotWrite(t *testing.T) {
	testlog.Start(t)
	s := NewSettings()
	require.NoError(t, s.SaveGameEmbedMode(launch.EmbedEnabled))
	require.Equal(t, launch.EmbedEnabled, s.GameEmbedMode())
}

func TestAdminAddrFor(t *testing.T) {
	testlog.Start(t)
	h := HostConfig{AdminAddr: "127.0.0.1:7770"}
	addr, err := h.AdminAddrFor(2)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7772", addr)

	addr, err = HostConfig{}.AdminAddrFor(1)
	require.NoError(t, err)
	require.Empty(t, addr)

	_, err = HostConfig{AdminAddr: "nope"}.AdminAddrFor(0)
	require.Error(t, err)
}
