package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/danmuck/editorhost/internal/launch"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// Editor settings read at setup time.
const (
	SettingLongPressAsRightClick = "interface/touchscreen/enable_long_press_as_right_click"
	SettingPanAndScaleGestures   = "interface/touchscreen/enable_pan_and_scale_gestures"
)

type settingsFile struct {
	GameEmbedMode string         `toml:"game_embed_mode"`
	Project       map[string]any `toml:"project"`
	Editor        map[string]any `toml:"editor"`
}

// Settings holds project and editor settings. It is shared by every window process of
// one editor installation through a TOML file.
type Settings struct {
	mu   sync.RWMutex
	path string
	file settingsFile
}

// NewSettings returns in-memory settings that are never persisted.
func NewSettings() *Settings {
	return &Settings{file: settingsFile{
		Project: map[string]any{},
		Editor:  map[string]any{},
	}}
}

// LoadSettings reads path. A missing file yields empty settings bound to path.
func LoadSettings(path string) (*Settings, error) {
	s := NewSettings()
	s.path = path
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &s.file); err != nil {
		return nil, fmt.Errorf("settings parse failed (%s): %w", path, err)
	}
	if s.file.Project == nil {
		s.file.Project = map[string]any{}
	}
	if s.file.Editor == nil {
		s.file.Editor = map[string]any{}
	}
	return s, nil
}

func (s *Settings) ProjectSettingBool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return asBool(s.file.Project[key])
}

func (s *Settings) EditorSettingBool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return asBool(s.file.Editor[key])
}

func (s *Settings) SetProjectSetting(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Project[key] = v
}

func (s *Settings) SetEditorSetting(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file.Editor[key] = v
}

// GameEmbedMode returns the persisted mode; unset or unreadable values mean auto.
func (s *Settings) GameEmbedMode() launch.EmbedMode {
	s.mu.RLock()
	raw := s.file.GameEmbedMode
	s.mu.RUnlock()
	mode, err := launch.ParseEmbedMode(raw)
	if err != nil {
		log.Warn().Str("value", raw).Msg("config.Settings.GameEmbedMode invalid, using auto")
		return launch.EmbedAuto
	}
	return mode
}

func (s *Settings) SaveGameEmbedMode(mode launch.EmbedMode) error {
	s.mu.Lock()
	s.file.GameEmbedMode = mode.String()
	s.mu.Unlock()
	return s.Save()
}

// Save writes the settings file atomically. In-memory settings are not written.
func (s *Settings) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	data, err := toml.Marshal(s.file)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("settings encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("settings temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("settings write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("settings write: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("settings replace: %w", err)
	}
	log.Debug().Str("path", s.path).Msg("config.Settings.Save")
	return nil
}

// asBool accepts TOML booleans and the string forms editor settings are often stored as.
func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(t)
		return err == nil && b
	case int64:
		return t != 0
	default:
		return false
	}
}
