// Package engine is the in-process stand-in for the simulation a window hosts. It tracks
// the debug state game menu actions drive; rendering and scene logic live elsewhere.
package engine

import (
	"sync"

	"github.com/danmuck/editorhost/internal/gamemenu"
	"github.com/danmuck/editorhost/internal/launch"
	"github.com/rs/zerolog/log"
)

// EmbedModeStore persists the editor's game embed mode.
type EmbedModeStore interface {
	SaveGameEmbedMode(mode launch.EmbedMode) error
}

// Snapshot is a point-in-time copy of the engine's debug state.
type Snapshot struct {
	Suspended        bool                `json:"suspended"`
	FramesStepped    uint64              `json:"frames_stepped"`
	NodeType         gamemenu.NodeType   `json:"node_type"`
	SelectMode       gamemenu.SelectMode `json:"select_mode"`
	SelectionVisible bool                `json:"selection_visible"`
	CameraOverride   bool                `json:"camera_override"`
	CameraMode       gamemenu.CameraMode `json:"camera_mode"`
	Camera2DResets   int                 `json:"camera_2d_resets"`
	Camera3DResets   int                 `json:"camera_3d_resets"`
}

// Engine implements gamemenu.Runtime. Mutators are expected on the render looper; the
// mutex lets other goroutines read snapshots.
type Engine struct {
	mu    sync.RWMutex
	state Snapshot
	store EmbedModeStore
}

var _ gamemenu.Runtime = (*Engine)(nil)

func New(store EmbedModeStore) *Engine {
	return &Engine{
		store: store,
		state: Snapshot{
			SelectionVisible: true,
			CameraMode:       gamemenu.CameraInGame,
		},
	}
}

// Restore applies menu settings carried in from a previous session.
func (e *Engine) Restore(s gamemenu.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Suspended = s.Suspended
	e.state.NodeType = s.NodeType
	e.state.SelectMode = s.SelectMode
	e.state.SelectionVisible = s.SelectionVisible
	e.state.CameraOverride = s.CameraOverride
	e.state.CameraMode = s.CameraMode
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) SetSuspend(suspended bool) {
	e.mu.Lock()
	e.state.Suspended = suspended
	e.mu.Unlock()
	log.Debug().Bool("suspended", suspended).Msg("engine.Engine.SetSuspend")
}

// NextFrame advances a suspended simulation by one frame. It is a no-op while running.
func (e *Engine) NextFrame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Suspended {
		e.state.FramesStepped++
	}
}

func (e *Engine) SetNodeType(t gamemenu.NodeType) {
	e.mu.Lock()
	e.state.NodeType = t
	e.mu.Unlock()
}

func (e *Engine) SetSelectMode(m gamemenu.SelectMode) {
	e.mu.Lock()
	e.state.SelectMode = m
	e.mu.Unlock()
}

func (e *Engine) SetSelectionVisible(visible bool) {
	e.mu.Lock()
	e.state.SelectionVisible = visible
	e.mu.Unlock()
}

func (e *Engine) SetCameraOverride(enabled bool) {
	e.mu.Lock()
	e.state.CameraOverride = enabled
	e.mu.Unlock()
}

func (e *Engine) SetCameraManipulateMode(m gamemenu.CameraMode) {
	e.mu.Lock()
	e.state.CameraMode = m
	e.mu.Unlock()
}

func (e *Engine) ResetCamera2DPosition() {
	e.mu.Lock()
	e.state.Camera2DResets++
	e.mu.Unlock()
}

func (e *Engine) ResetCamera3DPosition() {
	e.mu.Lock()
	e.state.Camera3DResets++
	e.mu.Unlock()
}

func (e *Engine) SaveGameEmbedMode(embedded bool) {
	if e.store == nil {
		return
	}
	mode := launch.EmbedModeFor(embedded)
	if err := e.store.SaveGameEmbedMode(mode); err != nil {
		log.Error().Err(err).Str("mode", mode.String()).Msg("engine.Engine.SaveGameEmbedMode failed")
	}
}
