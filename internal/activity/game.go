package activity

import (
	"github.com/danmuck/editorhost/internal/gamemenu"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
)

// MenuCapabilities describes which game menu controls a window offers.
type MenuCapabilities struct {
	EmbeddingSupported   bool `json:"embedding_supported"`
	Embedded             bool `json:"embedded"`
	AlwaysOnTopSupported bool `json:"always_on_top_supported"`
	MinimizeEnabled      bool `json:"minimize_enabled"`
	CloseEnabled         bool `json:"close_enabled"`
	PiPEnabled           bool `json:"pip_enabled"`
}

// MenuAction handles a game menu interaction in this window. Game windows relay it to the
// editor, which owns the runtime controls; the editor applies it directly.
func (a *Activity) MenuAction(action gamemenu.Action) {
	if a.self.IsGame() {
		a.dispatcher.DispatchGameMenuAction(window.Editor, action)
		return
	}
	a.menu.Apply(action)
}

func (a *Activity) MenuCapabilities() MenuCapabilities {
	xr := a.device.NativeXR
	switch a.self.ID {
	case window.EmbeddedRunGame.ID:
		return MenuCapabilities{
			EmbeddingSupported:   true,
			Embedded:             true,
			AlwaysOnTopSupported: true,
			MinimizeEnabled:      true,
			CloseEnabled:         true,
		}
	case window.RunGame.ID, window.XRRunGame.ID:
		return MenuCapabilities{
			EmbeddingSupported: !xr,
			MinimizeEnabled:    !xr,
			CloseEnabled:       !xr,
			PiPEnabled:         a.device.PictureInPicture,
		}
	default:
		return MenuCapabilities{EmbeddingSupported: !xr}
	}
}

// EnterPictureInPicture shrinks a game window into picture-in-picture when the device
// supports it.
func (a *Activity) EnterPictureInPicture() bool {
	if !a.self.IsGame() || !a.device.PictureInPicture {
		return false
	}
	log.Debug().Str("window", a.self.String()).Msg("activity.Activity.EnterPictureInPicture")
	return a.surface.EnterPictureInPicture()
}

func (a *Activity) Minimize() {
	a.surface.Minimize()
}

// Close ends this game window.
func (a *Activity) Close() {
	log.Info().Str("window", a.self.String()).Msg("activity.Activity.Close")
	a.quitSelf()
}
