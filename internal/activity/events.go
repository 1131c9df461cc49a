package activity

import (
	"github.com/danmuck/editorhost/internal/config"
	"github.com/danmuck/editorhost/internal/gamemenu"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
)

// WorkspaceGame is the editor workspace that shows the running game.
const WorkspaceGame = "Game"

type Permission string

const (
	PermissionStorage         Permission = "storage"
	PermissionInstallPackages Permission = "install_packages"
)

func ParsePermission(raw string) (Permission, bool) {
	switch p := Permission(raw); p {
	case PermissionStorage, PermissionInstallPackages:
		return p, true
	default:
		return "", false
	}
}

type PermissionResult struct {
	Permission Permission
	Granted    bool
}

// OnWorkspaceSelected brings a running game window forward when the game workspace is
// opened, or explains how to start one.
func (a *Activity) OnWorkspaceSelected(workspace string) {
	if workspace != WorkspaceGame {
		return
	}
	for _, desc := range []window.Descriptor{window.RunGame, window.EmbeddedRunGame, window.XRRunGame} {
		if a.dispatcher.BringEditorWindowToFront(desc) {
			return
		}
	}
	a.post(func() { a.surface.ShowNotice(NoticeGameWorkspaceHelp) })
}

// OnSetupCompleted applies the touchscreen gesture settings.
func (a *Activity) OnSetupCompleted() {
	longPress := a.settings.EditorSettingBool(config.SettingLongPressAsRightClick)
	panScale := a.settings.EditorSettingBool(config.SettingPanAndScaleGestures)
	a.post(func() { a.surface.EnableGestures(longPress, panScale) })
}

// OnPermissionsResult shows a notice for each denied permission. The window keeps running
// with reduced capabilities.
func (a *Activity) OnPermissionsResult(results ...PermissionResult) {
	shown := make(map[Notice]bool)
	for _, r := range results {
		if r.Granted {
			continue
		}
		var n Notice
		switch r.Permission {
		case PermissionStorage:
			n = NoticeStoragePermissionDenied
		case PermissionInstallPackages:
			n = NoticeInstallPackagesDenied
		default:
			continue
		}
		if shown[n] {
			continue
		}
		shown[n] = true
		log.Warn().Str("permission", string(r.Permission)).Msg("activity.Activity.OnPermissionsResult denied")
		a.surface.ShowNotice(n)
	}
}

func (a *Activity) OnForceQuitRequested(from window.Descriptor) {
	log.Info().Str("from", from.String()).Msg("activity.Activity.OnForceQuitRequested")
	if !a.dispatcher.AcknowledgeForceQuit(from) {
		log.Debug().Str("from", from.String()).Msg("activity.Activity.OnForceQuitRequested ack not delivered")
	}
	a.quitSelf()
}

func (a *Activity) OnBringToFront(from window.Descriptor) {
	log.Debug().Str("from", from.String()).Msg("activity.Activity.OnBringToFront")
	a.surface.BringToFront()
}

func (a *Activity) OnGameMenuAction(from window.Descriptor, action gamemenu.Action) {
	log.Debug().Str("from", from.String()).Str("action", action.String()).Msg("activity.Activity.OnGameMenuAction")
	a.menu.Apply(action)
}

func (a *Activity) OnWindowRegistered(desc window.Descriptor) {
	if a.lifecycle.Get(desc) == StateForceQuitting {
		return
	}
	a.lifecycle.Transition(desc, StateRunning)
}
