package activity

import "github.com/rs/zerolog/log"

// Notice is a transient message shown to the user.
type Notice string

const (
	NoticeGameWorkspaceHelp       Notice = "game_workspace_help"
	NoticeStoragePermissionDenied Notice = "denied_storage_permission"
	NoticeInstallPackagesDenied   Notice = "denied_install_packages_permission"
)

// Surface is the window toolkit of this process. Calls are made from the UI context.
type Surface interface {
	BringToFront()
	ShowNotice(n Notice)
	EnableGestures(longPress, panAndScale bool)
	// EnterPictureInPicture returns whether the window entered picture-in-picture.
	EnterPictureInPicture() bool
	Minimize()
}

// LogSurface is a headless Surface. Every request is logged and otherwise ignored.
type LogSurface struct {
	Window string
}

var _ Surface = LogSurface{}

func (s LogSurface) BringToFront() {
	log.Info().Str("window", s.Window).Msg("activity.LogSurface.BringToFront")
}

func (s LogSurface) ShowNotice(n Notice) {
	log.Warn().Str("window", s.Window).Str("notice", string(n)).Msg("activity.LogSurface.ShowNotice")
}

func (s LogSurface) EnableGestures(longPress, panAndScale bool) {
	log.Info().
		Str("window", s.Window).
		Bool("long_press", longPress).
		Bool("pan_and_scale", panAndScale).
		Msg("activity.LogSurface.EnableGestures")
}

func (s LogSurface) EnterPictureInPicture() bool {
	log.Info().Str("window", s.Window).Msg("activity.LogSurface.EnterPictureInPicture")
	return true
}

func (s LogSurface) Minimize() {
	log.Info().Str("window", s.Window).Msg("activity.LogSurface.Minimize")
}
