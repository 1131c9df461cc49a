// Package activity orchestrates window processes for one window role. It decides which
// window handles a launch, starts or restarts window processes, tears them down on request,
// and reacts to control messages from the other windows.
package activity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/danmuck/editorhost/internal/config"
	"github.com/danmuck/editorhost/internal/dispatcher"
	"github.com/danmuck/editorhost/internal/gamemenu"
	"github.com/danmuck/editorhost/internal/launch"
	"github.com/danmuck/editorhost/internal/supervisor"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
)

const defaultShutdownTimeout = 2 * time.Second

// Dispatcher is the slice of the message dispatcher the activity drives.
type Dispatcher interface {
	IsPendingForceQuit(desc window.Descriptor) bool
	RunTaskAfterForceQuit(desc window.Descriptor, task func()) bool
	RequestForceQuit(desc window.Descriptor) bool
	CompleteForceQuit(desc window.Descriptor)
	AcknowledgeForceQuit(requester window.Descriptor) bool
	BringEditorWindowToFront(desc window.Descriptor) bool
	DispatchGameMenuAction(desc window.Descriptor, action gamemenu.Action)
	MessageDispatcherPayload() []byte
	HasEndpoint(desc window.Descriptor) bool
	Shutdown(ctx context.Context) error
}

// Settings are the project and editor settings the activity reads.
type Settings interface {
	ProjectSettingBool(key string) bool
	EditorSettingBool(key string) bool
	GameEmbedMode() launch.EmbedMode
}

// Poster schedules work on the UI execution context.
type Poster interface {
	Post(fn func()) bool
}

var (
	_ Dispatcher         = (*dispatcher.Dispatcher)(nil)
	_ Settings           = (*config.Settings)(nil)
	_ dispatcher.Handler = (*Activity)(nil)
	_ launch.Environment = (*Activity)(nil)
)

type Options struct {
	Self       window.Descriptor
	Host       config.HostConfig
	Device     config.DeviceConfig
	Settings   Settings
	Dispatcher Dispatcher
	Supervisor supervisor.Supervisor
	Surface    Surface
	Menu       *gamemenu.Applier
	UI         Poster
	// EditorHint and ProjectManagerHint describe the running instance and are passed on to
	// every window it launches.
	EditorHint         bool
	ProjectManagerHint bool
	// Fallback handles force-quit requests the activity cannot serve. Nil reports failure.
	Fallback func(id int) bool
	// ShutdownTimeout bounds flushing outbound messages before this process quits.
	ShutdownTimeout time.Duration
	// Context scopes process launches; nil uses context.Background.
	Context context.Context
}

// Activity is the orchestrator for the window role this process hosts. Its methods are
// expected to run on the UI execution context.
type Activity struct {
	self       window.Descriptor
	host       config.HostConfig
	device     config.DeviceConfig
	settings   Settings
	dispatcher Dispatcher
	supervisor supervisor.Supervisor
	surface    Surface
	menu       *gamemenu.Applier
	ui         Poster
	resolver   *launch.Resolver
	lifecycle  *Lifecycle
	fallback   func(id int) bool
	timeout    time.Duration
	ctx        context.Context

	editorHint         bool
	projectManagerHint bool
	immersive          atomic.Bool
}

func New(opts Options) *Activity {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	surface := opts.Surface
	if surface == nil {
		surface = LogSurface{Window: string(opts.Self.Role)}
	}
	a := &Activity{
		self:               opts.Self,
		host:               opts.Host,
		device:             opts.Device,
		settings:           opts.Settings,
		dispatcher:         opts.Dispatcher,
		supervisor:         opts.Supervisor,
		surface:            surface,
		menu:               opts.Menu,
		ui:                 opts.UI,
		lifecycle:          NewLifecycle(),
		fallback:           opts.Fallback,
		timeout:            timeout,
		ctx:                ctx,
		editorHint:         opts.EditorHint,
		projectManagerHint: opts.ProjectManagerHint,
	}
	a.resolver = launch.NewResolver(a)
	a.immersive.Store(opts.Host.Immersive)
	a.lifecycle.Transition(a.self, StateRunning)
	return a
}

func (a *Activity) Self() window.Descriptor {
	return a.self
}

func (a *Activity) Lifecycle() *Lifecycle {
	return a.lifecycle
}

// Windows reports the lifecycle of every window role and whether it is reachable.
func (a *Activity) Windows() []WindowStatus {
	return a.lifecycle.Snapshot(func(id int) bool {
		desc, ok := window.Resolve(id)
		if !ok {
			return false
		}
		if desc.ID == a.self.ID {
			return true
		}
		return a.dispatcher.HasEndpoint(desc)
	})
}

// MenuState is the game menu state this window would hand to a new game window.
func (a *Activity) MenuState() *gamemenu.State {
	return a.menu.State()
}

// SetImmersive records whether the window is currently fullscreen.
func (a *Activity) SetImmersive(immersive bool) {
	a.immersive.Store(immersive)
}

func (a *Activity) Immersive() bool {
	return a.immersive.Load()
}

func (a *Activity) IsNativeXRDevice() bool {
	return a.device.NativeXR
}

func (a *Activity) ProjectSettingBool(key string) bool {
	return a.settings.ProjectSettingBool(key)
}

func (a *Activity) IsProjectManagerHint() bool {
	return a.projectManagerHint
}

func (a *Activity) IsInMultiWindowMode() bool {
	return a.device.MultiWindow
}

func (a *Activity) IsLargeScreen() bool {
	return a.device.LargeScreen()
}

// SupportsFeature answers engine feature queries that depend on the host device or build.
func (a *Activity) SupportsFeature(tag string) bool {
	switch tag {
	case "xr_editor":
		return a.device.NativeXR
	case "horizonos", "picoos":
		return a.host.Flavor == tag
	default:
		return false
	}
}

func (a *Activity) post(fn func()) {
	if !a.ui.Post(fn) {
		log.Warn().Str("window", a.self.String()).Msg("activity.Activity.post ui closed")
	}
}
