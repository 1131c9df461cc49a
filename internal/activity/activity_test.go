package activity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/danmuck/editorhost/internal/config"
	"github.com/danmuck/editorhost/internal/engine"
	"github.com/danmuck/editorhost/internal/gamemenu"
	"github.com/danmuck/editorhost/internal/launch"
	"github.com/danmuck/editorhost/internal/supervisor"
	"github.com/danmuck/editorhost/internal/testutil/testlog"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/stretchr/testify/require"
)

type inline struct{}

func (inline) Post(fn func()) bool {
	fn()
	return true
}

type relayed struct {
	target int
	action gamemenu.Action
}

type fakeDispatcher struct {
	mu        sync.Mutex
	reachable map[int]bool
	pending   map[int][]func()
	requested []int
	completed []int
	fronts    []int
	acks      []int
	relayed   []relayed
	shutdowns int
}

func newFakeDispatcher(reachable ...window.Descriptor) *fakeDispatcher {
	d := &fakeDispatcher{reachable: map[int]bool{}, pending: map[int][]func(){}}
	for _, desc := range reachable {
		d.reachable[desc.ID] = true
	}
	return d
}

func (d *fakeDispatcher) IsPendingForceQuit(desc window.Descriptor) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[desc.ID]
	return ok
}

func (d *fakeDispatcher) RunTaskAfterForceQuit(desc window.Descriptor, task func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	tasks, ok := d.pending[desc.ID]
	if !ok {
		return false
	}
	d.pending[desc.ID] = append(tasks, task)
	return true
}

func (d *fakeDispatcher) RequestForceQuit(desc window.Descriptor) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.reachable[desc.ID] {
		return false
	}
	d.requested = append(d.requested, desc.ID)
	if _, ok := d.pending[desc.ID]; !ok {
		d.pending[desc.ID] = nil
	}
	return true
}

func (d *fakeDispatcher) CompleteForceQuit(desc window.Descriptor) {
	d.mu.Lock()
	tasks, ok := d.pending[desc.ID]
	delete(d.pending, desc.ID)
	d.completed = append(d.completed, desc.ID)
	d.mu.Unlock()
	if !ok {
		return
	}
	for _, task := range tasks {
		task()
	}
}

func (d *fakeDispatcher) AcknowledgeForceQuit(requester window.Descriptor) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acks = append(d.acks, requester.ID)
	return d.reachable[requester.ID]
}

func (d *fakeDispatcher) BringEditorWindowToFront(desc window.Descriptor) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fronts = append(d.fronts, desc.ID)
	return d.reachable[desc.ID]
}

func (d *fakeDispatcher) DispatchGameMenuAction(desc window.Descriptor, action gamemenu.Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reachable[desc.ID] {
		d.relayed = append(d.relayed, relayed{target: desc.ID, action: action})
	}
}

func (d *fakeDispatcher) MessageDispatcherPayload() []byte {
	return []byte("payload")
}

func (d *fakeDispatcher) HasEndpoint(desc window.Descriptor) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reachable[desc.ID]
}

func (d *fakeDispatcher) Shutdown(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shutdowns++
	return nil
}

type spawned struct {
	desc   window.Descriptor
	intent launch.Intent
	opts   supervisor.LaunchOptions
}

type fakeSupervisor struct {
	spawns   []spawned
	restarts []launch.Intent
	kills    []supervisor.Handle
	procs    map[string]int
	quits    int
	spawnErr error
}

func (s *fakeSupervisor) Spawn(_ context.Context, desc window.Descriptor, intent launch.Intent, opts supervisor.LaunchOptions) (supervisor.Handle, error) {
	if s.spawnErr != nil {
		return supervisor.Handle{}, s.spawnErr
	}
	s.spawns = append(s.spawns, spawned{desc: desc, intent: intent, opts: opts})
	return supervisor.Handle{PID: 4000 + len(s.spawns), ProcessName: desc.ProcessName("org.test")}, nil
}

func (s *fakeSupervisor) Kill(h supervisor.Handle) error {
	s.kills = append(s.kills, h)
	return nil
}

func (s *fakeSupervisor) Lookup(processName string) (supervisor.Handle, error) {
	pid, ok := s.procs[processName]
	if !ok {
		return supervisor.Handle{}, supervisor.ErrNotFound
	}
	return supervisor.Handle{PID: pid, ProcessName: processName}, nil
}

func (s *fakeSupervisor) RestartSelf(intent launch.Intent) error {
	s.restarts = append(s.restarts, intent)
	return nil
}

func (s *fakeSupervisor) ForceQuitSelf() {
	s.quits++
}

type fakeSurface struct {
	fronts    int
	notices   []Notice
	gestures  [][2]bool
	pips      int
	minimized int
}

func (s *fakeSurface) BringToFront()       { s.fronts++ }
func (s *fakeSurface) ShowNotice(n Notice) { s.notices = append(s.notices, n) }
func (s *fakeSurface) EnableGestures(longPress, panAndScale bool) {
	s.gestures = append(s.gestures, [2]bool{longPress, panAndScale})
}
func (s *fakeSurface) EnterPictureInPicture() bool { s.pips++; return true }
func (s *fakeSurface) Minimize()                   { s.minimized++ }

type harness struct {
	act      *Activity
	disp     *fakeDispatcher
	sup      *fakeSupervisor
	surface  *fakeSurface
	settings *config.Settings
	engine   *engine.Engine
	fallback []int
}

func newHarness(t *testing.T, self window.Descriptor, mutate func(*Options), reachable ...window.Descriptor) *harness {
	t.Helper()
	h := &harness{
		disp:     newFakeDispatcher(reachable...),
		sup:      &fakeSupervisor{procs: map[string]int{}},
		surface:  &fakeSurface{},
		settings: config.NewSettings(),
	}
	h.engine = engine.New(h.settings)
	opts := Options{
		Self:       self,
		Host:       config.Default().Host,
		Device:     config.Default().Device,
		Settings:   h.settings,
		Dispatcher: h.disp,
		Supervisor: h.sup,
		Surface:    h.surface,
		Menu:       gamemenu.NewApplier(h.engine, inline{}, gamemenu.NewState()),
		UI:         inline{},
		EditorHint: true,
		Fallback: func(id int) bool {
			h.fallback = append(h.fallback, id)
			return false
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.act = New(opts)
	return h
}

func TestEditorLaunchFromEditorRestartsSelf(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.Editor, nil)

	id := h.act.OnNewInstanceRequested([]string{"-e", "--path", "/p"})
	require.Equal(t, window.Editor.ID, id)
	require.Empty(t, h.sup.spawns)
	require.Len(t, h.sup.restarts, 1)
	in := h.sup.restarts[0]
	require.Equal(t, window.Editor, in.Window)
	require.False(t, in.NewLaunch)
	require.Nil(t, in.DispatcherPayload)
	require.True(t, in.EditorHint)
	require.Equal(t, []string{"-e", "--path", "/p"}, in.CommandLineParams)
}

func TestGameLaunchSpawnsWithStateAndPayload(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.Editor, nil)
	require.NoError(t, h.settings.SaveGameEmbedMode(launch.EmbedDisabled))
	h.act.MenuAction(gamemenu.SetSuspend(true))
	h.act.MenuAction(gamemenu.NextFrame())

	id := h.act.OnNewInstanceRequested([]string{"--path", "/p"})
	require.Equal(t, window.RunGame.ID, id)
	require.Len(t, h.sup.spawns, 1)
	sp := h.sup.spawns[0]
	require.Equal(t, window.RunGame, sp.desc)
	require.True(t, sp.opts.Adjacent)
	require.True(t, sp.intent.NewLaunch)
	require.Equal(t, []byte("payload"), sp.intent.DispatcherPayload)

	state, err := gamemenu.UnmarshalState(sp.intent.GameMenuState)
	require.NoError(t, err)
	p, ok := state.Get(gamemenu.KindSetSuspend)
	require.True(t, ok)
	require.True(t, p.Bool)
	_, ok = state.Get(gamemenu.KindNextFrame)
	require.False(t, ok)
	require.Equal(t, StateStarting, h.act.Lifecycle().Get(window.RunGame))

	h.act.OnWindowRegistered(window.RunGame)
	require.Equal(t, StateRunning, h.act.Lifecycle().Get(window.RunGame))
}

func TestAutoEmbedModeOnSmallScreenSpawnsEmbedded(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.Editor, nil)
	require.Equal(t, window.EmbeddedRunGame.ID, h.act.OnNewInstanceRequested(nil))
	require.Len(t, h.sup.spawns, 1)
	require.False(t, h.sup.spawns[0].opts.Adjacent)
}

func TestAdjacentLaunchGatedOnPlatformVersion(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.Editor, func(o *Options) { o.Host.PlatformVersion = 21 })
	require.NoError(t, h.settings.SaveGameEmbedMode(launch.EmbedDisabled))
	h.act.OnNewInstanceRequested(nil)
	require.Len(t, h.sup.spawns, 1)
	require.False(t, h.sup.spawns[0].opts.Adjacent)
}

func TestEditorRelaunchKeepsFullscreen(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.RunGame, nil)
	h.act.SetImmersive(true)

	h.act.OnNewInstanceRequested([]string{"-e"})
	require.Len(t, h.sup.spawns, 1)
	require.Equal(t, []string{"-e", "--fullscreen"}, h.sup.spawns[0].intent.CommandLineParams)

	h.act.OnNewInstanceRequested([]string{"-e", "-f"})
	require.Equal(t, []string{"-e", "-f"}, h.sup.spawns[1].intent.CommandLineParams)
}

func TestLaunchDeferredUntilForceQuitCompletes(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.Editor, nil, window.RunGame)
	require.NoError(t, h.settings.SaveGameEmbedMode(launch.EmbedDisabled))

	require.True(t, h.act.OnForceQuit(window.RunGame.ID))
	require.Equal(t, StateForceQuitting, h.act.Lifecycle().Get(window.RunGame))

	require.Equal(t, window.RunGame.ID, h.act.OnNewInstanceRequested([]string{"--path", "/a"}))
	require.Equal(t, window.RunGame.ID, h.act.OnNewInstanceRequested([]string{"--path", "/b"}))
	require.Empty(t, h.sup.spawns)

	h.disp.CompleteForceQuit(window.RunGame)
	require.Len(t, h.sup.spawns, 2)
	require.Equal(t, []string{"--path", "/a"}, h.sup.spawns[0].intent.CommandLineParams)
	require.Equal(t, []string{"--path", "/b"}, h.sup.spawns[1].intent.CommandLineParams)
	require.Equal(t, StateStarting, h.act.Lifecycle().Get(window.RunGame))

	h.disp.CompleteForceQuit(window.RunGame)
	require.Len(t, h.sup.spawns, 2)
}

func TestForceQuitPaths(t *testing.T) {
	testlog.Start(t)

	t.Run("unknown id falls back", func(t *testing.T) {
		h := newHarness(t, window.Editor, nil)
		require.False(t, h.act.OnForceQuit(42))
		require.Equal(t, []int{42}, h.fallback)
	})

	t.Run("own window quits self", func(t *testing.T) {
		h := newHarness(t, window.RunGame, nil)
		require.True(t, h.act.OnForceQuit(window.RunGame.ID))
		require.Equal(t, 1, h.sup.quits)
		require.Equal(t, 1, h.disp.shutdowns)
	})

	t.Run("dispatcher request", func(t *testing.T) {
		h := newHarness(t, window.Editor, nil, window.XRRunGame)
		require.True(t, h.act.OnForceQuit(window.XRRunGame.ID))
		require.Equal(t, []int{window.XRRunGame.ID}, h.disp.requested)
		require.Empty(t, h.sup.kills)
		h.disp.CompleteForceQuit(window.XRRunGame)
		require.Equal(t, StateAbsent, h.act.Lifecycle().Get(window.XRRunGame))
	})

	t.Run("os kill when unreachable", func(t *testing.T) {
		h := newHarness(t, window.Editor, nil)
		name := window.RunGame.ProcessName(config.Default().Host.PackageName)
		h.sup.procs[name] = 9001
		require.True(t, h.act.OnForceQuit(window.RunGame.ID))
		require.Equal(t, []supervisor.Handle{{PID: 9001, ProcessName: name}}, h.sup.kills)
		require.Contains(t, h.disp.completed, window.RunGame.ID)
		require.Empty(t, h.fallback)
	})

	t.Run("fallback when no process", func(t *testing.T) {
		h := newHarness(t, window.Editor, nil)
		require.False(t, h.act.OnForceQuit(window.EmbeddedRunGame.ID))
		require.Equal(t, []int{window.EmbeddedRunGame.ID}, h.fallback)
	})
}

func TestRemoteForceQuitAcksThenQuits(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.RunGame, nil, window.Editor)
	h.act.OnForceQuitRequested(window.Editor)
	require.Equal(t, []int{window.Editor.ID}, h.disp.acks)
	require.Equal(t, 1, h.disp.shutdowns)
	require.Equal(t, 1, h.sup.quits)
}

func TestWorkspaceSelection(t *testing.T) {
	testlog.Start(t)

	h := newHarness(t, window.Editor, nil, window.EmbeddedRunGame)
	h.act.OnWorkspaceSelected(WorkspaceGame)
	require.Equal(t, []int{window.RunGame.ID, window.EmbeddedRunGame.ID}, h.disp.fronts)
	require.Empty(t, h.surface.notices)

	h = newHarness(t, window.Editor, nil)
	h.act.OnWorkspaceSelected("Script")
	require.Empty(t, h.disp.fronts)
	h.act.OnWorkspaceSelected(WorkspaceGame)
	require.Len(t, h.disp.fronts, 3)
	require.Equal(t, []Notice{NoticeGameWorkspaceHelp}, h.surface.notices)
}

func TestSetupCompletedAppliesGestureSettings(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.Editor, nil)
	h.settings.SetEditorSetting(config.SettingLongPressAsRightClick, "true")
	h.settings.SetEditorSetting(config.SettingPanAndScaleGestures, false)
	h.act.OnSetupCompleted()
	require.Equal(t, [][2]bool{{true, false}}, h.surface.gestures)
}

func TestPermissionDenialsShowNoticesOnce(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.Editor, nil)
	h.act.OnPermissionsResult(
		PermissionResult{Permission: PermissionStorage},
		PermissionResult{Permission: PermissionStorage},
		PermissionResult{Permission: PermissionInstallPackages, Granted: true},
	)
	require.Equal(t, []Notice{NoticeStoragePermissionDenied}, h.surface.notices)
}

func TestMenuActionRouting(t *testing.T) {
	testlog.Start(t)

	game := newHarness(t, window.RunGame, nil, window.Editor)
	game.act.MenuAction(gamemenu.SetCameraOverride(true))
	require.Len(t, game.disp.relayed, 1)
	require.Equal(t, window.Editor.ID, game.disp.relayed[0].target)
	require.Zero(t, game.act.MenuState().Len())

	editor := newHarness(t, window.Editor, nil)
	editor.act.OnGameMenuAction(window.RunGame, gamemenu.SetCameraOverride(true))
	editor.act.OnGameMenuAction(window.RunGame, gamemenu.EmbedGameOnPlay(false))
	require.True(t, editor.engine.Snapshot().CameraOverride)
	require.Equal(t, launch.EmbedDisabled, editor.settings.GameEmbedMode())
	require.Equal(t, 2, editor.act.MenuState().Len())
}

func TestGameWindowControls(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.RunGame, nil)
	require.True(t, h.act.EnterPictureInPicture())
	h.act.Minimize()
	require.Equal(t, 1, h.surface.pips)
	require.Equal(t, 1, h.surface.minimized)

	caps := h.act.MenuCapabilities()
	require.True(t, caps.PiPEnabled)
	require.True(t, caps.CloseEnabled)
	require.False(t, caps.Embedded)

	h.act.Close()
	require.Equal(t, 1, h.sup.quits)

	xr := newHarness(t, window.XRRunGame, func(o *Options) { o.Device.NativeXR = true; o.Device.PictureInPicture = false })
	require.False(t, xr.act.EnterPictureInPicture())
	require.False(t, xr.act.MenuCapabilities().CloseEnabled)

	editor := newHarness(t, window.Editor, nil)
	require.False(t, editor.act.EnterPictureInPicture())
	require.True(t, newHarness(t, window.EmbeddedRunGame, nil).act.MenuCapabilities().AlwaysOnTopSupported)
}

func TestSupportsFeature(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.Editor, func(o *Options) {
		o.Host.Flavor = "horizonos"
		o.Device.NativeXR = true
	})
	require.True(t, h.act.SupportsFeature("xr_editor"))
	require.True(t, h.act.SupportsFeature("horizonos"))
	require.False(t, h.act.SupportsFeature("picoos"))
	require.False(t, h.act.SupportsFeature("vulkan"))
}

func TestSpawnFailureLeavesWindowAbsent(t *testing.T) {
	testlog.Start(t)
	h := newHarness(t, window.Editor, nil)
	h.sup.spawnErr = errors.New("exec failed")
	h.act.OnNewInstanceRequested(nil)
	require.Equal(t, StateAbsent, h.act.Lifecycle().Get(window.EmbeddedRunGame))

	status := h.act.Windows()
	require.Len(t, status, len(window.All()))
	require.Equal(t, "running", status[0].State)
	require.True(t, status[0].Reachable)
}

func TestParsePermission(t *testing.T) {
	testlog.Start(t)
	p, ok := ParsePermission("storage")
	require.True(t, ok)
	require.Equal(t, PermissionStorage, p)
	p, ok = ParsePermission("install_packages")
	require.True(t, ok)
	require.Equal(t, PermissionInstallPackages, p)
	_, ok = ParsePermission("camera")
	require.False(t, ok)
}
