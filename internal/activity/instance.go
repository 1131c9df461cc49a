package activity

import (
	"context"

	"github.com/danmuck/editorhost/internal/launch"
	"github.com/danmuck/editorhost/internal/observability"
	"github.com/danmuck/editorhost/internal/supervisor"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
)

// OnNewInstanceRequested starts the window that should handle args and returns its ID.
// A launch aimed at a window that is still being torn down is replayed, resolution
// included, once the teardown completes.
func (a *Activity) OnNewInstanceRequested(args []string) int {
	target := a.resolver.Resolve(args, a.settings.GameEmbedMode())

	if a.dispatcher.IsPendingForceQuit(target) {
		replay := append([]string(nil), args...)
		if a.dispatcher.RunTaskAfterForceQuit(target, func() { a.OnNewInstanceRequested(replay) }) {
			log.Info().Str("target", target.String()).Msg("activity.Activity.OnNewInstanceRequested deferred until force-quit completes")
			observability.RecordSpawn(string(target.Role), "deferred", true)
			return target.ID
		}
		// Completed between the check and the registration.
	}

	intent := a.newInstanceIntent(target, args)
	if target.ID == a.self.ID {
		log.Info().Str("target", target.String()).Strs("params", intent.CommandLineParams).Msg("activity.Activity.OnNewInstanceRequested restarting self")
		a.lifecycle.Transition(target, StateStarting)
		err := a.supervisor.RestartSelf(intent)
		if err != nil {
			log.Error().Err(err).Str("target", target.String()).Msg("activity.Activity.OnNewInstanceRequested restart failed")
			a.lifecycle.Transition(target, StateRunning)
		}
		observability.RecordSpawn(string(target.Role), "restart", err == nil)
		return target.ID
	}

	intent.NewLaunch = true
	intent.DispatcherPayload = a.dispatcher.MessageDispatcherPayload()
	opts := supervisor.LaunchOptions{Adjacent: a.adjacent(target)}

	a.lifecycle.Transition(target, StateStarting)
	h, err := a.supervisor.Spawn(a.ctx, target, intent, opts)
	if err != nil {
		log.Error().Err(err).Str("target", target.String()).Msg("activity.Activity.OnNewInstanceRequested spawn failed")
		a.lifecycle.Transition(target, StateAbsent)
		observability.RecordSpawn(string(target.Role), "spawn", false)
		return target.ID
	}
	log.Info().
		Str("target", target.String()).
		Int("pid", h.PID).
		Bool("adjacent", opts.Adjacent).
		Strs("params", intent.CommandLineParams).
		Msg("activity.Activity.OnNewInstanceRequested started")
	observability.RecordSpawn(string(target.Role), "spawn", true)
	return target.ID
}

func (a *Activity) newInstanceIntent(target window.Descriptor, args []string) launch.Intent {
	return launch.Intent{
		Window:             target,
		EditorHint:         a.editorHint,
		ProjectManagerHint: a.projectManagerHint,
		GameMenuState:      a.menu.State().Marshal(),
		CommandLineParams:  launch.AugmentArgs(target, args, a.immersive.Load()),
	}
}

// adjacent applies the side-by-side launch policy where the platform supports it.
func (a *Activity) adjacent(target window.Descriptor) bool {
	if target.LaunchPolicy != window.LaunchAdjacent {
		return false
	}
	if !a.host.SupportsAdjacentLaunch() {
		log.Debug().Int("platform_version", a.host.PlatformVersion).Msg("activity.Activity.adjacent unsupported")
		return false
	}
	return true
}

// OnForceQuit terminates the window with the given ID. Remote windows are asked to quit
// through the dispatcher first; when none is reachable the process is killed by name.
func (a *Activity) OnForceQuit(id int) bool {
	target, ok := window.Resolve(id)
	if !ok {
		observability.RecordForceQuit("unknown", "fallback")
		return a.fallbackForceQuit(id)
	}
	role := string(target.Role)

	if target.ID == a.self.ID {
		log.Info().Str("target", target.String()).Msg("activity.Activity.OnForceQuit self")
		observability.RecordForceQuit(role, "self")
		a.quitSelf()
		return true
	}

	if a.dispatcher.RequestForceQuit(target) {
		a.lifecycle.Transition(target, StateForceQuitting)
		if !a.dispatcher.RunTaskAfterForceQuit(target, func() { a.lifecycle.Transition(target, StateAbsent) }) {
			a.lifecycle.Transition(target, StateAbsent)
		}
		observability.RecordForceQuit(role, "dispatcher")
		return true
	}

	name := target.ProcessName(a.host.PackageName)
	h, err := a.supervisor.Lookup(name)
	if err == nil {
		err = a.supervisor.Kill(h)
	}
	if err == nil {
		log.Info().Str("target", target.String()).Int("pid", h.PID).Msg("activity.Activity.OnForceQuit killed process")
		a.lifecycle.Transition(target, StateAbsent)
		a.dispatcher.CompleteForceQuit(target)
		observability.RecordForceQuit(role, "os_kill")
		return true
	}
	log.Warn().Err(err).Str("target", target.String()).Str("process", name).Msg("activity.Activity.OnForceQuit kill failed")
	observability.RecordForceQuit(role, "fallback")
	return a.fallbackForceQuit(id)
}

func (a *Activity) fallbackForceQuit(id int) bool {
	if a.fallback == nil {
		log.Debug().Int("id", id).Msg("activity.Activity.OnForceQuit unmanaged window")
		return false
	}
	return a.fallback(id)
}

// quitSelf flushes queued messages, bounded by the shutdown timeout, and exits.
func (a *Activity) quitSelf() {
	a.lifecycle.Transition(a.self, StateForceQuitting)
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.dispatcher.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("activity.Activity.quitSelf flush incomplete")
	}
	a.supervisor.ForceQuitSelf()
}
