// Package host wires one window process together: settings, runtime, loopers, the
// message dispatcher, the activity and the optional admin API.
package host

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/danmuck/editorhost/internal/activity"
	"github.com/danmuck/editorhost/internal/config"
	"github.com/danmuck/editorhost/internal/dispatcher"
	"github.com/danmuck/editorhost/internal/engine"
	"github.com/danmuck/editorhost/internal/gamemenu"
	"github.com/danmuck/editorhost/internal/launch"
	"github.com/danmuck/editorhost/internal/looper"
	"github.com/danmuck/editorhost/internal/observability"
	"github.com/danmuck/editorhost/internal/protocol/session"
	"github.com/danmuck/editorhost/internal/server"
	"github.com/danmuck/editorhost/internal/supervisor"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 2 * time.Second

type Options struct {
	Config config.Config
	Window window.Descriptor
	Intent launch.Intent
	// Supervisor defaults to supervisor.OS for the running executable.
	Supervisor supervisor.Supervisor
	Surface    activity.Surface
}

type Service struct {
	cfg    config.Config
	self   window.Descriptor
	intent launch.Intent
	params []string

	ui         *looper.Looper
	render     *looper.Looper
	settings   *config.Settings
	engine     *engine.Engine
	dispatcher *dispatcher.Dispatcher
	activity   *activity.Activity
	admin      *server.Server
	listener   net.Listener
}

// NewService builds the window process. The dispatcher socket is open when it returns.
func NewService(opts Options) (*Service, error) {
	cfg := opts.Config
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	self := opts.Window
	if self.IsZero() {
		self = window.Editor
	}
	observability.RegisterMetrics()

	settings, err := config.LoadSettings(cfg.ResolveSettingsPath())
	if err != nil {
		return nil, err
	}
	state := restoreMenuState(opts.Intent.GameMenuState)
	eng := engine.New(settings)
	eng.Restore(state.Settings())

	ui := looper.New("ui")
	render := looper.New("render")

	sess := session.DefaultConfig()
	sess.RuntimeDir = cfg.Host.RuntimeDir
	ln, addr, err := dispatcher.Listen(sess, self.ProcessName(cfg.Host.PackageName))
	if err != nil {
		return nil, err
	}
	disp := dispatcher.New(dispatcher.Options{
		Self:    self,
		Session: sess,
		Address: addr,
		UI:      ui,
	})

	sup := opts.Supervisor
	if sup == nil {
		exe, err := os.Executable()
		if err != nil {
			_ = ln.Close()
			return nil, fmt.Errorf("host: resolve executable: %w", err)
		}
		sup = &supervisor.OS{Executable: exe, PackageName: cfg.Host.PackageName}
	}
	params := launch.WithBuildArgs(cfg.Host.BuildType, opts.Intent.CommandLineParams)
	editorHint, pmHint := launch.Hints(params)
	hostCfg := cfg.Host
	hostCfg.Immersive = hostCfg.Immersive || launch.HasFullscreen(params)

	act := activity.New(activity.Options{
		Self:               self,
		Host:               hostCfg,
		Device:             cfg.Device,
		Settings:           settings,
		Dispatcher:         disp,
		Supervisor:         sup,
		Surface:            opts.Surface,
		Menu:               gamemenu.NewApplier(eng, render, state),
		UI:                 ui,
		EditorHint:         editorHint || opts.Intent.EditorHint,
		ProjectManagerHint: pmHint || opts.Intent.ProjectManagerHint,
	})
	disp.SetHandler(act)

	s := &Service{
		cfg:        cfg,
		self:       self,
		intent:     opts.Intent,
		params:     params,
		ui:         ui,
		render:     render,
		settings:   settings,
		engine:     eng,
		dispatcher: disp,
		activity:   act,
		listener:   ln,
	}

	adminAddr, err := cfg.Host.AdminAddrFor(slotOf(self))
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	if adminAddr != "" {
		s.admin = server.New(server.Options{
			Window:      string(self.Role),
			Addr:        adminAddr,
			CorsOrigins: cfg.Host.CorsOrigins,
			Controller:  act,
			UI:          ui,
			Engine:      eng,
		})
	}

	log.Info().
		Str("window", self.String()).
		Str("socket", addr).
		Str("admin", adminAddr).
		Strs("params", params).
		Bool("new_launch", opts.Intent.NewLaunch).
		Msg("host.NewService ready")
	return s, nil
}

func (s *Service) Activity() *activity.Activity {
	return s.activity
}

func (s *Service) Dispatcher() *dispatcher.Dispatcher {
	return s.dispatcher
}

func (s *Service) Engine() *engine.Engine {
	return s.engine
}

// Params are the command-line parameters this window applies at startup.
func (s *Service) Params() []string {
	return append([]string(nil), s.params...)
}

// Run serves until ctx is cancelled or a component fails.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.ui.Run(ctx) })
	g.Go(func() error { return s.render.Run(ctx) })
	g.Go(func() error { return s.dispatcher.Serve(ctx, s.listener) })
	if s.admin != nil {
		g.Go(func() error { return s.admin.Serve(ctx) })
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.dispatcher.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("host.Service.Run dispatcher shutdown")
		}
		return nil
	})

	s.ui.Post(s.start)

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Str("window", s.self.String()).Err(err).Msg("host.Service.Run stopped")
	return err
}

// start runs on the UI looper once the loopers are live.
func (s *Service) start() {
	if err := s.dispatcher.ParseStartIntent(s.intent); err != nil {
		log.Warn().Err(err).Msg("host.Service.start no return channel to launcher")
	}
	s.activity.OnSetupCompleted()
}

func restoreMenuState(blob []byte) *gamemenu.State {
	if len(blob) == 0 {
		return gamemenu.NewState()
	}
	state, err := gamemenu.UnmarshalState(blob)
	if err != nil {
		log.Warn().Err(err).Msg("host.restoreMenuState discarding state")
		return gamemenu.NewState()
	}
	return state
}

func slotOf(desc window.Descriptor) int {
	for i, d := range window.All() {
		if d.ID == desc.ID {
			return i
		}
	}
	return 0
}
