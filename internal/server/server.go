// Package server exposes a window's admin HTTP API: health, metrics, window lifecycle and
// game menu controls. Every call into the activity runs on the UI looper.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/editorhost/internal/activity"
	"github.com/danmuck/editorhost/internal/engine"
	"github.com/danmuck/editorhost/internal/gamemenu"
	"github.com/danmuck/editorhost/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	callTimeout     = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Controller is the activity surface driven by the admin API.
type Controller interface {
	Windows() []activity.WindowStatus
	MenuState() *gamemenu.State
	MenuCapabilities() activity.MenuCapabilities
	MenuAction(action gamemenu.Action)
	OnNewInstanceRequested(args []string) int
	OnForceQuit(id int) bool
	OnWorkspaceSelected(workspace string)
	OnPermissionsResult(results ...activity.PermissionResult)
	EnterPictureInPicture() bool
	Minimize()
	Close()
	Immersive() bool
	SetImmersive(immersive bool)
	SupportsFeature(tag string) bool
}

// Caller runs fn on the UI execution context and waits for it.
type Caller interface {
	Call(ctx context.Context, fn func()) error
}

// EngineReader exposes the runtime's debug state.
type EngineReader interface {
	Snapshot() engine.Snapshot
}

type Options struct {
	Window      string
	Addr        string
	CorsOrigins []string
	Controller  Controller
	UI          Caller
	Engine      EngineReader
}

type Server struct {
	Window   string
	Addr     string
	Appeared time.Time

	ctrl   Controller
	ui     Caller
	engine EngineReader
	router *gin.Engine
}

func New(opts Options) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(opts.Window))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET", "POST", "PUT"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Window:   opts.Window,
		Addr:     opts.Addr,
		Appeared: time.Now(),
		ctrl:     opts.Controller,
		ui:       opts.UI,
		engine:   opts.Engine,
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on Addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("window", s.Window).Str("addr", s.Addr).Msg("server.Server.Serve listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Str("window", s.Window).Msg("server.Server.Serve shutdown")
		}
		<-errCh
		return nil
	}
}

// onUI runs fn on the UI looper on behalf of a request.
func (s *Server) onUI(c *gin.Context, fn func()) bool {
	ctx, cancel := context.WithTimeout(c.Request.Context(), callTimeout)
	defer cancel()
	if err := s.ui.Call(ctx, fn); err != nil {
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("server.Server.onUI")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
