package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/editorhost/internal/activity"
	"github.com/danmuck/editorhost/internal/gamemenu"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

var (
	ErrUnknownAction = errors.New("server: unknown game menu action")
	ErrMissingParam  = errors.New("server: action parameter missing")

	ErrUnknownPermission = errors.New("server: unknown permission")
)

type actionRequest struct {
	Enabled *bool  `json:"enabled"`
	Value   *int32 `json:"value"`
}

type instanceRequest struct {
	Args []string `json:"args"`
}

type permissionResult struct {
	Permission string `json:"permission"`
	Granted    bool   `json:"granted"`
}

type permissionsRequest struct {
	Results []permissionResult `json:"results"`
}

type immersiveRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) registerRoutes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"window":  s.Window,
			"version": version,
		})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   s.ctrl != nil,
			"uptime":  time.Since(s.Appeared).String(),
			"window":  s.Window,
			"version": version,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/windows", func(c *gin.Context) {
		var windows []activity.WindowStatus
		if !s.onUI(c, func() { windows = s.ctrl.Windows() }) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"windows": windows})
	})

	r.GET("/game-menu/state", func(c *gin.Context) {
		var (
			state map[string]any
			caps  activity.MenuCapabilities
		)
		if !s.onUI(c, func() {
			state = renderState(s.ctrl.MenuState())
			caps = s.ctrl.MenuCapabilities()
		}) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": state, "capabilities": caps})
	})

	r.GET("/engine", func(c *gin.Context) {
		if s.engine == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no runtime in this window"})
			return
		}
		c.JSON(http.StatusOK, s.engine.Snapshot())
	})

	r.POST("/game-menu/actions/:action", func(c *gin.Context) {
		var req actionRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		action, err := buildAction(c.Param("action"), req)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, ErrUnknownAction) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		if !s.onUI(c, func() { s.ctrl.MenuAction(action) }) {
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "ok", "action": action.String()})
	})

	r.POST("/instances", func(c *gin.Context) {
		var req instanceRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var id int
		if !s.onUI(c, func() { id = s.ctrl.OnNewInstanceRequested(req.Args) }) {
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "ok", "window_id": id})
	})

	r.POST("/windows/:id/force-quit", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window id must be an integer"})
			return
		}
		var handled bool
		if !s.onUI(c, func() { handled = s.ctrl.OnForceQuit(id) }) {
			return
		}
		status := http.StatusAccepted
		if !handled {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"handled": handled, "window_id": id})
	})

	r.POST("/workspace/:name", func(c *gin.Context) {
		name := c.Param("name")
		if !s.onUI(c, func() { s.ctrl.OnWorkspaceSelected(name) }) {
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "ok", "workspace": name})
	})

	r.POST("/permissions", func(c *gin.Context) {
		var req permissionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		results, err := buildPermissions(req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !s.onUI(c, func() { s.ctrl.OnPermissionsResult(results...) }) {
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "ok", "results": len(results)})
	})

	r.GET("/features/:tag", func(c *gin.Context) {
		tag := c.Param("tag")
		var supported bool
		if !s.onUI(c, func() { supported = s.ctrl.SupportsFeature(tag) }) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"feature": tag, "supported": supported})
	})

	r.GET("/window/immersive", func(c *gin.Context) {
		var immersive bool
		if !s.onUI(c, func() { immersive = s.ctrl.Immersive() }) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"enabled": immersive})
	})

	r.PUT("/window/immersive", func(c *gin.Context) {
		var req immersiveRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Enabled == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrMissingParam.Error()})
			return
		}
		if !s.onUI(c, func() { s.ctrl.SetImmersive(*req.Enabled) }) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
	})

	r.POST("/window/pip", func(c *gin.Context) {
		var entered bool
		if !s.onUI(c, func() { entered = s.ctrl.EnterPictureInPicture() }) {
			return
		}
		status := http.StatusAccepted
		if !entered {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"entered": entered})
	})

	r.POST("/window/minimize", func(c *gin.Context) {
		if !s.onUI(c, s.ctrl.Minimize) {
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
	})

	// The process may exit before the response is flushed.
	r.POST("/window/close", func(c *gin.Context) {
		if !s.onUI(c, s.ctrl.Close) {
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "ok"})
	})
}

func buildPermissions(req permissionsRequest) ([]activity.PermissionResult, error) {
	if len(req.Results) == 0 {
		return nil, ErrMissingParam
	}
	out := make([]activity.PermissionResult, 0, len(req.Results))
	for _, r := range req.Results {
		p, ok := activity.ParsePermission(r.Permission)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPermission, r.Permission)
		}
		out = append(out, activity.PermissionResult{Permission: p, Granted: r.Granted})
	}
	return out, nil
}

func buildAction(name string, req actionRequest) (gamemenu.Action, error) {
	kind, ok := gamemenu.ParseKind(name)
	if !ok {
		return gamemenu.Action{}, ErrUnknownAction
	}
	action := gamemenu.Action{Kind: kind}
	switch kind.ParamKind() {
	case gamemenu.ParamBool:
		if req.Enabled == nil {
			return gamemenu.Action{}, ErrMissingParam
		}
		action.Param = gamemenu.BoolParam(*req.Enabled)
	case gamemenu.ParamInt:
		if req.Value == nil {
			return gamemenu.Action{}, ErrMissingParam
		}
		action.Param = gamemenu.IntParam(*req.Value)
	}
	return action, nil
}

func renderState(state *gamemenu.State) map[string]any {
	out := make(map[string]any)
	for key, p := range state.Snapshot() {
		switch p.Kind {
		case gamemenu.ParamBool:
			out[key] = p.Bool
		case gamemenu.ParamInt:
			out[key] = p.Int
		}
	}
	return out
}
