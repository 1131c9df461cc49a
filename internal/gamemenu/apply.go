package gamemenu

import (
	"github.com/danmuck/editorhost/internal/observability"
	"github.com/danmuck/editorhost/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Runtime is the live simulation. Its methods are only ever called from the render
// execution context.
type Runtime interface {
	SetSuspend(suspended bool)
	NextFrame()
	SetNodeType(t NodeType)
	SetSelectMode(m SelectMode)
	SetSelectionVisible(visible bool)
	SetCameraOverride(enabled bool)
	SetCameraManipulateMode(m CameraMode)
	ResetCamera2DPosition()
	ResetCamera3DPosition()
	SaveGameEmbedMode(embedded bool)
}

// Poster schedules fn on a single-threaded execution context without waiting for it.
type Poster interface {
	Post(fn func()) bool
}

// Applier turns decoded actions into runtime effects and keeps GameMenuState current.
type Applier struct {
	runtime Runtime
	render  Poster
	state   *State
}

func NewApplier(runtime Runtime, render Poster, state *State) *Applier {
	return &Applier{runtime: runtime, render: render, state: state}
}

func (a *Applier) State() *State {
	return a.state
}

// Apply posts the action's effect to the render context, then records it. State is only
// recorded when the post was accepted. Returns whether the action was applied.
func (a *Applier) Apply(action Action) bool {
	if fn := a.effect(action); fn != nil {
		if !a.render.Post(fn) {
			log.Warn().Str("action", action.String()).Msg("gamemenu.Applier.Apply render context closed")
			observability.RecordGameMenuAction(action.Kind.String(), false)
			return false
		}
	}
	a.state.Record(action)
	log.Debug().Str("action", action.String()).Msg("gamemenu.Applier.Apply")
	observability.RecordGameMenuAction(action.Kind.String(), true)
	return true
}

// ApplyFields decodes a relayed action and applies it. Unknown actions are dropped.
func (a *Applier) ApplyFields(fields []tlv.Field) bool {
	action, ok := DecodeFields(fields)
	if !ok {
		log.Debug().Int("fields", len(fields)).Msg("gamemenu.Applier.ApplyFields unknown action dropped")
		return false
	}
	return a.Apply(action)
}

// effect returns the closure to run on the render context, or nil for record-only actions.
func (a *Applier) effect(action Action) func() {
	rt := a.runtime
	p := action.Param
	switch action.Kind {
	case KindSetSuspend:
		return func() { rt.SetSuspend(p.Bool) }
	case KindNextFrame:
		return rt.NextFrame
	case KindSetNodeType:
		return func() { rt.SetNodeType(NodeType(p.Int)) }
	case KindSetSelectMode:
		return func() { rt.SetSelectMode(SelectMode(p.Int)) }
	case KindSetSelectionVisible:
		return func() { rt.SetSelectionVisible(p.Bool) }
	case KindSetCameraOverride:
		return func() { rt.SetCameraOverride(p.Bool) }
	case KindSetCameraManipulateMode:
		return func() { rt.SetCameraManipulateMode(CameraMode(p.Int)) }
	case KindResetCamera2DPosition:
		return rt.ResetCamera2DPosition
	case KindResetCamera3DPosition:
		return rt.ResetCamera3DPosition
	case KindEmbedGameOnPlay:
		return func() { rt.SaveGameEmbedMode(p.Bool) }
	case KindAlwaysOnTop:
		return nil
	default:
		return nil
	}
}
