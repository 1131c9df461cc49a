package gamemenu

import (
	"fmt"

	"github.com/danmuck/editorhost/internal/protocol/schema"
	"github.com/danmuck/editorhost/internal/protocol/tlv"
)

// Kind is one of the game menu actions a game window can relay to the editor.
type Kind int

const (
	KindSetSuspend Kind = iota + 1
	KindNextFrame
	KindSetNodeType
	KindSetSelectMode
	KindSetSelectionVisible
	KindSetCameraOverride
	KindSetCameraManipulateMode
	KindResetCamera2DPosition
	KindResetCamera3DPosition
	KindEmbedGameOnPlay
	KindAlwaysOnTop
)

var kinds = []Kind{
	KindSetSuspend,
	KindNextFrame,
	KindSetNodeType,
	KindSetSelectMode,
	KindSetSelectionVisible,
	KindSetCameraOverride,
	KindSetCameraManipulateMode,
	KindResetCamera2DPosition,
	KindResetCamera3DPosition,
	KindEmbedGameOnPlay,
	KindAlwaysOnTop,
}

// Kinds lists every action kind.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// String returns the wire name, which is also the GameMenuState key.
func (k Kind) String() string {
	switch k {
	case KindSetSuspend:
		return "setSuspend"
	case KindNextFrame:
		return "nextFrame"
	case KindSetNodeType:
		return "setNodeType"
	case KindSetSelectMode:
		return "setSelectMode"
	case KindSetSelectionVisible:
		return "setSelectionVisible"
	case KindSetCameraOverride:
		return "setCameraOverride"
	case KindSetCameraManipulateMode:
		return "setCameraManipulateMode"
	case KindResetCamera2DPosition:
		return "resetCamera2DPosition"
	case KindResetCamera3DPosition:
		return "resetCamera3DPosition"
	case KindEmbedGameOnPlay:
		return "embedGameOnPlay"
	case KindAlwaysOnTop:
		return "onAlwaysOnTopUpdated"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a wire name to its kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range kinds {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// ParamKind is the scalar type an action carries.
func (k Kind) ParamKind() ParamKind {
	switch k {
	case KindSetSuspend, KindSetSelectionVisible, KindSetCameraOverride, KindEmbedGameOnPlay, KindAlwaysOnTop:
		return ParamBool
	case KindSetNodeType, KindSetSelectMode, KindSetCameraManipulateMode:
		return ParamInt
	case KindNextFrame, KindResetCamera2DPosition, KindResetCamera3DPosition:
		return ParamNone
	default:
		return ParamNone
	}
}

// Recorded reports whether applying this kind updates GameMenuState. Triggers are not.
func (k Kind) Recorded() bool {
	return k.ParamKind() != ParamNone
}

type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamBool
	ParamInt
)

// Param is the optional scalar attached to an action.
type Param struct {
	Kind ParamKind
	Bool bool
	Int  int32
}

func BoolParam(v bool) Param { return Param{Kind: ParamBool, Bool: v} }
func IntParam(v int32) Param { return Param{Kind: ParamInt, Int: v} }
func (p Param) IsZero() bool { return p.Kind == ParamNone }

func (p Param) String() string {
	switch p.Kind {
	case ParamBool:
		return fmt.Sprintf("%t", p.Bool)
	case ParamInt:
		return fmt.Sprintf("%d", p.Int)
	default:
		return "none"
	}
}

// Action is a decoded game menu action.
type Action struct {
	Kind  Kind
	Param Param
}

func (a Action) String() string {
	if a.Param.IsZero() {
		return a.Kind.String()
	}
	return a.Kind.String() + "(" + a.Param.String() + ")"
}

func SetSuspend(suspended bool) Action {
	return Action{Kind: KindSetSuspend, Param: BoolParam(suspended)}
}

func NextFrame() Action { return Action{Kind: KindNextFrame} }

func SetNodeType(t NodeType) Action {
	return Action{Kind: KindSetNodeType, Param: IntParam(int32(t))}
}

func SetSelectMode(m SelectMode) Action {
	return Action{Kind: KindSetSelectMode, Param: IntParam(int32(m))}
}

func SetSelectionVisible(visible bool) Action {
	return Action{Kind: KindSetSelectionVisible, Param: BoolParam(visible)}
}

func SetCameraOverride(enabled bool) Action {
	return Action{Kind: KindSetCameraOverride, Param: BoolParam(enabled)}
}

func SetCameraManipulateMode(m CameraMode) Action {
	return Action{Kind: KindSetCameraManipulateMode, Param: IntParam(int32(m))}
}

func ResetCamera2DPosition() Action { return Action{Kind: KindResetCamera2DPosition} }
func ResetCamera3DPosition() Action { return Action{Kind: KindResetCamera3DPosition} }

func EmbedGameOnPlay(embedded bool) Action {
	return Action{Kind: KindEmbedGameOnPlay, Param: BoolParam(embedded)}
}

func AlwaysOnTop(enabled bool) Action {
	return Action{Kind: KindAlwaysOnTop, Param: BoolParam(enabled)}
}

// Fields encodes the action for a control message body.
func (a Action) Fields() []tlv.Field {
	out := []tlv.Field{tlv.String(schema.FieldAction, a.Kind.String())}
	switch a.Param.Kind {
	case ParamBool:
		out = append(out, tlv.Bool(schema.FieldParamBool, a.Param.Bool))
	case ParamInt:
		out = append(out, tlv.I32(schema.FieldParamInt, a.Param.Int))
	}
	return out
}

// DecodeFields reads an action from a control message body. Unknown or missing action
// names yield ok=false. A missing parameter decodes as the zero value of its type.
func DecodeFields(fields []tlv.Field) (Action, bool) {
	f, ok := tlv.GetField(fields, schema.FieldAction)
	if !ok {
		return Action{}, false
	}
	name, err := f.AsString()
	if err != nil {
		return Action{}, false
	}
	kind, ok := ParseKind(name)
	if !ok {
		return Action{}, false
	}

	a := Action{Kind: kind}
	switch kind.ParamKind() {
	case ParamBool:
		a.Param = BoolParam(false)
		if pf, ok := tlv.GetField(fields, schema.FieldParamBool); ok {
			if v, err := pf.AsBool(); err == nil {
				a.Param.Bool = v
			}
		}
	case ParamInt:
		a.Param = IntParam(0)
		if pf, ok := tlv.GetField(fields, schema.FieldParamInt); ok {
			if v, err := pf.AsI32(); err == nil {
				a.Param.Int = v
			}
		}
	}
	return a, true
}
