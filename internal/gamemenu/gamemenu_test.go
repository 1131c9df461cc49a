package gamemenu

import (
	"fmt"
	"testing"

	"github.com/danmuck/editorhost/internal/protocol/schema"
	"github.com/danmuck/editorhost/internal/protocol/tlv"
	"github.com/danmuck/editorhost/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

type recordingRuntime struct {
	calls []string
}

func (r *recordingRuntime) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recordingRuntime) SetSuspend(v bool)                    { r.add("suspend=%t", v) }
func (r *recordingRuntime) NextFrame()                           { r.add("next") }
func (r *recordingRuntime) SetNodeType(t NodeType)               { r.add("node=%s", t) }
func (r *recordingRuntime) SetSelectMode(m SelectMode)           { r.add("select=%s", m) }
func (r *recordingRuntime) SetSelectionVisible(v bool)           { r.add("visible=%t", v) }
func (r *recordingRuntime) SetCameraOverride(v bool)             { r.add("override=%t", v) }
func (r *recordingRuntime) SetCameraManipulateMode(m CameraMode) { r.add("camera=%s", m) }
func (r *recordingRuntime) ResetCamera2DPosition()               { r.add("reset2d") }
func (r *recordingRuntime) ResetCamera3DPosition()               { r.add("reset3d") }
func (r *recordingRuntime) SaveGameEmbedMode(v bool)             { r.add("embed=%t", v) }

// inlinePoster runs posted work immediately; queued counts posts.
type inlinePoster struct {
	closed bool
	queued int
}

func (p *inlinePoster) Post(fn func()) bool {
	if p.closed {
		return false
	}
	p.queued++
	fn()
	return true
}

func sampleActions() []Action {
	return []Action{
		SetSuspend(true),
		NextFrame(),
		SetNodeType(NodeType3D),
		SetSelectMode(SelectList),
		SetSelectionVisible(false),
		SetCameraOverride(true),
		SetCameraManipulateMode(CameraEditors),
		ResetCamera2DPosition(),
		ResetCamera3DPosition(),
		EmbedGameOnPlay(true),
		AlwaysOnTop(true),
	}
}

func TestKindsExhaustive(t *testing.T) {
	testlog.Start(t)
	require.Len(t, Kinds(), 11)
	seen := map[string]bool{}
	for _, k := range Kinds() {
		name := k.String()
		require.False(t, seen[name], "duplicate wire name %s", name)
		seen[name] = true
		got, ok := ParseKind(name)
		require.True(t, ok)
		require.Equal(t, k, got)
	}
	_, ok := ParseKind("foo")
	require.False(t, ok)
}

func TestActionFieldsRoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, a := range sampleActions() {
		fields, err := tlv.DecodeFields(tlv.EncodeFields(a.Fields()))
		require.NoError(t, err)
		got, ok := DecodeFields(fields)
		require.True(t, ok, a.String())
		require.Equal(t, a, got)
	}
}

func TestDecodeFieldsUnknownAndMissingParam(t *testing.T) {
	testlog.Start(t)
	_, ok := DecodeFields([]tlv.Field{tlv.String(schema.FieldAction, "foo")})
	require.False(t, ok)
	_, ok = DecodeFields(nil)
	require.False(t, ok)

	got, ok := DecodeFields([]tlv.Field{tlv.String(schema.FieldAction, "setSuspend")})
	require.True(t, ok)
	require.Equal(t, SetSuspend(false), got)
}

func TestApplyRecordsParameterizedActions(t *testing.T) {
	testlog.Start(t)
	rt := &recordingRuntime{}
	state := NewState()
	applier := NewApplier(rt, &inlinePoster{}, state)

	for _, a := range sampleActions() {
		require.True(t, applier.Apply(a))
		p, ok := state.Get(a.Kind)
		if a.Kind.Recorded() {
			require.True(t, ok, a.String())
			require.Equal(t, a.Param, p)
		} else {
			require.False(t, ok, "trigger %s must not be recorded", a.Kind)
		}
	}
	require.Equal(t, 8, state.Len())
	for _, trigger := range []Kind{KindNextFrame, KindResetCamera2DPosition, KindResetCamera3DPosition} {
		_, ok := state.Snapshot()[trigger.String()]
		require.False(t, ok)
	}
	// always-on-top has no runtime effect
	require.Equal(t, []string{
		"suspend=true", "next", "node=3d", "select=list", "visible=false",
		"override=true", "camera=editors", "reset2d", "reset3d", "embed=true",
	}, rt.calls)
}

func TestApplyUnknownActionLeavesStateUnchanged(t *testing.T) {
	testlog.Start(t)
	state := NewState()
	applier := NewApplier(&recordingRuntime{}, &inlinePoster{}, state)
	applier.Apply(SetSuspend(true))
	before := state.Snapshot()

	require.NotPanics(t, func() {
		require.False(t, applier.ApplyFields([]tlv.Field{tlv.String(schema.FieldAction, "foo")}))
	})
	require.Equal(t, before, state.Snapshot())
}

func TestApplyNotRecordedWhenRenderClosed(t *testing.T) {
	testlog.Start(t)
	state := NewState()
	applier := NewApplier(&recordingRuntime{}, &inlinePoster{closed: true}, state)
	require.False(t, applier.Apply(SetSuspend(true)))
	require.Equal(t, 0, state.Len())
	// record-only action does not need the render context
	require.True(t, applier.Apply(AlwaysOnTop(true)))
	require.Equal(t, 1, state.Len())
}

func TestStateMarshalRoundTrip(t *testing.T) {
	testlog.Start(t)
	state := NewState()
	for _, a := range sampleActions() {
		state.Record(a)
	}
	out, err := UnmarshalState(state.Marshal())
	require.NoError(t, err)
	require.Equal(t, state.Snapshot(), out.Snapshot())
	require.Equal(t, state.Marshal(), out.Marshal())

	empty, err := UnmarshalState(nil)
	require.NoError(t, err)
	require.Equal(t, 0, empty.Len())

	_, err = UnmarshalState([]byte{0xff})
	require.Error(t, err)
}

func TestSettingsDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	require.Equal(t, Settings{
		NodeType:         NodeTypeNone,
		SelectMode:       SelectSingle,
		SelectionVisible: true,
		CameraMode:       CameraInGame,
	}, NewState().Settings())

	state := NewState()
	state.Record(SetNodeType(NodeType2D))
	state.Record(SetSelectionVisible(false))
	state.Record(AlwaysOnTop(true))
	state.Record(Action{Kind: KindSetCameraManipulateMode, Param: IntParam(42)})
	got := state.Settings()
	require.Equal(t, NodeType2D, got.NodeType)
	require.False(t, got.SelectionVisible)
	require.True(t, got.AlwaysOnTop)
	require.Equal(t, CameraInGame, got.CameraMode)
}
