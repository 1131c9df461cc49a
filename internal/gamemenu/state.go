package gamemenu

import (
	"fmt"
	"sort"
	"sync"

	"github.com/danmuck/editorhost/internal/protocol/schema"
	"github.com/danmuck/editorhost/internal/protocol/tlv"
)

// State holds the last applied value per action name for one editor session. It travels
// to new game processes by value inside each launch intent.
type State struct {
	mu     sync.RWMutex
	values map[string]Param
}

func NewState() *State {
	return &State{values: make(map[string]Param)}
}

// Record stores the action's parameter under its wire name. Triggers are ignored.
func (s *State) Record(a Action) bool {
	if !a.Kind.Recorded() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[a.Kind.String()] = a.Param
	return true
}

func (s *State) Get(k Kind) (Param, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.values[k.String()]
	return p, ok
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Snapshot returns a copy of the mapping keyed by action name.
func (s *State) Snapshot() map[string]Param {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Param, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Marshal encodes the state as an opaque blob. Keys are sorted so equal states encode
// identically.
func (s *State) Marshal() []byte {
	snap := s.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]tlv.Field, 0, len(keys))
	for _, k := range keys {
		entry := []tlv.Field{tlv.String(schema.FieldStateKey, k)}
		p := snap[k]
		switch p.Kind {
		case ParamBool:
			entry = append(entry, tlv.Bool(schema.FieldStateBool, p.Bool))
		case ParamInt:
			entry = append(entry, tlv.I32(schema.FieldStateInt, p.Int))
		default:
			continue
		}
		fields = append(fields, tlv.Bytes(schema.FieldStateEntry, tlv.EncodeFields(entry)))
	}
	return tlv.EncodeFields(fields)
}

// UnmarshalState decodes a blob produced by Marshal. Entries for unknown keys are kept so
// a newer editor's state survives a round trip through an older game process.
func UnmarshalState(b []byte) (*State, error) {
	s := NewState()
	if len(b) == 0 {
		return s, nil
	}
	fields, err := tlv.DecodeFields(b)
	if err != nil {
		return nil, fmt.Errorf("gamemenu: decode state: %w", err)
	}
	for _, f := range tlv.All(fields, schema.FieldStateEntry) {
		entry, err := tlv.DecodeFields(f.Value)
		if err != nil {
			return nil, fmt.Errorf("gamemenu: decode state entry: %w", err)
		}
		kf, ok := tlv.GetField(entry, schema.FieldStateKey)
		if !ok {
			return nil, fmt.Errorf("gamemenu: state entry missing key")
		}
		key, err := kf.AsString()
		if err != nil {
			return nil, fmt.Errorf("gamemenu: state entry key: %w", err)
		}
		if bf, ok := tlv.GetField(entry, schema.FieldStateBool); ok {
			v, err := bf.AsBool()
			if err != nil {
				return nil, fmt.Errorf("gamemenu: state entry %q: %w", key, err)
			}
			s.values[key] = BoolParam(v)
			continue
		}
		if inf, ok := tlv.GetField(entry, schema.FieldStateInt); ok {
			v, err := inf.AsI32()
			if err != nil {
				return nil, fmt.Errorf("gamemenu: state entry %q: %w", key, err)
			}
			s.values[key] = IntParam(v)
		}
	}
	return s, nil
}

// Settings is the menu configuration a game window restores at startup.
type Settings struct {
	Suspended        bool
	NodeType         NodeType
	SelectMode       SelectMode
	SelectionVisible bool
	CameraOverride   bool
	CameraMode       CameraMode
	EmbedOnPlay      bool
	AlwaysOnTop      bool
}

// Settings resolves the state against the menu defaults. Out-of-range ordinals fall back
// to the default for that setting.
func (s *State) Settings() Settings {
	out := Settings{
		NodeType:         NodeTypeNone,
		SelectMode:       SelectSingle,
		SelectionVisible: true,
		CameraMode:       CameraInGame,
	}
	out.Suspended = s.boolOr(KindSetSuspend, false)
	out.SelectionVisible = s.boolOr(KindSetSelectionVisible, true)
	out.CameraOverride = s.boolOr(KindSetCameraOverride, false)
	out.EmbedOnPlay = s.boolOr(KindEmbedGameOnPlay, false)
	out.AlwaysOnTop = s.boolOr(KindAlwaysOnTop, false)
	if v, ok := s.intIn(KindSetNodeType, int32(NodeType3D)); ok {
		out.NodeType = NodeType(v)
	}
	if v, ok := s.intIn(KindSetSelectMode, int32(SelectList)); ok {
		out.SelectMode = SelectMode(v)
	}
	if v, ok := s.intIn(KindSetCameraManipulateMode, int32(CameraEditors)); ok {
		out.CameraMode = CameraMode(v)
	}
	return out
}

func (s *State) boolOr(k Kind, def bool) bool {
	p, ok := s.Get(k)
	if !ok || p.Kind != ParamBool {
		return def
	}
	return p.Bool
}

func (s *State) intIn(k Kind, max int32) (int32, bool) {
	p, ok := s.Get(k)
	if !ok || p.Kind != ParamInt || p.Int < 0 || p.Int > max {
		return 0, false
	}
	return p.Int, true
}
