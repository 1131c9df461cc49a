package launch

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/danmuck/editorhost/internal/protocol/schema"
	"github.com/danmuck/editorhost/internal/protocol/tlv"
	"github.com/danmuck/editorhost/internal/window"
)

// EnvIntent carries the encoded launch intent from a parent process to its child.
const EnvIntent = "EDITORHOST_INTENT"

var ErrNoIntent = errors.New("launch: no intent in environment")

// Intent is the launch surface handed to a new window process.
type Intent struct {
	Window             window.Descriptor
	EditorHint         bool
	ProjectManagerHint bool
	GameMenuState      []byte
	NewLaunch          bool
	CommandLineParams  []string
	DispatcherPayload  []byte
}

func EncodeIntent(in Intent) []byte {
	fields := []tlv.Field{
		tlv.U32(schema.FieldIntentWindow, uint32(in.Window.ID)),
		tlv.Bool(schema.FieldEditorHint, in.EditorHint),
		tlv.Bool(schema.FieldProjectManagerHint, in.ProjectManagerHint),
		tlv.Bool(schema.FieldNewLaunch, in.NewLaunch),
	}
	if len(in.GameMenuState) > 0 {
		fields = append(fields, tlv.Bytes(schema.FieldGameMenuState, in.GameMenuState))
	}
	for _, arg := range in.CommandLineParams {
		fields = append(fields, tlv.String(schema.FieldCommandLineParam, arg))
	}
	if len(in.DispatcherPayload) > 0 {
		fields = append(fields, tlv.Bytes(schema.FieldDispatcherPayload, in.DispatcherPayload))
	}
	return tlv.EncodeFields(fields)
}

func DecodeIntent(b []byte) (Intent, error) {
	fields, err := tlv.DecodeFields(b)
	if err != nil {
		return Intent{}, fmt.Errorf("launch: decode intent: %w", err)
	}
	if err := schema.Validate(schema.BlobLaunchIntent, fields); err != nil {
		return Intent{}, fmt.Errorf("launch: decode intent: %w", err)
	}

	var out Intent
	f, _ := tlv.GetField(fields, schema.FieldIntentWindow)
	id, _ := f.AsU32()
	desc, ok := window.Resolve(int(id))
	if !ok {
		return Intent{}, fmt.Errorf("launch: decode intent: unknown window id %d", id)
	}
	out.Window = desc
	out.EditorHint = boolField(fields, schema.FieldEditorHint)
	out.ProjectManagerHint = boolField(fields, schema.FieldProjectManagerHint)
	out.NewLaunch = boolField(fields, schema.FieldNewLaunch)
	if f, ok := tlv.GetField(fields, schema.FieldGameMenuState); ok {
		out.GameMenuState = f.Value
	}
	if f, ok := tlv.GetField(fields, schema.FieldDispatcherPayload); ok {
		out.DispatcherPayload = f.Value
	}
	for _, f := range tlv.All(fields, schema.FieldCommandLineParam) {
		arg, err := f.AsString()
		if err != nil {
			return Intent{}, fmt.Errorf("launch: decode intent: %w", err)
		}
		out.CommandLineParams = append(out.CommandLineParams, arg)
	}
	return out, nil
}

func boolField(fields []tlv.Field, id uint16) bool {
	f, ok := tlv.GetField(fields, id)
	if !ok {
		return false
	}
	v, err := f.AsBool()
	return err == nil && v
}

// Env renders the intent as a KEY=value entry for a child process environment.
func (in Intent) Env() string {
	return EnvIntent + "=" + base64.StdEncoding.EncodeToString(EncodeIntent(in))
}

// IntentFromEnv reads the intent this process was started with.
func IntentFromEnv() (Intent, error) {
	raw, ok := os.LookupEnv(EnvIntent)
	if !ok || raw == "" {
		return Intent{}, ErrNoIntent
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return Intent{}, fmt.Errorf("launch: intent env: %w", err)
	}
	return DecodeIntent(b)
}
