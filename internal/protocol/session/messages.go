package session

import (
	"errors"
	"fmt"

	"github.com/danmuck/editorhost/internal/protocol/frame"
	"github.com/danmuck/editorhost/internal/protocol/schema"
	"github.com/danmuck/editorhost/internal/protocol/tlv"
)

var ErrUnknownMessage = errors.New("session: unknown message type")

// Message is one control message exchanged between window processes.
type Message interface {
	MessageType() uint32
	Validate() error
	fields() []tlv.Field
}

// Register announces the sender's own endpoint to the window that spawned it.
type Register struct {
	Endpoint DispatcherPayload
}

func (Register) MessageType() uint32 { return schema.MsgRegister }

func (m Register) Validate() error {
	if err := m.Endpoint.Validate(); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

func (m Register) fields() []tlv.Field { return m.Endpoint.fields() }

// ForceQuit asks Target to terminate.
type ForceQuit struct {
	Sender int
	Target int
}

func (ForceQuit) MessageType() uint32 { return schema.MsgForceQuit }

func (m ForceQuit) Validate() error {
	if m.Sender <= 0 || m.Target <= 0 {
		return fmt.Errorf("force_quit missing sender or target")
	}
	return nil
}

func (m ForceQuit) fields() []tlv.Field {
	return []tlv.Field{
		tlv.U32(schema.FieldSenderWindow, uint32(m.Sender)),
		tlv.U32(schema.FieldTargetWindow, uint32(m.Target)),
	}
}

// ForceQuitAck is sent by a window that is about to exit in response to ForceQuit.
type ForceQuitAck struct {
	Sender int
}

func (ForceQuitAck) MessageType() uint32 { return schema.MsgForceQuitAck }

func (m ForceQuitAck) Validate() error {
	if m.Sender <= 0 {
		return fmt.Errorf("force_quit_ack missing sender")
	}
	return nil
}

func (m ForceQuitAck) fields() []tlv.Field {
	return []tlv.Field{tlv.U32(schema.FieldSenderWindow, uint32(m.Sender))}
}

type BringToFront struct {
	Sender int
	Target int
}

func (BringToFront) MessageType() uint32 { return schema.MsgBringToFront }

func (m BringToFront) Validate() error {
	if m.Sender <= 0 || m.Target <= 0 {
		return fmt.Errorf("bring_to_front missing sender or target")
	}
	return nil
}

func (m BringToFront) fields() []tlv.Field {
	return []tlv.Field{
		tlv.U32(schema.FieldSenderWindow, uint32(m.Sender)),
		tlv.U32(schema.FieldTargetWindow, uint32(m.Target)),
	}
}

// GameMenuAction relays an encoded game menu action. Body holds the action fields as
// produced by the gamemenu package; this layer does not interpret them.
type GameMenuAction struct {
	Sender int
	Body   []tlv.Field
}

func (GameMenuAction) MessageType() uint32 { return schema.MsgGameMenuAction }

func (m GameMenuAction) Validate() error {
	if m.Sender <= 0 {
		return fmt.Errorf("game_menu_action missing sender")
	}
	return nil
}

func (m GameMenuAction) fields() []tlv.Field {
	out := make([]tlv.Field, 0, len(m.Body)+1)
	out = append(out, tlv.U32(schema.FieldSenderWindow, uint32(m.Sender)))
	return append(out, m.Body...)
}

// EncodeFrame validates m and wraps it in a frame authenticated with token.
func EncodeFrame(messageID uint64, token string, m Message) (frame.Frame, error) {
	if err := m.Validate(); err != nil {
		return frame.Frame{}, err
	}
	fields := m.fields()
	if err := schema.Validate(m.MessageType(), fields); err != nil {
		return frame.Frame{}, err
	}
	return frame.Frame{
		Header: frame.Header{
			MessageID:   messageID,
			MessageType: m.MessageType(),
		},
		Auth:    []byte(token),
		Payload: tlv.EncodeFields(fields),
	}, nil
}

// Marshal is EncodeFrame followed by frame.Marshal.
func Marshal(messageID uint64, token string, m Message, limits frame.Limits) ([]byte, error) {
	f, err := EncodeFrame(messageID, token, m)
	if err != nil {
		return nil, err
	}
	return frame.Marshal(f, limits)
}

// Decode parses a frame into its control message.
func Decode(f frame.Frame) (Message, error) {
	fields, err := tlv.DecodeFields(f.Payload)
	if err != nil {
		return nil, err
	}
	mt := f.Header.MessageType
	if schema.Name(mt) == "unknown" {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, mt)
	}
	if err := schema.Validate(mt, fields); err != nil {
		return nil, err
	}
	switch mt {
	case schema.MsgRegister:
		return Register{Endpoint: payloadFromFields(fields)}, nil
	case schema.MsgForceQuit:
		return ForceQuit{
			Sender: getRequiredInt(fields, schema.FieldSenderWindow),
			Target: getRequiredInt(fields, schema.FieldTargetWindow),
		}, nil
	case schema.MsgForceQuitAck:
		return ForceQuitAck{Sender: getRequiredInt(fields, schema.FieldSenderWindow)}, nil
	case schema.MsgBringToFront:
		return BringToFront{
			Sender: getRequiredInt(fields, schema.FieldSenderWindow),
			Target: getRequiredInt(fields, schema.FieldTargetWindow),
		}, nil
	case schema.MsgGameMenuAction:
		body := make([]tlv.Field, 0, len(fields))
		for _, fld := range fields {
			if fld.ID != schema.FieldSenderWindow {
				body = append(body, fld)
			}
		}
		return GameMenuAction{Sender: getRequiredInt(fields, schema.FieldSenderWindow), Body: body}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, mt)
	}
}

func getRequiredString(fields []tlv.Field, id uint16) string {
	f, _ := tlv.GetField(fields, id)
	return string(f.Value)
}

func getRequiredInt(fields []tlv.Field, id uint16) int {
	f, _ := tlv.GetField(fields, id)
	v, _ := f.AsU32()
	return int(v)
}
