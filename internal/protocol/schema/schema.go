package schema

import (
	"fmt"

	"github.com/danmuck/editorhost/internal/protocol/tlv"
	"github.com/rs/zerolog/log"
)

// Message type IDs carried in frame headers between window processes.
const (
	MsgRegister       uint32 = 1
	MsgForceQuit      uint32 = 2
	MsgForceQuitAck   uint32 = 3
	MsgBringToFront   uint32 = 4
	MsgGameMenuAction uint32 = 5
)

// Blob kinds are TLV payloads that travel inside launch intents rather than frames.
const (
	BlobDispatcherPayload uint32 = 100
	BlobLaunchIntent      uint32 = 101
)

// Field IDs from tlv contract.
const (
	FieldSenderWindow uint16 = 1
	FieldTargetWindow uint16 = 2
	FieldNetwork      uint16 = 3
	FieldAddress      uint16 = 4
	FieldToken        uint16 = 5

	FieldAction     uint16 = 50
	FieldParamBool  uint16 = 51
	FieldParamInt   uint16 = 52
	FieldStateKey   uint16 = 53
	FieldStateBool  uint16 = 54
	FieldStateInt   uint16 = 55
	FieldStateEntry uint16 = 56

	FieldIntentWindow       uint16 = 100
	FieldEditorHint         uint16 = 101
	FieldProjectManagerHint uint16 = 102
	FieldGameMenuState      uint16 = 103
	FieldNewLaunch          uint16 = 104
	FieldCommandLineParam   uint16 = 105
	FieldDispatcherPayload  uint16 = 106
)

type Requirement struct {
	ID   uint16
	Type uint8
}

type ValidationError struct {
	MessageType uint32
	FieldID     uint16
	Reason      string
}

func (e ValidationError) Error() string {
	if e.FieldID == 0 {
		return fmt.Sprintf("schema: message_type=%d: %s", e.MessageType, e.Reason)
	}
	return fmt.Sprintf("schema: message_type=%d field=%d: %s", e.MessageType, e.FieldID, e.Reason)
}

var requirements = map[uint32][]Requirement{
	MsgRegister: {
		{FieldSenderWindow, tlv.TypeU32},
		{FieldNetwork, tlv.TypeString},
		{FieldAddress, tlv.TypeString},
		{FieldToken, tlv.TypeString},
	},
	MsgForceQuit: {
		{FieldSenderWindow, tlv.TypeU32},
		{FieldTargetWindow, tlv.TypeU32},
	},
	MsgForceQuitAck: {
		{FieldSenderWindow, tlv.TypeU32},
	},
	MsgBringToFront: {
		{FieldSenderWindow, tlv.TypeU32},
		{FieldTargetWindow, tlv.TypeU32},
	},
	MsgGameMenuAction: {
		{FieldSenderWindow, tlv.TypeU32},
		{FieldAction, tlv.TypeString},
	},
	BlobDispatcherPayload: {
		{FieldSenderWindow, tlv.TypeU32},
		{FieldNetwork, tlv.TypeString},
		{FieldAddress, tlv.TypeString},
		{FieldToken, tlv.TypeString},
	},
	BlobLaunchIntent: {
		{FieldIntentWindow, tlv.TypeU32},
	},
}

// optional lists fields that may be absent but must have the right type when present.
var optional = map[uint32][]Requirement{
	MsgGameMenuAction: {
		{FieldParamBool, tlv.TypeBool},
		{FieldParamInt, tlv.TypeI32},
	},
	BlobLaunchIntent: {
		{FieldEditorHint, tlv.TypeBool},
		{FieldProjectManagerHint, tlv.TypeBool},
		{FieldGameMenuState, tlv.TypeBytes},
		{FieldNewLaunch, tlv.TypeBool},
		{FieldCommandLineParam, tlv.TypeString},
		{FieldDispatcherPayload, tlv.TypeBytes},
	},
}

// Validate enforces required fields and field types for a message type or blob kind.
// Unknown fields are ignored.
func Validate(messageType uint32, fields []tlv.Field) error {
	reqs, ok := requirements[messageType]
	if !ok {
		log.Error().Uint32("message_type", messageType).Msg("schema.Validate unknown message_type")
		return ValidationError{MessageType: messageType, Reason: "unknown message_type"}
	}
	for _, req := range reqs {
		f, found := tlv.GetField(fields, req.ID)
		if !found {
			log.Error().
				Uint32("message_type", messageType).
				Uint16("field_id", req.ID).
				Msg("schema.Validate missing field")
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "missing required field"}
		}
		if f.Type != req.Type {
			log.Error().
				Uint32("message_type", messageType).
				Uint16("field_id", req.ID).
				Uint8("got", f.Type).
				Uint8("want", req.Type).
				Msg("schema.Validate type mismatch")
			return ValidationError{MessageType: messageType, FieldID: req.ID, Reason: "type mismatch"}
		}
	}
	for _, opt := range optional[messageType] {
		for _, f := range tlv.All(fields, opt.ID) {
			if f.Type != opt.Type {
				return ValidationError{MessageType: messageType, FieldID: opt.ID, Reason: "type mismatch"}
			}
		}
	}
	log.Trace().Uint32("message_type", messageType).Int("fields", len(fields)).Msg("schema.Validate ok")
	return nil
}

// Name returns a stable label for metrics and logs.
func Name(messageType uint32) string {
	switch messageType {
	case MsgRegister:
		return "register"
	case MsgForceQuit:
		return "force_quit"
	case MsgForceQuitAck:
		return "force_quit_ack"
	case MsgBringToFront:
		return "bring_to_front"
	case MsgGameMenuAction:
		return "game_menu_action"
	case BlobDispatcherPayload:
		return "dispatcher_payload"
	case BlobLaunchIntent:
		return "launch_intent"
	default:
		return "unknown"
	}
}
