package session

import (
	"fmt"
	"strings"

	"github.com/danmuck/editorhost/internal/protocol/schema"
	"github.com/danmuck/editorhost/internal/protocol/tlv"
)

// DispatcherPayload tells a child process how to reach the window that spawned it.
// Token authenticates frames addressed to that window.
type DispatcherPayload struct {
	WindowID int
	Network  string
	Address  string
	Token    string
}

func (p DispatcherPayload) Validate() error {
	if p.WindowID <= 0 {
		return fmt.Errorf("dispatcher payload missing window_id")
	}
	if strings.TrimSpace(p.Network) == "" {
		return fmt.Errorf("dispatcher payload missing network")
	}
	if strings.TrimSpace(p.Address) == "" {
		return fmt.Errorf("dispatcher payload missing address")
	}
	if strings.TrimSpace(p.Token) == "" {
		return fmt.Errorf("dispatcher payload missing token")
	}
	return nil
}

func (p DispatcherPayload) fields() []tlv.Field {
	return []tlv.Field{
		tlv.U32(schema.FieldSenderWindow, uint32(p.WindowID)),
		tlv.String(schema.FieldNetwork, p.Network),
		tlv.String(schema.FieldAddress, p.Address),
		tlv.String(schema.FieldToken, p.Token),
	}
}

func EncodePayload(p DispatcherPayload) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return tlv.EncodeFields(p.fields()), nil
}

func DecodePayload(b []byte) (DispatcherPayload, error) {
	fields, err := tlv.DecodeFields(b)
	if err != nil {
		return DispatcherPayload{}, err
	}
	if err := schema.Validate(schema.BlobDispatcherPayload, fields); err != nil {
		return DispatcherPayload{}, err
	}
	return payloadFromFields(fields), nil
}

func payloadFromFields(fields []tlv.Field) DispatcherPayload {
	return DispatcherPayload{
		WindowID: getRequiredInt(fields, schema.FieldSenderWindow),
		Network:  getRequiredString(fields, schema.FieldNetwork),
		Address:  getRequiredString(fields, schema.FieldAddress),
		Token:    getRequiredString(fields, schema.FieldToken),
	}
}
