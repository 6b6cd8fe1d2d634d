package stream

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind tags an inbound message.
type Kind string

const (
	KindGameUpdate Kind = "game_update"
	KindGamesList  Kind = "games_list"
	// KindGames is the deprecated alias of KindGamesList still sent by older backends.
	KindGames Kind = "games"
	KindEvent Kind = "event"
)

// Canonical folds deprecated aliases into their current kind.
func (k Kind) Canonical() Kind {
	if k == KindGames {
		return KindGamesList
	}
	return k
}

// Known reports whether the kind is one the client understands. Unknown kinds
// still decode; consumers ignore them.
func (k Kind) Known() bool {
	switch k.Canonical() {
	case KindGameUpdate, KindGamesList, KindEvent:
		return true
	}
	return false
}

// Message is one decoded stream frame. Data is left raw so each consumer
// decodes only the kinds it handles.
type Message struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ErrMissingType is returned for frames that decode but carry no type tag.
var ErrMissingType = errors.New("stream: message has no type")

// Decode parses a frame into a Message.
func Decode(frame []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return Message{}, fmt.Errorf("stream: decode frame: %w", err)
	}
	if msg.Type == "" {
		return Message{}, ErrMissingType
	}
	return msg, nil
}

// NewMessage builds a Message from a typed payload.
func NewMessage(kind Kind, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("stream: encode %s payload: %w", kind, err)
	}
	return Message{Type: kind, Data: data}, nil
}

// DecodeData unmarshals the payload into dst.
func (m Message) DecodeData(dst any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("stream: %s message has no data", m.Type)
	}
	if err := json.Unmarshal(m.Data, dst); err != nil {
		return fmt.Errorf("stream: decode %s data: %w", m.Type, err)
	}
	return nil
}
