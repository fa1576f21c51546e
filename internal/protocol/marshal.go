package protocol

import (
	"encoding/json"
	"errors"
)

// ErrUnknownMessageType is returned when decoding a message whose type tag
// is not part of the protocol.
var ErrUnknownMessageType = errors.New("unknown message type")

// Marshal serializes a message to its JSON wire form
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// PeekType extracts the type tag from a raw envelope without decoding the
// rest of the payload.
func PeekType(data []byte) (MessageType, error) {
	var head struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", err
	}
	return head.Type, nil
}

// Decode parses a raw envelope into its typed message based on the type tag
func Decode(data []byte) (any, error) {
	mt, err := PeekType(data)
	if err != nil {
		return nil, err
	}

	var v any
	switch mt {
	case TypeProbe:
		v = &Probe{}
	case TypeJoin:
		v = &Join{}
	case TypeMark:
		v = &Mark{}
	case TypeRequestBingo:
		v = &RequestBingo{}
	case TypeGameExists:
		v = &GameExists{}
	case TypeJoined:
		v = &Joined{}
	case TypeState:
		v = &State{}
	case TypeBingo:
		v = &Bingo{}
	case TypeError:
		v = &Error{}
	default:
		return nil, ErrUnknownMessageType
	}

	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}
