package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned for payloads that are not valid JSON or that lack
// a field the message type requires.
var ErrMalformed = errors.New("malformed message")

type handshakeWire struct {
	Type Kind   `json:"type"`
	From string `json:"from"`
	Port int    `json:"port,omitempty"`
}

type storeWire struct {
	Type     Kind   `json:"type"`
	FileId   string `json:"fileId"`
	Chunk    string `json:"chunk"`
	FileName string `json:"fileName,omitempty"`
	From     string `json:"from"`
}

type getWire struct {
	Type   Kind   `json:"type"`
	FileId string `json:"fileId"`
	From   string `json:"from"`
	Port   int    `json:"port,omitempty"`
}

// envelope is the union of every field any message may carry.
type envelope struct {
	Type     string `json:"type"`
	From     string `json:"from"`
	Port     int    `json:"port"`
	FileId   string `json:"fileId"`
	Chunk    string `json:"chunk"`
	FileName string `json:"fileName"`
}

// Encode serializes msg as one JSON document.
func Encode(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case Ping:
		return json.Marshal(handshakeWire{Type: KindPing, From: m.From, Port: m.Port})
	case Pong:
		return json.Marshal(handshakeWire{Type: KindPong, From: m.From, Port: m.Port})
	case Store:
		return json.Marshal(storeWire{Type: KindStore, FileId: m.FileId, Chunk: m.Chunk, FileName: m.FileName, From: m.From})
	case Get:
		return json.Marshal(getWire{Type: KindGet, FileId: m.FileId, From: m.From, Port: m.Port})
	default:
		return nil, fmt.Errorf("cannot encode message of type %T", msg)
	}
}

// Decode parses one JSON document. An unrecognised "type" yields Unknown
// and no error.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch Kind(env.Type) {
	case KindPing, KindPong:
		if env.From == "" {
			return nil, fmt.Errorf("%w: %s without from", ErrMalformed, env.Type)
		}
		if env.Port < 0 || env.Port > 65535 {
			return nil, fmt.Errorf("%w: port %d out of range", ErrMalformed, env.Port)
		}
		if Kind(env.Type) == KindPing {
			return Ping{From: env.From, Port: env.Port}, nil
		}
		return Pong{From: env.From, Port: env.Port}, nil

	case KindStore, KindChunk:
		if env.FileId == "" {
			return nil, fmt.Errorf("%w: %s without fileId", ErrMalformed, env.Type)
		}
		return Store{
			FileId:     env.FileId,
			Chunk:      env.Chunk,
			FileName:   env.FileName,
			From:       env.From,
			Deprecated: Kind(env.Type) == KindChunk,
		}, nil

	case KindGet:
		if env.FileId == "" {
			return nil, fmt.Errorf("%w: GET without fileId", ErrMalformed)
		}
		if env.Port < 0 || env.Port > 65535 {
			return nil, fmt.Errorf("%w: port %d out of range", ErrMalformed, env.Port)
		}
		return Get{FileId: env.FileId, From: env.From, Port: env.Port}, nil

	default:
		return Unknown{Type: env.Type, From: env.From}, nil
	}
}
