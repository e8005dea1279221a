// Package protocol implements the wire envelope, payload schemas and
// signing rules shared by the relay and its clients.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

const Version = "0.1"

// MaxMessageBytes caps a decoded frame. Oversized input is rejected before
// any parsing.
const MaxMessageBytes = 64 * 1024

// Message types.
const (
	TypeClientAuth             = "client.auth"
	TypeClientMove             = "client.move"
	TypeClientChat             = "client.chat"
	TypeClientCommand          = "client.command"
	TypeClientRoomAccessUpdate = "client.room_access_update"
	TypeClientHeartbeat        = "client.heartbeat"

	TypeServerHello      = "server.hello"
	TypeServerWelcome    = "server.welcome"
	TypeServerState      = "server.state"
	TypeServerMapChange  = "server.map_change"
	TypeServerChat       = "server.chat"
	TypeServerNearby     = "server.nearby"
	TypeServerTrainState = "server.train_state"
	TypeServerWho        = "server.who"
	TypeServerRoomInfo   = "server.room_info"
	TypeServerTxUpdate   = "server.tx_update"
	TypeServerError      = "server.error"
	TypeServerNotice     = "server.notice"
	TypeServerHeartbeat  = "server.heartbeat"
)

var (
	ErrOversized = errors.New("message exceeds size limit")
	ErrMalformed = errors.New("malformed envelope")
)

// Envelope is the one-per-frame wire message. Sig covers the canonical
// serialization of {type,id,ts,payload}; see signing.go.
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	TS      int64           `json:"ts"`
	Sig     string          `json:"sig,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses a frame into an envelope and validates the payload against
// the schema registered for its type. It never partially processes bad
// input: any failure returns a zero envelope.
func Decode(raw []byte) (Envelope, error) {
	if len(raw) > MaxMessageBytes {
		return Envelope{}, ErrOversized
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	if err := ValidatePayload(env.Type, env.Payload); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Encode builds an unsigned envelope around payload.
func Encode(msgType, id string, ts int64, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: msgType, ID: id, TS: ts, Payload: raw}, nil
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
