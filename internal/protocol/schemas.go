package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// payloadSchemas maps client message types to their compiled schema.
// Server-emitted types are not validated on decode; the relay only decodes
// client traffic.
var payloadSchemas map[string]*jsonschema.Schema

var schemaFiles = map[string]string{
	TypeClientAuth:             "client_auth.schema.json",
	TypeClientMove:             "client_move.schema.json",
	TypeClientChat:             "client_chat.schema.json",
	TypeClientCommand:          "client_command.schema.json",
	TypeClientRoomAccessUpdate: "client_room_access_update.schema.json",
	TypeClientHeartbeat:        "client_heartbeat.schema.json",
}

func init() {
	compiler := jsonschema.NewCompiler()
	payloadSchemas = make(map[string]*jsonschema.Schema, len(schemaFiles))
	for msgType, name := range schemaFiles {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			panic(fmt.Sprintf("protocol: read schema %s: %v", name, err))
		}
		if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
			panic(fmt.Sprintf("protocol: add schema %s: %v", name, err))
		}
		s, err := compiler.Compile(name)
		if err != nil {
			panic(fmt.Sprintf("protocol: compile schema %s: %v", name, err))
		}
		payloadSchemas[msgType] = s
	}
}

// ValidatePayload checks raw against the schema for msgType. Types without
// a registered schema (all server.* types) pass through.
func ValidatePayload(msgType string, raw json.RawMessage) error {
	s, ok := payloadSchemas[msgType]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformed, msgType, err)
	}
	return nil
}
