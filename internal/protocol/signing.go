package protocol

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// SigningBytes returns the canonical bytes covered by an envelope
// signature: the JSON serialization of {type,id,ts,payload} with every
// object's keys sorted and no insignificant whitespace. Round-tripping the
// payload through a map gives both properties, since encoding/json emits
// map keys in sorted order.
func SigningBytes(env Envelope) ([]byte, error) {
	var payload any
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	return json.Marshal(map[string]any{
		"type":    env.Type,
		"id":      env.ID,
		"ts":      env.TS,
		"payload": payload,
	})
}

// Sign fills in env.Sig with the base64 ed25519 signature of the canonical
// bytes.
func Sign(env Envelope, key ed25519.PrivateKey) (Envelope, error) {
	msg, err := SigningBytes(env)
	if err != nil {
		return Envelope{}, err
	}
	env.Sig = base64.StdEncoding.EncodeToString(ed25519.Sign(key, msg))
	return env, nil
}

// Verify reports whether env carries a valid signature from pub. An absent
// or undecodable signature is a plain failure, never an error: callers
// reject the action either way.
func Verify(env Envelope, pub ed25519.PublicKey) bool {
	if env.Sig == "" {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(env.Sig)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	msg, err := SigningBytes(env)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

// DecodePublicKey parses a base64 ed25519 public key as carried in
// client.auth.
func DecodePublicKey(b64 string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.New("decode pubkey: wrong length")
	}
	return ed25519.PublicKey(raw), nil
}

// VerifyChallenge checks a detached signature over the exact challenge
// string issued for the connection.
func VerifyChallenge(pub ed25519.PublicKey, challenge, sigB64 string) bool {
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, []byte(challenge), sig)
}
