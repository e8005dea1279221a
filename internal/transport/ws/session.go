package ws

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"thestreet.dev/internal/protocol"
	"thestreet.dev/internal/sim/world"
)

type sessionState int

const (
	stateConnecting sessionState = iota
	stateHelloSent
	stateAuthPending
	stateAuthenticated
	stateActive
	stateClosed
)

const outboxSize = 256

type session struct {
	srv  *Server
	conn *websocket.Conn

	sessionID string
	challenge string
	state     sessionState

	pubkey ed25519.PublicKey
	userID string

	out  chan []byte
	done chan struct{}

	mu         sync.Mutex
	heartbeat  string // nonce awaiting echo, empty when answered
	lastAnswer time.Time
}

func newSession(srv *Server, conn *websocket.Conn) *session {
	return &session{
		srv:        srv,
		conn:       conn,
		sessionID:  "s_" + uuid.NewString(),
		state:      stateConnecting,
		out:        make(chan []byte, outboxSize),
		done:       make(chan struct{}),
		lastAnswer: time.Now(),
	}
}

func (s *session) run() {
	defer s.close()

	s.conn.SetReadLimit(protocol.MaxMessageBytes)
	go s.writeLoop()
	go s.heartbeatLoop()

	if err := s.sendHello(); err != nil {
		return
	}
	s.state = stateAuthPending

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.Decode(raw)
		if err != nil {
			// Oversized frames are connection-fatal; anything else is
			// dropped with an error so the client can correct itself.
			if errors.Is(err, protocol.ErrOversized) {
				return
			}
			s.sendError(protocol.ErrInvalidCommand, "malformed message")
			continue
		}
		if !s.handle(env) {
			return
		}
	}
}

// handle runs one envelope through the session state machine. A false
// return closes the connection.
func (s *session) handle(env protocol.Envelope) bool {
	switch s.state {
	case stateAuthPending:
		return s.handleAuth(env)
	case stateActive:
		return s.handleActive(env)
	default:
		return false
	}
}

func (s *session) handleAuth(env protocol.Envelope) bool {
	if env.Type != protocol.TypeClientAuth {
		s.sendError(protocol.ErrAuthFailed, "authenticate first")
		return true
	}
	var payload protocol.ClientAuth
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		s.sendError(protocol.ErrAuthFailed, "bad auth payload")
		return true
	}
	pub, err := protocol.DecodePublicKey(payload.Pubkey)
	if err != nil {
		s.sendError(protocol.ErrAuthFailed, "bad pubkey")
		return true
	}
	if !protocol.VerifyChallenge(pub, s.challenge, payload.ChallengeSig) {
		// The session stays open; the client may retry against the same
		// challenge.
		s.sendError(protocol.ErrInvalidSignature, "challenge signature does not verify")
		return true
	}
	s.state = stateAuthenticated

	resp := make(chan world.JoinResult, 1)
	s.srv.world.Join(world.JoinRequest{
		Pubkey:    payload.Pubkey,
		SessionID: s.sessionID,
		Out:       s.out,
		Resp:      resp,
	})
	res := <-resp
	if !res.OK {
		s.sendError(res.Code, res.Message)
		return false
	}
	s.pubkey = pub
	s.userID = res.UserID
	s.state = stateActive
	s.srv.log.Printf("session %s authenticated as %s", s.sessionID, res.UserID)
	return true
}

func (s *session) handleActive(env protocol.Envelope) bool {
	switch env.Type {
	case protocol.TypeClientHeartbeat:
		s.handleHeartbeatEcho(env)
		return true
	case protocol.TypeClientAuth:
		s.sendError(protocol.ErrAuthFailed, "already authenticated")
		return true
	case protocol.TypeClientMove, protocol.TypeClientChat,
		protocol.TypeClientCommand, protocol.TypeClientRoomAccessUpdate:
		// Every state-changing action must be signed by the session key.
		if !protocol.Verify(env, s.pubkey) {
			s.sendError(protocol.ErrInvalidSignature, "signature does not verify")
			return true
		}
		s.srv.world.Submit(s.userID, env)
		return true
	default:
		s.sendError(protocol.ErrInvalidCommand, "unknown message type")
		return true
	}
}

func (s *session) handleHeartbeatEcho(env protocol.Envelope) {
	var payload protocol.ClientHeartbeat
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heartbeat != "" && payload.Nonce == s.heartbeat {
		s.heartbeat = ""
		s.lastAnswer = time.Now()
	}
}

// heartbeatLoop issues nonces and evicts sessions that stop echoing.
func (s *session) heartbeatLoop() {
	interval := time.Duration(s.srv.cfg.Heartbeat.IntervalSeconds) * time.Second
	timeout := time.Duration(s.srv.cfg.Heartbeat.TimeoutSeconds) * time.Second
	if interval <= 0 || timeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			stale := time.Since(s.lastAnswer) > timeout
			nonce := uuid.NewString()
			s.heartbeat = nonce
			s.mu.Unlock()
			if stale {
				s.srv.log.Printf("session %s heartbeat timeout", s.sessionID)
				_ = s.conn.Close()
				return
			}
			s.send(protocol.TypeServerHeartbeat, protocol.ServerHeartbeat{Nonce: nonce})
		}
	}
}

func (s *session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case raw := <-s.out:
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}

func (s *session) sendHello() error {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	s.challenge = base64.StdEncoding.EncodeToString(nonce)
	s.state = stateHelloSent
	s.send(protocol.TypeServerHello, protocol.ServerHello{
		ServerVersion: s.srv.cfg.ServerVersion,
		Challenge:     s.challenge,
		FeeConfig: protocol.DevFeeConfig{
			Mode:  s.srv.cfg.Fee.Mode,
			Value: s.srv.cfg.Fee.Value,
		},
		RoomPrice:   s.srv.cfg.RoomPrice,
		UsernameFee: s.srv.cfg.UsernameFee,
	})
	return nil
}

func (s *session) send(msgType string, payload any) {
	env, err := protocol.Encode(msgType, uuid.NewString(), time.Now().UnixMilli(), payload)
	if err != nil {
		return
	}
	raw, err := env.Marshal()
	if err != nil {
		return
	}
	select {
	case s.out <- raw:
	default:
	}
}

func (s *session) sendError(code, message string) {
	s.send(protocol.TypeServerError, protocol.ServerError{Code: code, Message: message})
}

func (s *session) close() {
	if s.state == stateClosed {
		return
	}
	s.state = stateClosed
	close(s.done)
	if s.userID != "" {
		s.srv.world.Leave(s.userID)
	}
	_ = s.conn.Close()
}
