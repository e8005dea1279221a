// Package world is the authoritative state store. A single goroutine owns
// every user, room and train; sessions talk to it through channels, so
// competing mutations on the same entity are serialized by construction.
package world

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"thestreet.dev/internal/economy"
	"thestreet.dev/internal/geom"
	logdir "thestreet.dev/internal/persistence/log"
	"thestreet.dev/internal/persistence/store"
	"thestreet.dev/internal/protocol"
	"thestreet.dev/internal/tuning"
)

// Gateway is the durable-write surface the world needs. Ownership and
// identity writes are barriers; position churn is queued best-effort.
type Gateway interface {
	SaveUser(store.UserRecord) error
	QueueSaveUser(store.UserRecord)
	SaveRoom(store.RoomRecord) error
	QueueSaveRoom(store.RoomRecord)
	AppendTransaction(store.TxRecord) error
	QueueUpdateTransaction(store.TxRecord)
}

// Faucet is the dev-mode credit hook. Nil disables /faucet and the starter
// credit for new users.
type Faucet interface {
	Credit(pubkey string, amount float64)
}

type ChatSink interface {
	WriteChat(logdir.ChatEntry) error
}

type AuditSink interface {
	WriteAudit(logdir.AuditEntry) error
}

type Deps struct {
	Cfg     tuning.Config
	Log     *log.Logger
	Economy *economy.Service
	Store   Gateway
	Faucet  Faucet
	Chat    ChatSink  // optional
	Audit   AuditSink // optional
}

type client struct {
	UserID string
	Out    chan []byte
}

// JoinRequest is sent by the transport once a session is authenticated.
// The world emits server.welcome itself so it always precedes state
// traffic on the outbox.
type JoinRequest struct {
	Pubkey    string
	SessionID string
	Out       chan []byte
	Resp      chan JoinResult
}

type JoinResult struct {
	OK          bool
	Code        string
	Message     string
	UserID      string
	DisplayName string
	Position    geom.Position
}

type action struct {
	UserID string
	Env    protocol.Envelope
}

type World struct {
	cfg   tuning.Config
	log   *log.Logger
	econ  *economy.Service
	gw    Gateway
	tap   Faucet
	chat  ChatSink
	audit AuditSink

	users         map[string]*User            // user_id -> user
	usersByPubkey map[string]string           // pubkey -> user_id
	usersByName   map[string]string           // display_name -> user_id
	rooms         map[string]*Room            // room_id -> room
	clients       map[string]*client          // user_id -> connected session
	byMap         map[string]map[string]bool  // map_id -> connected user_ids
	trains        []*Train
	boarding      map[string]boardingRequest // user_id -> request
	riders        map[string]trainRide       // user_id -> ride
	pending       map[string]*pendingTx      // tx_id -> pending transaction
	rate          map[string]*rateState

	inbox chan action
	join  chan JoinRequest
	leave chan string

	tick uint64
}

func New(d Deps) *World {
	w := &World{
		cfg:           d.Cfg,
		log:           d.Log,
		econ:          d.Economy,
		gw:            d.Store,
		tap:           d.Faucet,
		chat:          d.Chat,
		audit:         d.Audit,
		users:         make(map[string]*User),
		usersByPubkey: make(map[string]string),
		usersByName:   make(map[string]string),
		rooms:         make(map[string]*Room),
		clients:       make(map[string]*client),
		byMap:         make(map[string]map[string]bool),
		boarding:      make(map[string]boardingRequest),
		riders:        make(map[string]trainRide),
		pending:       make(map[string]*pendingTx),
		rate:          make(map[string]*rateState),
		inbox:         make(chan action, 1024),
		join:          make(chan JoinRequest, 16),
		leave:         make(chan string, 64),
	}
	anchors := geom.StationAnchors()
	for i := 0; i < geom.StationCount; i++ {
		w.trains = append(w.trains, &Train{
			ID:        i,
			X:         float64(anchors[i]),
			Speed:     d.Cfg.TrainSpeed,
			Clockwise: i%2 == 0,
		})
	}
	return w
}

// Restore loads the durable snapshot. Call before Run.
func (w *World) Restore(users []store.UserRecord, rooms []store.RoomRecord) {
	for _, rec := range users {
		u := &User{
			UserID:      rec.UserID,
			Pubkey:      rec.Pubkey,
			DisplayName: rec.DisplayName,
			Position:    geom.Position{MapID: rec.MapID, X: rec.X, Y: rec.Y},
			LastSeen:    rec.LastSeen,
		}
		w.users[u.UserID] = u
		w.usersByPubkey[u.Pubkey] = u.UserID
		if u.DisplayName != "" {
			w.usersByName[u.DisplayName] = u.UserID
		}
	}
	for _, rec := range rooms {
		mode, ok := ParseAccessMode(rec.AccessMode)
		if !ok {
			mode = AccessOpen
		}
		w.rooms[rec.RoomID] = &Room{
			RoomID:      rec.RoomID,
			OwnerPubkey: rec.OwnerPubkey,
			Price:       rec.Price,
			ForSale:     rec.ForSale,
			Access:      AccessPolicy{Mode: mode, List: rec.AccessList},
			DisplayName: rec.DisplayName,
			DoorColor:   rec.DoorColor,
		}
	}
}

// Join hands an authenticated session to the world loop.
func (w *World) Join(req JoinRequest) { w.join <- req }

// Leave evicts a session. Safe to call more than once.
func (w *World) Leave(userID string) { w.leave <- userID }

// Submit queues a validated action for the world loop.
func (w *World) Submit(userID string, env protocol.Envelope) {
	w.inbox <- action{UserID: userID, Env: env}
}

// Run drives the world until ctx is canceled. All state access happens on
// this goroutine.
func (w *World) Run(ctx context.Context) {
	hz := w.cfg.TickRateHz
	if hz <= 0 {
		hz = 5
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			w.flushPositions()
			return
		case req := <-w.join:
			w.handleJoin(req)
		case userID := <-w.leave:
			w.handleLeave(userID)
		case act := <-w.inbox:
			w.handleAction(act.UserID, act.Env)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			w.tick++
			w.tickTrains(dt)
			w.pollPendingTxs()
		}
	}
}

func (w *World) handleJoin(req JoinRequest) {
	userID, known := w.usersByPubkey[req.Pubkey]
	if known {
		if _, connected := w.clients[userID]; connected {
			req.Resp <- JoinResult{OK: false, Code: protocol.ErrAlreadyConnected, Message: "pubkey already has an active session"}
			return
		}
	} else {
		u := &User{
			UserID:   "u_" + uuid.NewString(),
			Pubkey:   req.Pubkey,
			Position: spawnPosition(),
			LastSeen: nowMS(),
		}
		w.users[u.UserID] = u
		w.usersByPubkey[u.Pubkey] = u.UserID
		userID = u.UserID
		if w.tap != nil && w.cfg.StarterCredit > 0 {
			w.tap.Credit(u.Pubkey, w.cfg.StarterCredit)
		}
		w.gw.QueueSaveUser(userRecord(u))
	}

	u := w.users[userID]
	c := &client{UserID: userID, Out: req.Out}
	w.clients[userID] = c
	w.mapAdd(u.Position.MapID, userID)
	u.LastSeen = nowMS()

	req.Resp <- JoinResult{
		OK:          true,
		UserID:      userID,
		DisplayName: u.DisplayName,
		Position:    u.Position,
	}
	w.push(c, protocol.TypeServerWelcome, protocol.ServerWelcome{
		ClientID:    userID,
		DisplayName: u.DisplayName,
		Position:    u.Position,
		SessionID:   req.SessionID,
	})
	w.pushTrainState(c)
	w.refreshNearbyForMap(u.Position.MapID)
	if w.log != nil {
		w.log.Printf("join user=%s map=%s", userID, u.Position.MapID)
	}
}

func (w *World) handleLeave(userID string) {
	if _, ok := w.clients[userID]; !ok {
		return
	}
	delete(w.clients, userID)
	delete(w.boarding, userID)
	delete(w.riders, userID)
	delete(w.rate, userID)
	if u, ok := w.users[userID]; ok {
		w.mapRemove(u.Position.MapID, userID)
		u.LastSeen = nowMS()
		w.gw.QueueSaveUser(userRecord(u))
		w.refreshNearbyForMap(u.Position.MapID)
	}
	if w.log != nil {
		w.log.Printf("leave user=%s", userID)
	}
}

func (w *World) handleAction(userID string, env protocol.Envelope) {
	c, ok := w.clients[userID]
	if !ok {
		return
	}
	u := w.users[userID]
	if u == nil {
		return
	}
	u.LastSeen = nowMS()

	if !w.allow(userID, env.Type) {
		w.pushError(c, protocol.ErrRateLimited, "slow down")
		return
	}

	switch env.Type {
	case protocol.TypeClientMove:
		w.handleMove(c, u, env.Payload)
	case protocol.TypeClientChat:
		w.handleChat(c, u, env.Payload)
	case protocol.TypeClientCommand:
		w.handleCommand(c, u, env.Payload)
	case protocol.TypeClientRoomAccessUpdate:
		w.handleAccessUpdate(c, u, env.Payload)
	default:
		w.pushError(c, protocol.ErrInvalidCommand, "unknown action type")
	}
}

// flushPositions persists every connected user's position on shutdown.
func (w *World) flushPositions() {
	for userID := range w.clients {
		if u, ok := w.users[userID]; ok {
			w.gw.QueueSaveUser(userRecord(u))
		}
	}
}

func (w *World) mapAdd(mapID, userID string) {
	set := w.byMap[mapID]
	if set == nil {
		set = make(map[string]bool)
		w.byMap[mapID] = set
	}
	set[userID] = true
}

func (w *World) mapRemove(mapID, userID string) {
	set := w.byMap[mapID]
	if set == nil {
		return
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(w.byMap, mapID)
	}
}

func spawnPosition() geom.Position {
	return geom.Position{MapID: geom.StreetMapID, X: 0, Y: geom.StreetHeight/2 + 4}
}

func nowMS() int64 { return time.Now().UnixMilli() }

// push marshals and queues a message for one session. A full outbox drops
// the frame; the reader side notices via heartbeat if the session is dead.
func (w *World) push(c *client, msgType string, payload any) {
	env, err := protocol.Encode(msgType, uuid.NewString(), nowMS(), payload)
	if err != nil {
		if w.log != nil {
			w.log.Printf("encode %s: %v", msgType, err)
		}
		return
	}
	raw, err := env.Marshal()
	if err != nil {
		return
	}
	select {
	case c.Out <- raw:
	default:
	}
}

func (w *World) pushError(c *client, code, message string) {
	w.push(c, protocol.TypeServerError, protocol.ServerError{Code: code, Message: message})
}

func (w *World) pushNotice(c *client, text string) {
	w.push(c, protocol.TypeServerNotice, protocol.ServerNotice{Text: text})
}

func (w *World) pushTrainState(c *client) {
	infos := make([]protocol.TrainInfo, 0, len(w.trains))
	for _, t := range w.trains {
		infos = append(infos, protocol.TrainInfo{ID: t.ID, X: t.X, Clockwise: t.Clockwise})
	}
	w.push(c, protocol.TypeServerTrainState, protocol.ServerTrainState{Trains: infos})
}
