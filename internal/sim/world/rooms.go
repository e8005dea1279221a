package world

import (
	"encoding/json"
	"regexp"
	"strings"

	"thestreet.dev/internal/economy"
	"thestreet.dev/internal/geom"
	"thestreet.dev/internal/protocol"
)

// getOrCreateRoom materializes a room on first reference. New rooms are
// unowned, for sale at the configured price, open to everyone.
func (w *World) getOrCreateRoom(roomID string) *Room {
	if room, ok := w.rooms[roomID]; ok {
		return room
	}
	room := &Room{
		RoomID:  roomID,
		Price:   w.cfg.RoomPrice,
		ForSale: true,
		Access:  AccessPolicy{Mode: AccessOpen},
	}
	w.rooms[roomID] = room
	return room
}

// currentRoom resolves the room the user is standing in.
func (w *World) currentRoom(u *User) (*Room, bool) {
	side, streetX, ok := geom.ParseRoomMapID(u.Position.MapID)
	if !ok {
		return nil, false
	}
	return w.getOrCreateRoom(geom.RoomID(side, streetX)), true
}

// cmdBuy purchases the room the actor is standing in. The funds move
// first; ownership commits only after the durable write succeeds, and the
// whole path runs on the world goroutine, so two buyers on the same room
// are resolved strictly in arrival order.
func (w *World) cmdBuy(c *client, u *User) {
	room, ok := w.currentRoom(u)
	if !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "stand inside the room you want to buy")
		return
	}
	if !room.ForSale {
		w.pushError(c, protocol.ErrRoomAccessDenied, "room is not for sale")
		return
	}
	if room.OwnerPubkey == u.Pubkey {
		w.pushError(c, protocol.ErrInvalidCommand, "you already own this room")
		return
	}

	res, err := w.transferRoomPrice(u, room)
	if err != nil {
		w.pushEconomyError(c, err)
		return
	}

	prevOwner, prevForSale := room.OwnerPubkey, room.ForSale
	room.OwnerPubkey = u.Pubkey
	room.ForSale = false
	if err := w.gw.SaveRoom(roomRecord(room)); err != nil {
		room.OwnerPubkey = prevOwner
		room.ForSale = prevForSale
		if w.log != nil {
			w.log.Printf("buy %s: durable write failed: %v", room.RoomID, err)
		}
		w.pushError(c, protocol.ErrWalletError, "purchase could not be recorded")
		return
	}

	w.recordTx(u, "buy", room.RoomID, w.roomPayee(prevOwner), res)
	w.pushNotice(c, "you bought "+room.RoomID+" for "+room.Price)
	w.broadcastRoomInfo(room)
}

func (w *World) transferRoomPrice(u *User, room *Room) (economy.TransferResult, error) {
	if room.OwnerPubkey != "" {
		return w.econ.TransferWithFee(u.Pubkey, room.OwnerPubkey, room.Price)
	}
	return w.econ.PayToDev(u.Pubkey, room.Price)
}

func (w *World) roomPayee(prevOwner string) string {
	if prevOwner != "" {
		return prevOwner
	}
	return w.econ.DevPubkey
}

var namePattern = regexp.MustCompile(`^[a-z0-9_]{1,16}$`)

// cmdClaimName charges the username fee for a globally unique display
// name. Uniqueness is checked before any funds move, so a losing claim
// costs nothing.
func (w *World) cmdClaimName(c *client, u *User, args []string) {
	if len(args) != 1 || !namePattern.MatchString(args[0]) {
		w.pushError(c, protocol.ErrInvalidCommand, "usage: /claim_name <a-z0-9_ up to 16>")
		return
	}
	name := args[0]
	if holder, taken := w.usersByName[name]; taken {
		if holder == u.UserID {
			w.pushNotice(c, "that is already your name")
		} else {
			w.pushError(c, protocol.ErrInvalidCommand, "name already claimed")
		}
		return
	}

	res, err := w.econ.PayToDev(u.Pubkey, w.cfg.UsernameFee)
	if err != nil {
		w.pushEconomyError(c, err)
		return
	}

	prevName := u.DisplayName
	u.DisplayName = name
	if err := w.gw.SaveUser(userRecord(u)); err != nil {
		u.DisplayName = prevName
		if w.log != nil {
			w.log.Printf("claim_name %s: durable write failed: %v", name, err)
		}
		w.pushError(c, protocol.ErrWalletError, "claim could not be recorded")
		return
	}
	if prevName != "" {
		delete(w.usersByName, prevName)
	}
	w.usersByName[name] = u.UserID

	w.recordTx(u, "claim_name", "", w.econ.DevPubkey, res)
	w.pushNotice(c, "you are now known as "+name)
	w.refreshNearbyForMap(u.Position.MapID)
}

// handleAccessUpdate applies a signed room_access_update message. Only the
// owner may change policy; they need not be inside the room.
func (w *World) handleAccessUpdate(c *client, u *User, raw json.RawMessage) {
	var payload protocol.ClientRoomAccessUpdate
	if err := json.Unmarshal(raw, &payload); err != nil {
		w.pushError(c, protocol.ErrInvalidCommand, "bad access payload")
		return
	}
	if _, _, ok := geom.ParseRoomID(payload.RoomID); !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "bad room id")
		return
	}
	w.applyAccess(c, u, w.getOrCreateRoom(payload.RoomID), payload.Mode, payload.List)
}

// cmdAccess is the in-room form of the same policy change.
func (w *World) cmdAccess(c *client, u *User, args []string) {
	room, ok := w.currentRoom(u)
	if !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "not in a room")
		return
	}
	if len(args) == 0 {
		w.pushError(c, protocol.ErrInvalidCommand, "usage: /access <show|open|whitelist|blacklist> [users...]")
		return
	}
	// Anyone in the room may inspect the policy; changing it is owner-only.
	if args[0] == "show" {
		w.pushRoomInfo(c, room)
		return
	}
	w.applyAccess(c, u, room, args[0], args[1:])
}

func (w *World) applyAccess(c *client, u *User, room *Room, modeArg string, list []string) {
	if room.OwnerPubkey == "" || room.OwnerPubkey != u.Pubkey {
		w.pushError(c, protocol.ErrRoomAccessDenied, "only the owner can change access")
		return
	}
	mode, ok := ParseAccessMode(modeArg)
	if !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "mode must be open, whitelist or blacklist")
		return
	}

	resolved := make([]string, 0, len(list))
	for _, entry := range list {
		resolved = append(resolved, w.resolvePubkey(entry))
	}
	prev := room.Access
	room.Access = AccessPolicy{Mode: mode, List: resolved}
	if err := w.gw.SaveRoom(roomRecord(room)); err != nil {
		room.Access = prev
		w.pushError(c, protocol.ErrWalletError, "access change could not be recorded")
		return
	}
	w.pushNotice(c, "access policy updated")
	w.broadcastRoomInfo(room)
}

// isAtCustomizer requires standing on a tile adjacent to the room's
// customizer fixture.
func isAtCustomizer(u *User) bool {
	if _, _, ok := geom.ParseRoomMapID(u.Position.MapID); !ok {
		return false
	}
	cx, cy := geom.CustomizerPos()
	return absInt(u.Position.X-cx) <= 1 && absInt(u.Position.Y-cy) <= 1
}

func (w *World) cmdRoomName(c *client, u *User, args []string) {
	room, ok := w.ownedRoomAtCustomizer(c, u)
	if !ok {
		return
	}
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" || len(name) > 32 {
		w.pushError(c, protocol.ErrInvalidCommand, "usage: /room_name <up to 32 chars>")
		return
	}
	room.DisplayName = name
	w.gw.QueueSaveRoom(roomRecord(room))
	w.pushNotice(c, "room renamed")
	w.broadcastRoomInfo(room)
}

var doorColors = map[string]bool{
	"red": true, "green": true, "blue": true, "yellow": true,
	"magenta": true, "cyan": true, "white": true, "gray": true,
}

func (w *World) cmdDoorColor(c *client, u *User, args []string) {
	room, ok := w.ownedRoomAtCustomizer(c, u)
	if !ok {
		return
	}
	if len(args) != 1 || !doorColors[args[0]] {
		w.pushError(c, protocol.ErrInvalidCommand, "usage: /door_color <red|green|blue|yellow|magenta|cyan|white|gray>")
		return
	}
	room.DoorColor = args[0]
	w.gw.QueueSaveRoom(roomRecord(room))
	w.pushNotice(c, "door repainted")
	w.broadcastRoomInfo(room)
}

func (w *World) ownedRoomAtCustomizer(c *client, u *User) (*Room, bool) {
	room, ok := w.currentRoom(u)
	if !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "not in a room")
		return nil, false
	}
	if room.OwnerPubkey == "" || room.OwnerPubkey != u.Pubkey {
		w.pushError(c, protocol.ErrRoomAccessDenied, "only the owner can customize")
		return nil, false
	}
	if !isAtCustomizer(u) {
		w.pushError(c, protocol.ErrInvalidCommand, "stand next to the customizer")
		return nil, false
	}
	return room, true
}

func (w *World) cmdRoomInfo(c *client, u *User) {
	room, ok := w.currentRoom(u)
	if !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "not in a room")
		return
	}
	w.pushRoomInfo(c, room)
}

func (w *World) pushRoomInfo(c *client, room *Room) {
	w.push(c, protocol.TypeServerRoomInfo, roomInfoPayload(room))
}

func (w *World) broadcastRoomInfo(room *Room) {
	payload := roomInfoPayload(room)
	for userID := range w.byMap[geom.RoomMapID(room.RoomID)] {
		if rc, ok := w.clients[userID]; ok {
			w.push(rc, protocol.TypeServerRoomInfo, payload)
		}
	}
}

func roomInfoPayload(room *Room) protocol.ServerRoomInfo {
	return protocol.ServerRoomInfo{
		RoomID:  room.RoomID,
		Owner:   room.OwnerPubkey,
		Price:   room.Price,
		ForSale: room.ForSale,
		Access: protocol.AccessPolicy{
			Mode: string(room.Access.Mode),
			List: room.Access.List,
		},
		DisplayName: room.DisplayName,
		DoorColor:   room.DoorColor,
	}
}
