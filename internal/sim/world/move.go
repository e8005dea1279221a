package world

import (
	"encoding/json"

	"thestreet.dev/internal/geom"
	"thestreet.dev/internal/protocol"
)

func (w *World) handleMove(c *client, u *User, raw json.RawMessage) {
	var payload protocol.ClientMove
	if err := json.Unmarshal(raw, &payload); err != nil {
		w.pushError(c, protocol.ErrInvalidCommand, "bad move payload")
		return
	}
	dir, ok := geom.ParseDirection(payload.Dir)
	if !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "bad direction")
		return
	}

	next, kind := geom.TryMove(u.Position, dir)
	switch kind {
	case geom.MoveBlocked:
		w.pushError(c, protocol.ErrMoveBlocked, "blocked")
	case geom.MoveStep:
		u.Position = next
		w.gw.QueueSaveUser(userRecord(u))
		w.push(c, protocol.TypeServerState, protocol.ServerState{Position: u.Position})
		w.refreshNearbyForMap(u.Position.MapID)
	case geom.MoveTransition:
		w.applyTransition(c, u, next)
	}
}

// applyTransition moves a user across maps. Entering a room runs the
// owner's access policy first; a denial leaves the user where they stand.
func (w *World) applyTransition(c *client, u *User, next geom.Position) {
	if side, streetX, ok := geom.ParseRoomMapID(next.MapID); ok {
		room := w.getOrCreateRoom(geom.RoomID(side, streetX))
		if !room.AccessAllows(u.Pubkey) {
			w.pushError(c, protocol.ErrRoomAccessDenied, "the door does not open")
			return
		}
	}

	from := u.Position.MapID
	w.mapRemove(from, u.UserID)
	u.Position = next
	w.mapAdd(next.MapID, u.UserID)
	delete(w.boarding, u.UserID)
	w.gw.QueueSaveUser(userRecord(u))

	w.push(c, protocol.TypeServerMapChange, protocol.ServerMapChange{MapID: next.MapID, Position: next})
	if side, streetX, ok := geom.ParseRoomMapID(next.MapID); ok {
		w.pushRoomInfo(c, w.getOrCreateRoom(geom.RoomID(side, streetX)))
	}
	w.refreshNearbyForMap(from)
	w.refreshNearbyForMap(next.MapID)
}

// nearbyRadius is the street visibility window for server.nearby; enclosed
// maps always show every occupant.
const nearbyRadius = 16

func (w *World) refreshNearbyForMap(mapID string) {
	for userID := range w.byMap[mapID] {
		c, ok := w.clients[userID]
		if !ok {
			continue
		}
		u := w.users[userID]
		if u == nil {
			continue
		}
		w.push(c, protocol.TypeServerNearby, protocol.ServerNearby{Users: w.nearbyFor(u)})
	}
}

func (w *World) nearbyFor(u *User) []protocol.NearbyUser {
	out := []protocol.NearbyUser{}
	for otherID := range w.byMap[u.Position.MapID] {
		if otherID == u.UserID {
			continue
		}
		other := w.users[otherID]
		if other == nil {
			continue
		}
		if u.Position.MapID == geom.StreetMapID && chebyshev(u.Position, other.Position) >= nearbyRadius {
			continue
		}
		out = append(out, protocol.NearbyUser{
			ID:          other.UserID,
			DisplayName: other.DisplayName,
			X:           other.Position.X,
			Y:           other.Position.Y,
		})
	}
	return out
}

func chebyshev(a, b geom.Position) int {
	dx := absInt(a.X - b.X)
	dy := absInt(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
