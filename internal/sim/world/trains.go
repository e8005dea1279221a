package world

import (
	"math"

	"thestreet.dev/internal/geom"
	"thestreet.dev/internal/protocol"
)

// trainStateBroadcastTicks throttles server.train_state to every other
// world tick.
const trainStateBroadcastTicks = 2

type trainUpdate struct {
	id        int
	prev      float64
	next      float64
	clockwise bool
}

// tickTrains advances the ring, resolves boardings and arrivals, and
// periodically broadcasts train positions.
func (w *World) tickTrains(dt float64) {
	circumference := float64(geom.StreetCircumference)
	updates := make([]trainUpdate, 0, len(w.trains))
	for _, t := range w.trains {
		prev := t.X
		dir := 1.0
		if !t.Clockwise {
			dir = -1.0
		}
		t.X = wrapRing(t.X+t.Speed*dir*dt, circumference)
		updates = append(updates, trainUpdate{id: t.ID, prev: prev, next: t.X, clockwise: t.Clockwise})
	}

	w.resolveBoarding(updates)
	w.resolveRiders(updates)

	if w.tick%trainStateBroadcastTicks == 0 {
		w.broadcastTrainState()
	}
}

// wrapRing keeps an offset in [0, c) regardless of sign.
func wrapRing(x, c float64) float64 {
	m := math.Mod(x, c)
	if m < 0 {
		m += c
	}
	return m
}

// resolveBoarding moves waiting users onto the first train sweeping past
// their platform. A request goes stale when the user leaves the station.
func (w *World) resolveBoarding(updates []trainUpdate) {
	for userID, req := range w.boarding {
		if _, riding := w.riders[userID]; riding {
			delete(w.boarding, userID)
			continue
		}
		u := w.users[userID]
		if u == nil {
			delete(w.boarding, userID)
			continue
		}
		if stationX, ok := geom.ParseStationMapID(u.Position.MapID); !ok || stationX != req.stationX {
			delete(w.boarding, userID)
			continue
		}

		station := float64(req.stationX)
		for _, up := range updates {
			if !stationPassed(up.prev, up.next, station, up.clockwise) {
				continue
			}
			w.riders[userID] = trainRide{trainID: up.id, destinationX: req.destinationX}
			w.placeUser(u, geom.Position{
				MapID: geom.TrainMapID(up.id),
				X:     geom.TrainWidth / 2,
				Y:     geom.TrainHeight / 2,
			}, "boarded train")
			delete(w.boarding, userID)
			break
		}
	}
}

// resolveRiders disembarks anyone whose train just passed their
// destination station.
func (w *World) resolveRiders(updates []trainUpdate) {
	for userID, ride := range w.riders {
		var up *trainUpdate
		for i := range updates {
			if updates[i].id == ride.trainID {
				up = &updates[i]
				break
			}
		}
		if up == nil {
			continue
		}
		u := w.users[userID]
		if u == nil || u.Position.MapID != geom.TrainMapID(ride.trainID) {
			delete(w.riders, userID)
			continue
		}
		if !stationPassed(up.prev, up.next, float64(ride.destinationX), up.clockwise) {
			continue
		}
		sx, sy := geom.StationEntryPos()
		w.placeUser(u, geom.Position{MapID: geom.StationMapID(ride.destinationX), X: sx, Y: sy}, "disembarked train")
		delete(w.riders, userID)
	}
}

// placeUser teleports a user across maps during train handling.
func (w *World) placeUser(u *User, next geom.Position, noticeText string) {
	from := u.Position.MapID
	w.mapRemove(from, u.UserID)
	u.Position = next
	w.mapAdd(next.MapID, u.UserID)
	w.gw.QueueSaveUser(userRecord(u))

	if c, ok := w.clients[u.UserID]; ok {
		w.push(c, protocol.TypeServerMapChange, protocol.ServerMapChange{MapID: next.MapID, Position: next})
		w.pushNotice(c, noticeText)
	}
	w.refreshNearbyForMap(from)
	w.refreshNearbyForMap(next.MapID)
}

// stationPassed reports whether a train's sweep this tick crossed the
// station offset, handling the wrap at the ring seam.
func stationPassed(prev, next, station float64, clockwise bool) bool {
	if math.Abs(prev-next) < 1e-12 {
		return false
	}
	if clockwise {
		if prev <= next {
			return station >= prev && station <= next
		}
		return station >= prev || station <= next
	}
	if next <= prev {
		return station >= next && station <= prev
	}
	return station >= next || station <= prev
}

func (w *World) broadcastTrainState() {
	infos := make([]protocol.TrainInfo, 0, len(w.trains))
	for _, t := range w.trains {
		infos = append(infos, protocol.TrainInfo{ID: t.ID, X: t.X, Clockwise: t.Clockwise})
	}
	payload := protocol.ServerTrainState{Trains: infos}
	for userID, c := range w.clients {
		u := w.users[userID]
		if u == nil || !wantsTrainState(u.Position.MapID) {
			continue
		}
		w.push(c, protocol.TypeServerTrainState, payload)
	}
}

// wantsTrainState: street walkers, platform waiters and riders care where
// the trains are; room dwellers do not.
func wantsTrainState(mapID string) bool {
	if mapID == geom.StreetMapID {
		return true
	}
	if _, ok := geom.ParseStationMapID(mapID); ok {
		return true
	}
	_, ok := geom.ParseTrainMapID(mapID)
	return ok
}
