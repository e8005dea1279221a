package world

import (
	"encoding/json"

	"thestreet.dev/internal/geom"
	logdir "thestreet.dev/internal/persistence/log"
	"thestreet.dev/internal/protocol"
)

const (
	// Chat windows are centered on the speaker. Local is the 8x8 window:
	// a recipient is included when both |dx| and |dy| are under 4.
	localHalf = 4
	// Whisper is the 3x3 window: |dx| and |dy| at most 1.
	whisperReach = 1
)

func withinLocal(a, b geom.Position) bool {
	return absInt(a.X-b.X) < localHalf && absInt(a.Y-b.Y) < localHalf
}

func withinWhisper(a, b geom.Position) bool {
	return absInt(a.X-b.X) <= whisperReach && absInt(a.Y-b.Y) <= whisperReach
}

func (w *World) handleChat(c *client, u *User, raw json.RawMessage) {
	var payload protocol.ClientChat
	if err := json.Unmarshal(raw, &payload); err != nil {
		w.pushError(c, protocol.ErrInvalidCommand, "bad chat payload")
		return
	}
	scope := payload.Scope
	if scope == "" {
		scope = "local"
	}

	var recipients []string
	var roomID string
	switch scope {
	case "local":
		recipients = w.usersWithin(u, withinLocal)
	case "whisper":
		recipients = w.usersWithin(u, withinWhisper)
		if payload.Target != "" {
			targetID, ok := w.resolveUserID(payload.Target)
			if !ok || !contains(recipients, targetID) {
				w.pushNotice(c, "whisper target out of range")
				return
			}
			recipients = []string{targetID}
		}
	case "room":
		side, streetX, ok := geom.ParseRoomMapID(u.Position.MapID)
		if !ok {
			w.pushError(c, protocol.ErrInvalidCommand, "room chat only works inside a room")
			return
		}
		roomID = geom.RoomID(side, streetX)
		for otherID := range w.byMap[u.Position.MapID] {
			if otherID != u.UserID {
				recipients = append(recipients, otherID)
			}
		}
	default:
		w.pushError(c, protocol.ErrInvalidCommand, "unknown chat scope")
		return
	}

	msg := protocol.ServerChat{
		From:        u.UserID,
		DisplayName: u.DisplayName,
		Text:        payload.Text,
		Scope:       scope,
		RoomID:      roomID,
	}
	sent := 0
	for _, otherID := range recipients {
		if rc, ok := w.clients[otherID]; ok {
			w.push(rc, protocol.TypeServerChat, msg)
			sent++
		}
	}
	// The speaker sees their own line back, confirming delivery scope.
	w.push(c, protocol.TypeServerChat, msg)
	if sent == 0 && scope != "room" {
		w.pushNotice(c, "no one hears you")
	}

	if w.chat != nil {
		_ = w.chat.WriteChat(logdir.ChatEntry{
			TS:    nowMS(),
			From:  u.UserID,
			Scope: scope,
			MapID: u.Position.MapID,
			Chars: len(payload.Text),
			Sent:  sent,
		})
	}
}

// usersWithin collects connected same-map users passing the window check.
func (w *World) usersWithin(u *User, in func(a, b geom.Position) bool) []string {
	var out []string
	for otherID := range w.byMap[u.Position.MapID] {
		if otherID == u.UserID {
			continue
		}
		other := w.users[otherID]
		if other == nil || !in(u.Position, other.Position) {
			continue
		}
		out = append(out, otherID)
	}
	return out
}

// resolveUserID accepts a display name or a user id.
func (w *World) resolveUserID(target string) (string, bool) {
	if id, ok := w.usersByName[target]; ok {
		return id, true
	}
	if _, ok := w.users[target]; ok {
		return target, true
	}
	return "", false
}

func contains(list []string, v string) bool {
	for _, entry := range list {
		if entry == v {
			return true
		}
	}
	return false
}
