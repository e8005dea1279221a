package world

import (
	"encoding/json"
	"testing"

	"thestreet.dev/internal/geom"
	"thestreet.dev/internal/protocol"
)

func say(f *fixture, userID, scope, text, target string) {
	f.act(userID, protocol.TypeClientChat, protocol.ClientChat{Scope: scope, Text: text, Target: target})
}

func heard(t *testing.T, out chan []byte, text string) bool {
	t.Helper()
	for _, env := range drain(out) {
		if env.Type != protocol.TypeServerChat {
			continue
		}
		var payload protocol.ServerChat
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			t.Fatalf("chat payload: %v", err)
		}
		if payload.Text == text {
			return true
		}
	}
	return false
}

func TestChat_LocalWindow(t *testing.T) {
	f := newFixture(t)
	speaker, _ := f.join(t, "pk-speaker")
	near, nearOut := f.join(t, "pk-near")
	far, farOut := f.join(t, "pk-far")

	f.place(speaker, geom.Position{MapID: geom.StreetMapID, X: 10, Y: 3})
	f.place(near, geom.Position{MapID: geom.StreetMapID, X: 13, Y: 6})
	f.place(far, geom.Position{MapID: geom.StreetMapID, X: 15, Y: 3})
	drain(nearOut)
	drain(farOut)

	say(f, speaker, "local", "hey", "")
	if !heard(t, nearOut, "hey") {
		t.Fatal("dx=3,dy=3 should hear local chat")
	}
	if heard(t, farOut, "hey") {
		t.Fatal("dx=5 should not hear local chat")
	}
}

func TestChat_LocalDoesNotCrossMaps(t *testing.T) {
	f := newFixture(t)
	speaker, _ := f.join(t, "pk-speaker")
	other, otherOut := f.join(t, "pk-other")

	f.place(speaker, geom.Position{MapID: geom.StreetMapID, X: 10, Y: 3})
	f.place(other, geom.Position{MapID: "room/north:6", X: 10, Y: 3})
	drain(otherOut)

	say(f, speaker, "local", "hello?", "")
	if heard(t, otherOut, "hello?") {
		t.Fatal("chat leaked across maps")
	}
}

func TestChat_WhisperWindow(t *testing.T) {
	f := newFixture(t)
	speaker, _ := f.join(t, "pk-speaker")
	near, nearOut := f.join(t, "pk-near")
	far, farOut := f.join(t, "pk-far")

	f.place(speaker, geom.Position{MapID: geom.StreetMapID, X: 10, Y: 3})
	f.place(near, geom.Position{MapID: geom.StreetMapID, X: 11, Y: 4})
	f.place(far, geom.Position{MapID: geom.StreetMapID, X: 12, Y: 3})
	drain(nearOut)
	drain(farOut)

	say(f, speaker, "whisper", "psst", "")
	if !heard(t, nearOut, "psst") {
		t.Fatal("dx=1,dy=1 should hear a whisper")
	}
	if heard(t, farOut, "psst") {
		t.Fatal("dx=2 should not hear a whisper")
	}
}

func TestChat_WhisperTargetOutOfRange(t *testing.T) {
	f := newFixture(t)
	speaker, speakerOut := f.join(t, "pk-speaker")
	far, farOut := f.join(t, "pk-far")

	f.place(speaker, geom.Position{MapID: geom.StreetMapID, X: 10, Y: 3})
	f.place(far, geom.Position{MapID: geom.StreetMapID, X: 20, Y: 3})
	drain(speakerOut)
	drain(farOut)

	say(f, speaker, "whisper", "psst", far)
	if heard(t, farOut, "psst") {
		t.Fatal("out-of-range target received whisper")
	}
	if _, ok := lastOfType(drain(speakerOut), protocol.TypeServerNotice); !ok {
		t.Fatal("speaker not told the target is out of range")
	}
}

func TestChat_RoomScope(t *testing.T) {
	f := newFixture(t)
	speaker, speakerOut := f.join(t, "pk-speaker")
	corner, cornerOut := f.join(t, "pk-corner")

	f.place(speaker, geom.Position{MapID: "room/north:6", X: 2, Y: 2})
	f.place(corner, geom.Position{MapID: "room/north:6", X: 30, Y: 14})
	drain(cornerOut)

	say(f, speaker, "room", "meeting time", "")
	if !heard(t, cornerOut, "meeting time") {
		t.Fatal("room chat should reach every occupant")
	}

	// Room scope needs a room.
	f.place(speaker, geom.Position{MapID: geom.StreetMapID, X: 5, Y: 5})
	drain(speakerOut)
	say(f, speaker, "room", "anyone?", "")
	wantError(t, speakerOut, protocol.ErrInvalidCommand)
}

func TestChat_DefaultScopeIsLocal(t *testing.T) {
	f := newFixture(t)
	speaker, _ := f.join(t, "pk-speaker")
	near, nearOut := f.join(t, "pk-near")
	f.place(speaker, geom.Position{MapID: geom.StreetMapID, X: 10, Y: 3})
	f.place(near, geom.Position{MapID: geom.StreetMapID, X: 11, Y: 3})
	drain(nearOut)

	say(f, speaker, "", "yo", "")
	if !heard(t, nearOut, "yo") {
		t.Fatal("scopeless chat should default to local")
	}
}
