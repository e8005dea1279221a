package world

import (
	"encoding/json"
	"testing"

	"thestreet.dev/internal/geom"
	"thestreet.dev/internal/protocol"
)

func TestBuy_FirstBuyerWins(t *testing.T) {
	f := newFixture(t)
	alice, aliceOut := f.join(t, "pk-alice")
	bob, bobOut := f.join(t, "pk-bob")
	f.mk.Credit("pk-alice", 10)
	f.mk.Credit("pk-bob", 10)

	f.place(alice, geom.Position{MapID: "room/north:6", X: 5, Y: 5})
	f.place(bob, geom.Position{MapID: "room/north:6", X: 6, Y: 5})
	drain(aliceOut)
	drain(bobOut)

	// Arrival order on the world loop decides the race.
	f.command(alice, "buy")
	f.command(bob, "buy")

	room := f.w.rooms["north:6"]
	if room.OwnerPubkey != "pk-alice" || room.ForSale {
		t.Fatalf("room = %+v", room)
	}
	wantError(t, bobOut, protocol.ErrRoomAccessDenied)

	if len(f.gw.rooms) != 1 {
		t.Fatalf("durable room writes = %d, want 1", len(f.gw.rooms))
	}
	rec := f.gw.rooms[0]
	if rec.OwnerPubkey != "pk-alice" || rec.ForSale {
		t.Fatalf("durable record = %+v", rec)
	}

	// Price 1.0 plus the 100 bps dev fee.
	alicBal, _ := f.mk.GetBalance("pk-alice")
	if alicBal != "8.99000000" {
		t.Fatalf("alice balance = %s", alicBal)
	}
	bobBal, _ := f.mk.GetBalance("pk-bob")
	if bobBal != "10.00000000" {
		t.Fatalf("bob charged on failed buy: %s", bobBal)
	}
}

func TestBuy_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	alice, out := f.join(t, "pk-alice")
	f.place(alice, geom.Position{MapID: "room/south:9", X: 5, Y: 5})
	drain(out)

	f.command(alice, "buy")
	wantError(t, out, protocol.ErrInsufficientFunds)
	if room := f.w.rooms["south:9"]; room.OwnerPubkey != "" || !room.ForSale {
		t.Fatalf("room mutated on failed transfer: %+v", room)
	}
}

func TestBuy_PersistFailureFailsClosed(t *testing.T) {
	f := newFixture(t)
	alice, out := f.join(t, "pk-alice")
	f.mk.Credit("pk-alice", 10)
	f.place(alice, geom.Position{MapID: "room/north:6", X: 5, Y: 5})
	drain(out)

	f.gw.failSaveRoom = true
	f.command(alice, "buy")
	wantError(t, out, protocol.ErrWalletError)
	if room := f.w.rooms["north:6"]; room.OwnerPubkey != "" || !room.ForSale {
		t.Fatalf("ownership committed without durable record: %+v", room)
	}
}

func TestBuy_Resale(t *testing.T) {
	f := newFixture(t)
	bob, out := f.join(t, "pk-bob")
	f.mk.Credit("pk-bob", 10)

	room := f.w.getOrCreateRoom("north:12")
	room.OwnerPubkey = "pk-alice"
	room.ForSale = true
	room.Price = "2.0"

	f.place(bob, geom.Position{MapID: "room/north:12", X: 5, Y: 5})
	drain(out)
	f.command(bob, "buy")

	if room.OwnerPubkey != "pk-bob" || room.ForSale {
		t.Fatalf("room = %+v", room)
	}
	// The 2.0 goes to the previous owner, not the dev wallet.
	prev, _ := f.mk.GetBalance("pk-alice")
	if prev != "2.00000000" {
		t.Fatalf("seller balance = %s", prev)
	}
}

func TestClaimName_SecondClaimNotCharged(t *testing.T) {
	f := newFixture(t)
	alice, aliceOut := f.join(t, "pk-alice")
	bob, bobOut := f.join(t, "pk-bob")
	f.mk.Credit("pk-alice", 5)
	f.mk.Credit("pk-bob", 5)
	drain(aliceOut)
	drain(bobOut)

	f.command(alice, "claim_name", "alice")
	if f.w.users[alice].DisplayName != "alice" {
		t.Fatal("claim did not apply")
	}

	f.command(bob, "claim_name", "alice")
	wantError(t, bobOut, protocol.ErrInvalidCommand)
	if f.w.users[bob].DisplayName != "" {
		t.Fatal("losing claim applied")
	}
	bal, _ := f.mk.GetBalance("pk-bob")
	if bal != "5.00000000" {
		t.Fatalf("losing claim charged a fee: %s", bal)
	}
}

func TestClaimName_BadName(t *testing.T) {
	f := newFixture(t)
	alice, out := f.join(t, "pk-alice")
	f.mk.Credit("pk-alice", 5)
	drain(out)

	f.command(alice, "claim_name", "Not Valid!")
	wantError(t, out, protocol.ErrInvalidCommand)
	bal, _ := f.mk.GetBalance("pk-alice")
	if bal != "5.00000000" {
		t.Fatalf("rejected claim charged a fee: %s", bal)
	}
}

func TestAccessUpdate_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	alice, aliceOut := f.join(t, "pk-alice")
	mallory, malloryOut := f.join(t, "pk-mallory")
	drain(aliceOut)
	drain(malloryOut)

	room := f.w.getOrCreateRoom("north:6")
	room.OwnerPubkey = "pk-alice"
	room.ForSale = false

	update := protocol.ClientRoomAccessUpdate{RoomID: "north:6", Mode: "whitelist", List: []string{"pk-friend"}}
	f.act(mallory, protocol.TypeClientRoomAccessUpdate, update)
	wantError(t, malloryOut, protocol.ErrRoomAccessDenied)
	if room.Access.Mode == AccessWhitelist {
		t.Fatal("non-owner changed access")
	}

	f.act(alice, protocol.TypeClientRoomAccessUpdate, update)
	if room.Access.Mode != AccessWhitelist || len(room.Access.List) != 1 {
		t.Fatalf("access = %+v", room.Access)
	}
	if !room.AccessAllows("pk-friend") || room.AccessAllows("pk-mallory") {
		t.Fatal("whitelist not enforced")
	}
	if !room.AccessAllows("pk-alice") {
		t.Fatal("owner locked out of own room")
	}
}

func TestAccessUpdate_ResolvesDisplayNames(t *testing.T) {
	f := newFixture(t)
	alice, _ := f.join(t, "pk-alice")
	bob, _ := f.join(t, "pk-bob")
	f.mk.Credit("pk-bob", 5)
	f.command(bob, "claim_name", "bob")

	room := f.w.getOrCreateRoom("north:6")
	room.OwnerPubkey = "pk-alice"
	f.act(alice, protocol.TypeClientRoomAccessUpdate, protocol.ClientRoomAccessUpdate{
		RoomID: "north:6", Mode: "whitelist", List: []string{"bob"},
	})
	if !room.AccessAllows("pk-bob") {
		t.Fatal("display name not resolved to pubkey")
	}
}

func TestCustomizerCommands(t *testing.T) {
	f := newFixture(t)
	alice, out := f.join(t, "pk-alice")
	room := f.w.getOrCreateRoom("north:6")
	room.OwnerPubkey = "pk-alice"
	room.ForSale = false

	// Away from the customizer: rejected.
	f.place(alice, geom.Position{MapID: "room/north:6", X: 5, Y: 5})
	drain(out)
	f.command(alice, "room_name", "den")
	wantError(t, out, protocol.ErrInvalidCommand)

	// Adjacent to the fixture at (31,1): accepted.
	f.place(alice, geom.Position{MapID: "room/north:6", X: 30, Y: 1})
	drain(out)
	f.command(alice, "room_name", "the", "den")
	if room.DisplayName != "the den" {
		t.Fatalf("room name = %q", room.DisplayName)
	}
	f.command(alice, "door_color", "cyan")
	if room.DoorColor != "cyan" {
		t.Fatalf("door color = %q", room.DoorColor)
	}
	f.command(alice, "door_color", "plaid")
	wantError(t, out, protocol.ErrInvalidCommand)
}

func TestWho_StreetUsesLocalWindow(t *testing.T) {
	f := newFixture(t)
	alice, out := f.join(t, "pk-alice")
	near, _ := f.join(t, "pk-near")
	far, _ := f.join(t, "pk-far")

	f.place(alice, geom.Position{MapID: geom.StreetMapID, X: 10, Y: 3})
	f.place(near, geom.Position{MapID: geom.StreetMapID, X: 12, Y: 3})
	f.place(far, geom.Position{MapID: geom.StreetMapID, X: 40, Y: 3})
	drain(out)

	f.command(alice, "who")
	env, ok := lastOfType(drain(out), protocol.TypeServerWho)
	if !ok {
		t.Fatal("no server.who")
	}
	var who protocol.ServerWho
	_ = json.Unmarshal(env.Payload, &who)
	if len(who.Users) != 1 || who.Users[0].ID != near {
		t.Fatalf("who = %+v", who.Users)
	}
}

func TestRoomInfo(t *testing.T) {
	f := newFixture(t)
	alice, out := f.join(t, "pk-alice")
	f.place(alice, geom.Position{MapID: "room/south:9", X: 5, Y: 5})
	drain(out)

	f.command(alice, "room_info")
	env, ok := lastOfType(drain(out), protocol.TypeServerRoomInfo)
	if !ok {
		t.Fatal("no server.room_info")
	}
	var info protocol.ServerRoomInfo
	_ = json.Unmarshal(env.Payload, &info)
	if info.RoomID != "south:9" || !info.ForSale || info.Price != "1.0" {
		t.Fatalf("info = %+v", info)
	}
}
