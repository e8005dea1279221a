package geom

import "testing"

func TestStreetDoors_Periodic(t *testing.T) {
	cases := []struct {
		x    int
		y    int
		side Side
		want bool
	}{
		{0, 0, SideNorth, true},
		{6, 0, SideNorth, true},
		{-6, 0, SideNorth, true},
		{-12, 0, SideNorth, true},
		{3, 0, SideNorth, false},
		{3, StreetHeight - 1, SideSouth, true},
		{-3, StreetHeight - 1, SideSouth, true},
		{9, StreetHeight - 1, SideSouth, true},
		{0, StreetHeight - 1, SideSouth, false},
		{6, 5, SideNorth, false},
	}
	for _, c := range cases {
		side, ok := StreetDoorSide(c.x, c.y)
		if ok != c.want {
			t.Fatalf("StreetDoorSide(%d,%d) ok=%v want %v", c.x, c.y, ok, c.want)
		}
		if ok && side != c.side {
			t.Fatalf("StreetDoorSide(%d,%d) side=%v want %v", c.x, c.y, side, c.side)
		}
	}
}

func TestRoomID_PureAndDistinct(t *testing.T) {
	if RoomID(SideNorth, 12) != RoomID(SideNorth, 12) {
		t.Fatal("RoomID not stable")
	}
	if RoomID(SideNorth, 12) == RoomID(SideSouth, 12) {
		t.Fatal("north and south collide")
	}
	if RoomID(SideNorth, 12) == RoomID(SideNorth, 18) {
		t.Fatal("different x collide")
	}
	if got := RoomID(SideSouth, -3); got != "south:-3" {
		t.Fatalf("RoomID = %q", got)
	}
	side, x, ok := ParseRoomID("north:-6")
	if !ok || side != SideNorth || x != -6 {
		t.Fatalf("ParseRoomID = %v %d %v", side, x, ok)
	}
	if _, _, ok := ParseRoomID("east:4"); ok {
		t.Fatal("bad side accepted")
	}
}

func TestFloorMod_NegativeX(t *testing.T) {
	if FloorMod(-3, 6) != 3 {
		t.Fatalf("FloorMod(-3,6) = %d", FloorMod(-3, 6))
	}
	if FloorMod(-6, 6) != 0 {
		t.Fatalf("FloorMod(-6,6) = %d", FloorMod(-6, 6))
	}
	if FloorMod64(-1, StreetCircumference) != StreetCircumference-1 {
		t.Fatal("FloorMod64 wrap")
	}
}

func TestTryMove_StreetWallsAndFloor(t *testing.T) {
	pos := Position{MapID: StreetMapID, X: 10, Y: 1}
	next, kind := TryMove(pos, DirRight)
	if kind != MoveStep || next.X != 11 || next.Y != 1 {
		t.Fatalf("step right = %+v %v", next, kind)
	}
	// x=10 has no top door (10 mod 6 == 4): wall.
	if _, kind := TryMove(Position{MapID: StreetMapID, X: 10, Y: 1}, DirUp); kind != MoveBlocked {
		t.Fatalf("expected wall block, got %v", kind)
	}
}

func TestTryMove_DoorTransitions(t *testing.T) {
	// Step up into the north door at x=12.
	next, kind := TryMove(Position{MapID: StreetMapID, X: 12, Y: 1}, DirUp)
	if kind != MoveTransition {
		t.Fatalf("kind = %v", kind)
	}
	if next.MapID != "room/north:12" {
		t.Fatalf("map = %q", next.MapID)
	}
	ex, ey := RoomEntryPos(SideNorth)
	if next.X != ex || next.Y != ey {
		t.Fatalf("entry = (%d,%d)", next.X, next.Y)
	}

	// And back out through the room door.
	doorX, doorY := RoomDoorPos(SideNorth)
	back, kind := TryMove(Position{MapID: "room/north:12", X: doorX, Y: doorY - 1}, DirDown)
	if kind != MoveTransition || back.MapID != StreetMapID {
		t.Fatalf("exit = %+v %v", back, kind)
	}
	if back.X != 12 || back.Y != 1 {
		t.Fatalf("street entry = (%d,%d)", back.X, back.Y)
	}

	// Negative x south door.
	next, kind = TryMove(Position{MapID: StreetMapID, X: -3, Y: StreetHeight - 2}, DirDown)
	if kind != MoveTransition || next.MapID != "room/south:-3" {
		t.Fatalf("south door = %+v %v", next, kind)
	}
}

func TestTryMove_CustomizerBlocks(t *testing.T) {
	cx, cy := CustomizerPos()
	pos := Position{MapID: "room/north:0", X: cx - 1, Y: cy}
	if _, kind := TryMove(pos, DirRight); kind != MoveBlocked {
		t.Fatalf("customizer should block, got %v", kind)
	}
}

func TestTryMove_Station(t *testing.T) {
	// Street station door above the track at the north anchor.
	next, kind := TryMove(Position{MapID: StreetMapID, X: 0, Y: StationDoorY + 1}, DirUp)
	if kind != MoveTransition || next.MapID != "station/0" {
		t.Fatalf("station entry = %+v %v", next, kind)
	}

	// Station exit through the single bottom-center door.
	sx, sy := StationWidth/2, StationHeight-2
	back, kind := TryMove(Position{MapID: "station/0", X: sx, Y: sy}, DirDown)
	if kind != MoveTransition || back.MapID != StreetMapID || back.X != 0 {
		t.Fatalf("station exit = %+v %v", back, kind)
	}
	// Top wall has no door.
	if _, kind := TryMove(Position{MapID: "station/0", X: sx, Y: 1}, DirUp); kind != MoveBlocked {
		t.Fatal("station top wall should block")
	}
}

func TestTryMove_TrainHasNoDoor(t *testing.T) {
	for _, dir := range []Direction{DirUp, DirDown, DirLeft, DirRight} {
		edge := Position{MapID: "train/0", X: 1, Y: 1}
		if dir == DirUp || dir == DirLeft {
			if _, kind := TryMove(edge, dir); kind != MoveBlocked {
				t.Fatalf("train wall %v should block", dir)
			}
		}
	}
}

func TestStationAnchors_Labels(t *testing.T) {
	x, ok := StationXForLabel("south")
	if !ok || x != StreetCircumference/2 {
		t.Fatalf("south anchor = %d %v", x, ok)
	}
	if _, ok := StationXForLabel("sideways"); ok {
		t.Fatal("bad label accepted")
	}
	// Wrapped coordinate maps back to its anchor.
	anchor, ok := StationXForCoord(int(StreetCircumference) + 1024)
	if !ok || anchor != 1024 {
		t.Fatalf("wrapped anchor = %d %v", anchor, ok)
	}
}

func TestDistanceToNearestDoor(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 1, 3: 0, 4: 1, 5: 1, -1: 1, -3: 0}
	for x, want := range cases {
		if got := DistanceToNearestDoor(x); got != want {
			t.Fatalf("DistanceToNearestDoor(%d) = %d want %d", x, got, want)
		}
	}
}
