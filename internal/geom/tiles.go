package geom

// CustomizerPos is the impassable room-customizer fixture. Owner commands
// require standing on an adjacent walkable tile.
func CustomizerPos() (int, int) {
	return RoomWidth - 1, 1
}

// StreetTile classifies a street coordinate. The street is infinite along
// x; only y is bounded.
func StreetTile(x, y int) Tile {
	if IsStationDoor(x, y) {
		return TileStationDoor
	}
	if y == 0 || y == StreetHeight-1 {
		if _, ok := StreetDoorSide(x, y); ok {
			return TileDoor
		}
		return TileWall
	}
	return TileFloor
}

func RoomTile(x, y int, side Side) Tile {
	if cx, cy := CustomizerPos(); x == cx && y == cy {
		return TileCustomizer
	}
	if x == 0 || x == RoomWidth-1 || y == 0 || y == RoomHeight-1 {
		dx, dy := RoomDoorPos(side)
		if x == dx && y == dy {
			return TileDoor
		}
		return TileWall
	}
	return TileFloor
}

// RoomDoorPos is the in-room door tile leading back to the street. North
// rooms hang off the street's top wall, so their exit is on the south wall.
func RoomDoorPos(side Side) (int, int) {
	x := RoomWidth / 2
	if side == SideNorth {
		return x, RoomHeight - 1
	}
	return x, 0
}

// RoomEntryPos is where a user lands after stepping through a street door.
func RoomEntryPos(side Side) (int, int) {
	x := RoomWidth / 2
	if side == SideNorth {
		return x, RoomHeight - 2
	}
	return x, 1
}

// StreetEntryPos is where a user lands on the street after leaving a room.
func StreetEntryPos(side Side, streetX int) (int, int) {
	if side == SideNorth {
		return streetX, 1
	}
	return streetX, StreetHeight - 2
}

// StationTile classifies a station coordinate. Stations have a single exit
// door at bottom-center.
func StationTile(x, y int) Tile {
	if x == 0 || x == StationWidth-1 || y == 0 || y == StationHeight-1 {
		if x == StationWidth/2 && y == StationHeight-1 {
			return TileDoor
		}
		return TileWall
	}
	return TileFloor
}

func StationEntryPos() (int, int) {
	return StationWidth / 2, StationHeight - 2
}

func TrainTile(x, y int) Tile {
	if x == 0 || x == TrainWidth-1 || y == 0 || y == TrainHeight-1 {
		return TileWall
	}
	return TileFloor
}
