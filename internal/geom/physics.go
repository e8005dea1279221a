package geom

type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	}
	return 0, false
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return "?"
}

type MoveKind int

const (
	// MoveBlocked: the target tile is a wall or fixture; position unchanged.
	MoveBlocked MoveKind = iota
	// MoveStep: plain move within the current map.
	MoveStep
	// MoveTransition: the target tile is a door; the returned position is on
	// the destination map.
	MoveTransition
)

func Step(x, y int, dir Direction) (int, int) {
	switch dir {
	case DirUp:
		return x, y - 1
	case DirDown:
		return x, y + 1
	case DirLeft:
		return x - 1, y
	default:
		return x + 1, y
	}
}

// TryMove resolves one step from pos. Door tiles produce a transition onto
// the destination map; the caller is responsible for access control on the
// room being entered.
func TryMove(pos Position, dir Direction) (Position, MoveKind) {
	if pos.MapID == StreetMapID {
		return moveOnStreet(pos, dir)
	}
	if side, streetX, ok := ParseRoomMapID(pos.MapID); ok {
		return moveInRoom(pos, dir, side, streetX)
	}
	if anchorX, ok := ParseStationMapID(pos.MapID); ok {
		return moveInStation(pos, dir, anchorX)
	}
	if _, ok := ParseTrainMapID(pos.MapID); ok {
		return moveInTrain(pos, dir)
	}
	return pos, MoveBlocked
}

func moveOnStreet(pos Position, dir Direction) (Position, MoveKind) {
	nx, ny := Step(pos.X, pos.Y, dir)
	if ny < 0 || ny >= StreetHeight {
		return pos, MoveBlocked
	}
	switch StreetTile(nx, ny) {
	case TileDoor:
		side, ok := StreetDoorSide(nx, ny)
		if !ok {
			return pos, MoveBlocked
		}
		rx, ry := RoomEntryPos(side)
		return Position{MapID: RoomMapID(RoomID(side, nx)), X: rx, Y: ry}, MoveTransition
	case TileStationDoor:
		anchorX, ok := StationXForCoord(nx)
		if !ok {
			return pos, MoveBlocked
		}
		sx, sy := StationEntryPos()
		return Position{MapID: StationMapID(anchorX), X: sx, Y: sy}, MoveTransition
	case TileFloor:
		return Position{MapID: pos.MapID, X: nx, Y: ny}, MoveStep
	default:
		return pos, MoveBlocked
	}
}

func moveInRoom(pos Position, dir Direction, side Side, streetX int) (Position, MoveKind) {
	nx, ny := Step(pos.X, pos.Y, dir)
	if nx < 0 || nx >= RoomWidth || ny < 0 || ny >= RoomHeight {
		return pos, MoveBlocked
	}
	switch RoomTile(nx, ny, side) {
	case TileDoor:
		sx, sy := StreetEntryPos(side, streetX)
		return Position{MapID: StreetMapID, X: sx, Y: sy}, MoveTransition
	case TileFloor:
		return Position{MapID: pos.MapID, X: nx, Y: ny}, MoveStep
	default:
		return pos, MoveBlocked
	}
}

func moveInStation(pos Position, dir Direction, anchorX int64) (Position, MoveKind) {
	nx, ny := Step(pos.X, pos.Y, dir)
	if nx < 0 || nx >= StationWidth || ny < 0 || ny >= StationHeight {
		return pos, MoveBlocked
	}
	switch StationTile(nx, ny) {
	case TileDoor:
		return Position{MapID: StreetMapID, X: int(anchorX), Y: StationDoorY}, MoveTransition
	case TileFloor:
		return Position{MapID: pos.MapID, X: nx, Y: ny}, MoveStep
	default:
		return pos, MoveBlocked
	}
}

func moveInTrain(pos Position, dir Direction) (Position, MoveKind) {
	nx, ny := Step(pos.X, pos.Y, dir)
	if nx < 0 || nx >= TrainWidth || ny < 0 || ny >= TrainHeight {
		return pos, MoveBlocked
	}
	if TrainTile(nx, ny) == TileWall {
		return pos, MoveBlocked
	}
	return Position{MapID: pos.MapID, X: nx, Y: ny}, MoveStep
}
