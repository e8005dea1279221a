// Package geom holds the procedural layout of the street, rooms, stations
// and trains. Everything here is a pure function of its inputs; the world
// loop owns all mutable state.
package geom

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	StreetHeight = 16
	RoomWidth    = 32
	RoomHeight   = 16
	StationWidth  = 32
	StationHeight = 16
	TrainWidth  = 32
	TrainHeight = 16

	// The ring wraps for trains and stations; street x itself is unbounded.
	StreetCircumference int64 = 4096

	DoorSpacing = 6
	DoorOffset  = 3
)

const StreetMapID = "street"

type Tile int

const (
	TileWall Tile = iota
	TileDoor
	TileStationDoor
	TileCustomizer
	TileFloor
)

type Position struct {
	MapID string `json:"map_id"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

type Side int

const (
	SideNorth Side = iota
	SideSouth
)

func (s Side) String() string {
	if s == SideNorth {
		return "north"
	}
	return "south"
}

// FloorMod is the mathematical modulus: the result always has the sign of
// the divisor. Go's % truncates toward zero, which would break door
// periodicity for negative street x.
func FloorMod(a, b int) int {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func FloorMod64(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// StreetDoorSide reports which room side a street wall tile opens into, if
// any. Top-wall doors sit at x ≡ 0 (mod 6), bottom-wall doors at x ≡ 3.
func StreetDoorSide(x, y int) (Side, bool) {
	offset := FloorMod(x, DoorSpacing)
	if y == 0 && offset == 0 {
		return SideNorth, true
	}
	if y == StreetHeight-1 && offset == DoorOffset {
		return SideSouth, true
	}
	return 0, false
}

// RoomID derives the stable room key for a street door. It is the sole
// lookup key for rooms, so it must stay a pure function of side and x.
func RoomID(side Side, streetX int) string {
	return fmt.Sprintf("%s:%d", side, streetX)
}

func ParseRoomID(roomID string) (Side, int, bool) {
	name, xPart, ok := strings.Cut(roomID, ":")
	if !ok {
		return 0, 0, false
	}
	x, err := strconv.Atoi(xPart)
	if err != nil {
		return 0, 0, false
	}
	switch name {
	case "north":
		return SideNorth, x, true
	case "south":
		return SideSouth, x, true
	}
	return 0, 0, false
}

func RoomMapID(roomID string) string {
	return "room/" + roomID
}

func ParseRoomMapID(mapID string) (Side, int, bool) {
	roomID, ok := strings.CutPrefix(mapID, "room/")
	if !ok {
		return 0, 0, false
	}
	return ParseRoomID(roomID)
}

// DistanceToNearestDoor gives the tile distance from street x to the
// closest door column on either wall.
func DistanceToNearestDoor(x int) int {
	offset := FloorMod(x, DoorSpacing)
	toZero := min(offset, DoorSpacing-offset)
	toOffset := abs(offset - DoorOffset)
	toOffset = min(toOffset, DoorSpacing-toOffset)
	return min(toZero, toOffset)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
