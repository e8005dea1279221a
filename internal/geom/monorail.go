package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// The monorail runs along the middle of the street; stations sit at the
// quarter points of the ring.
var TrackRows = [2]int{StreetHeight/2 - 1, StreetHeight / 2}

// StationDoorY is the street row holding station entrances, just above the
// track.
const StationDoorY = StreetHeight/2 - 2

const StationCount = 4

// StationAnchors are the ring offsets of the four stations.
func StationAnchors() [StationCount]int64 {
	q := StreetCircumference / StationCount
	return [StationCount]int64{0, q, 2 * q, 3 * q}
}

var stationLabels = [StationCount]string{"north", "east", "south", "west"}

// StationXForLabel resolves a compass label to a station anchor.
func StationXForLabel(label string) (int64, bool) {
	anchors := StationAnchors()
	for i, name := range stationLabels {
		if name == label {
			return anchors[i], true
		}
	}
	return 0, false
}

func StationLabel(anchorX int64) string {
	anchors := StationAnchors()
	for i, x := range anchors {
		if x == anchorX {
			return stationLabels[i]
		}
	}
	return strconv.FormatInt(anchorX, 10)
}

func IsTrackRow(y int) bool {
	return y == TrackRows[0] || y == TrackRows[1]
}

func IsStationX(x int) bool {
	_, ok := StationXForCoord(x)
	return ok
}

// StationXForCoord maps a street x to the anchor of the station there, if
// any. The comparison wraps around the ring.
func StationXForCoord(x int) (int64, bool) {
	wrapped := FloorMod64(int64(x), StreetCircumference)
	for _, anchor := range StationAnchors() {
		if wrapped == anchor {
			return anchor, true
		}
	}
	return 0, false
}

func IsStationDoor(x, y int) bool {
	return y == StationDoorY && IsStationX(x)
}

func StationMapID(anchorX int64) string {
	return fmt.Sprintf("station/%d", anchorX)
}

func ParseStationMapID(mapID string) (int64, bool) {
	raw, ok := strings.CutPrefix(mapID, "station/")
	if !ok {
		return 0, false
	}
	x, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return x, true
}

func TrainMapID(trainID int) string {
	return fmt.Sprintf("train/%d", trainID)
}

func ParseTrainMapID(mapID string) (int, bool) {
	raw, ok := strings.CutPrefix(mapID, "train/")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}
