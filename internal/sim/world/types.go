package world

import (
	"thestreet.dev/internal/geom"
	"thestreet.dev/internal/persistence/store"
)

// User is the persistent identity behind a pubkey. It outlives sessions;
// position and display name survive reconnects.
type User struct {
	UserID      string
	Pubkey      string
	DisplayName string
	Position    geom.Position
	LastSeen    int64
}

type AccessMode string

const (
	AccessOpen      AccessMode = "open"
	AccessWhitelist AccessMode = "whitelist"
	AccessBlacklist AccessMode = "blacklist"
)

func ParseAccessMode(s string) (AccessMode, bool) {
	switch AccessMode(s) {
	case AccessOpen, AccessWhitelist, AccessBlacklist:
		return AccessMode(s), true
	}
	return "", false
}

type AccessPolicy struct {
	Mode AccessMode
	List []string
}

func (p AccessPolicy) contains(pubkey string) bool {
	for _, entry := range p.List {
		if entry == pubkey {
			return true
		}
	}
	return false
}

// Room is materialized lazily on first reference. Ownership changes only
// through a successful purchase; access only through the owner.
type Room struct {
	RoomID      string
	OwnerPubkey string
	Price       string
	ForSale     bool
	Access      AccessPolicy
	DisplayName string
	DoorColor   string
}

// AccessAllows decides door entry. The owner always passes.
func (r *Room) AccessAllows(pubkey string) bool {
	if r.OwnerPubkey != "" && r.OwnerPubkey == pubkey {
		return true
	}
	switch r.Access.Mode {
	case AccessWhitelist:
		return r.Access.contains(pubkey)
	case AccessBlacklist:
		return !r.Access.contains(pubkey)
	default:
		return true
	}
}

// Train rides the ring continuously. Never persisted; rebuilt at startup.
type Train struct {
	ID        int
	X         float64
	Speed     float64
	Clockwise bool
}

// boardingRequest is a user standing in a station waiting for any train to
// pass their platform.
type boardingRequest struct {
	stationX     int64
	destinationX int64
}

// trainRide tracks a rider until their train passes the destination.
type trainRide struct {
	trainID      int
	destinationX int64
}

type pendingTx struct {
	txID          string
	userID        string
	action        string // "buy", "pay", "claim_name"
	roomID        string
	confirmations uint32
}

func userRecord(u *User) store.UserRecord {
	return store.UserRecord{
		UserID:      u.UserID,
		Pubkey:      u.Pubkey,
		DisplayName: u.DisplayName,
		MapID:       u.Position.MapID,
		X:           u.Position.X,
		Y:           u.Position.Y,
		LastSeen:    u.LastSeen,
	}
}

func roomRecord(r *Room) store.RoomRecord {
	return store.RoomRecord{
		RoomID:      r.RoomID,
		OwnerPubkey: r.OwnerPubkey,
		Price:       r.Price,
		ForSale:     r.ForSale,
		AccessMode:  string(r.Access.Mode),
		AccessList:  r.Access.List,
		DisplayName: r.DisplayName,
		DoorColor:   r.DoorColor,
	}
}
