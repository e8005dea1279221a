package world

import (
	"encoding/json"
	"fmt"
	"strconv"

	"thestreet.dev/internal/economy"
	"thestreet.dev/internal/geom"
	logdir "thestreet.dev/internal/persistence/log"
	"thestreet.dev/internal/persistence/store"
	"thestreet.dev/internal/protocol"
	"thestreet.dev/internal/wallet"
)

func (w *World) handleCommand(c *client, u *User, raw json.RawMessage) {
	var payload protocol.ClientCommand
	if err := json.Unmarshal(raw, &payload); err != nil {
		w.pushError(c, protocol.ErrInvalidCommand, "bad command payload")
		return
	}

	switch payload.Name {
	case "who":
		w.cmdWho(c, u)
	case "balance":
		w.cmdBalance(c, u)
	case "faucet":
		w.cmdFaucet(c, u, payload.Args)
	case "pay":
		w.cmdPay(c, u, payload.Args)
	case "buy":
		w.cmdBuy(c, u)
	case "claim_name":
		w.cmdClaimName(c, u, payload.Args)
	case "access":
		w.cmdAccess(c, u, payload.Args)
	case "room_name":
		w.cmdRoomName(c, u, payload.Args)
	case "door_color":
		w.cmdDoorColor(c, u, payload.Args)
	case "room_info":
		w.cmdRoomInfo(c, u)
	case "board":
		w.cmdBoard(c, u, payload.Args)
	case "depart":
		w.cmdDepart(c, u, payload.Args)
	case "help":
		w.cmdHelp(c)
	default:
		w.pushError(c, protocol.ErrInvalidCommand, fmt.Sprintf("unknown command %q", payload.Name))
	}
}

// cmdWho lists neighbors: the local chat window on the street, the whole
// map everywhere else.
func (w *World) cmdWho(c *client, u *User) {
	var ids []string
	if u.Position.MapID == geom.StreetMapID {
		ids = w.usersWithin(u, withinLocal)
	} else {
		for otherID := range w.byMap[u.Position.MapID] {
			if otherID != u.UserID {
				ids = append(ids, otherID)
			}
		}
	}
	users := make([]protocol.WhoUser, 0, len(ids))
	for _, id := range ids {
		if other := w.users[id]; other != nil {
			users = append(users, protocol.WhoUser{ID: other.UserID, DisplayName: other.DisplayName})
		}
	}
	w.push(c, protocol.TypeServerWho, protocol.ServerWho{Users: users})
}

func (w *World) cmdBalance(c *client, u *User) {
	amount, err := w.econ.Balance(u.Pubkey)
	if err != nil {
		w.pushError(c, protocol.ErrWalletError, "balance unavailable")
		return
	}
	w.pushNotice(c, "balance: "+amount)
}

func (w *World) cmdFaucet(c *client, u *User, args []string) {
	if w.tap == nil {
		w.pushError(c, protocol.ErrInvalidCommand, "faucet disabled")
		return
	}
	amount := w.cfg.FaucetDefault
	if len(args) > 0 {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil || v <= 0 {
			w.pushError(c, protocol.ErrInvalidCommand, "usage: /faucet [amount]")
			return
		}
		amount = v
	}
	w.tap.Credit(u.Pubkey, amount)
	w.pushNotice(c, fmt.Sprintf("faucet: +%.8f", amount))
	w.cmdBalance(c, u)
}

func (w *World) cmdPay(c *client, u *User, args []string) {
	if len(args) != 2 {
		w.pushError(c, protocol.ErrInvalidCommand, "usage: /pay <user> <amount>")
		return
	}
	toPubkey := w.resolvePubkey(args[0])
	if toPubkey == u.Pubkey {
		w.pushError(c, protocol.ErrInvalidCommand, "cannot pay yourself")
		return
	}
	amount := args[1]
	if v, err := strconv.ParseFloat(amount, 64); err != nil || v <= 0 {
		w.pushError(c, protocol.ErrInvalidCommand, "bad amount")
		return
	}

	res, err := w.econ.TransferWithFee(u.Pubkey, toPubkey, amount)
	if err != nil {
		w.pushEconomyError(c, err)
		return
	}
	w.recordTx(u, "pay", "", toPubkey, res)
	w.pushNotice(c, fmt.Sprintf("sent %s to %s (fee %s)", res.Amount, args[0], res.FeePaid))
	if targetID, ok := w.usersByPubkey[toPubkey]; ok {
		if tc, ok := w.clients[targetID]; ok {
			w.pushNotice(tc, fmt.Sprintf("received %s from %s", res.Amount, u.displayOrID()))
		}
	}
}

func (w *World) cmdHelp(c *client) {
	lines := []string{
		"/who - list nearby users",
		"/balance - show wallet balance",
		"/faucet [amount] - dev credit",
		"/pay <user> <amount> - send funds",
		"/buy - buy the room you are in",
		"/claim_name <name> - claim a display name (fee applies)",
		"/access <show|open|whitelist|blacklist> [users...] - view or set room access",
		"/room_name <name> - rename your room (at the customizer)",
		"/door_color <color> - recolor your door (at the customizer)",
		"/room_info - show the current room",
		"/board <north|east|south|west> - board a train from a station",
		"/depart <north|east|south|west> - change destination while riding",
	}
	for _, line := range lines {
		w.pushNotice(c, line)
	}
}

func (w *World) cmdBoard(c *client, u *User, args []string) {
	stationX, ok := geom.ParseStationMapID(u.Position.MapID)
	if !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "not in a station")
		return
	}
	dest, ok := parseStationArg(args)
	if !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "usage: /board <north|east|south|west>")
		return
	}
	if dest == stationX {
		w.pushError(c, protocol.ErrInvalidCommand, "already at destination")
		return
	}
	if _, riding := w.riders[u.UserID]; riding {
		w.pushError(c, protocol.ErrInvalidCommand, "already on a train")
		return
	}
	w.boarding[u.UserID] = boardingRequest{stationX: stationX, destinationX: dest}
	w.pushNotice(c, "waiting for train")
}

func (w *World) cmdDepart(c *client, u *User, args []string) {
	if _, ok := geom.ParseTrainMapID(u.Position.MapID); !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "not on a train")
		return
	}
	dest, ok := parseStationArg(args)
	if !ok {
		w.pushError(c, protocol.ErrInvalidCommand, "usage: /depart <north|east|south|west>")
		return
	}
	ride, riding := w.riders[u.UserID]
	if !riding {
		w.pushError(c, protocol.ErrInvalidCommand, "not riding")
		return
	}
	ride.destinationX = dest
	w.riders[u.UserID] = ride
	w.pushNotice(c, "destination updated")
}

// parseStationArg accepts a compass label or a raw anchor offset.
func parseStationArg(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	if x, ok := geom.StationXForLabel(args[0]); ok {
		return x, true
	}
	x, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	for _, anchor := range geom.StationAnchors() {
		if anchor == x {
			return x, true
		}
	}
	return 0, false
}

// resolvePubkey accepts a display name, a user id, or a raw pubkey.
func (w *World) resolvePubkey(target string) string {
	if id, ok := w.usersByName[target]; ok {
		return w.users[id].Pubkey
	}
	if u, ok := w.users[target]; ok {
		return u.Pubkey
	}
	return target
}

func (w *World) pushEconomyError(c *client, err error) {
	if economy.IsInsufficientFunds(err) {
		w.pushError(c, protocol.ErrInsufficientFunds, "insufficient funds")
		return
	}
	w.pushError(c, protocol.ErrWalletError, "wallet backend failed")
}

// recordTx appends the ledger row, starts confirmation tracking and tells
// the actor their transfer is in flight.
func (w *World) recordTx(u *User, actionName, roomID, toPubkey string, res economy.TransferResult) {
	rec := store.TxRecord{
		TxID:       res.TxID,
		FromPubkey: u.Pubkey,
		ToPubkey:   toPubkey,
		Amount:     res.Amount,
		Fee:        res.FeePaid,
		Status:     string(wallet.TxPending),
		TS:         nowMS(),
	}
	if err := w.gw.AppendTransaction(rec); err != nil && w.log != nil {
		w.log.Printf("ledger append %s: %v", res.TxID, err)
	}
	w.pending[res.TxID] = &pendingTx{txID: res.TxID, userID: u.UserID, action: actionName, roomID: roomID}
	if c, ok := w.clients[u.UserID]; ok {
		w.push(c, protocol.TypeServerTxUpdate, protocol.ServerTxUpdate{
			TxID:   res.TxID,
			Status: string(wallet.TxPending),
		})
	}
	if w.audit != nil {
		_ = w.audit.WriteAudit(logdir.AuditEntry{
			TS:     nowMS(),
			Actor:  u.Pubkey,
			Action: actionName,
			Target: roomID,
			Amount: res.Amount,
			Fee:    res.FeePaid,
			TxID:   res.TxID,
		})
	}
}

func (u *User) displayOrID() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.UserID
}
