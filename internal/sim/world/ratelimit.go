package world

import "thestreet.dev/internal/protocol"

// Rate limits are tick-window budgets, mirroring the tuning file: a window
// of N ticks admits at most M actions, then rejects until the next window.
type rateWindow struct {
	start uint64
	count int
}

type rateState struct {
	move    rateWindow
	chat    rateWindow
	command rateWindow
}

func (w *World) allow(userID, msgType string) bool {
	rs := w.rate[userID]
	if rs == nil {
		rs = &rateState{}
		w.rate[userID] = rs
	}
	limits := w.cfg.RateLimits
	switch msgType {
	case protocol.TypeClientMove:
		return w.admit(&rs.move, limits.MoveWindowTicks, limits.MoveMax)
	case protocol.TypeClientChat:
		return w.admit(&rs.chat, limits.ChatWindowTicks, limits.ChatMax)
	case protocol.TypeClientCommand, protocol.TypeClientRoomAccessUpdate:
		return w.admit(&rs.command, limits.CommandWindowTicks, limits.CommandMax)
	}
	return true
}

func (w *World) admit(win *rateWindow, windowTicks, max int) bool {
	if windowTicks <= 0 || max <= 0 {
		return true
	}
	if w.tick-win.start >= uint64(windowTicks) {
		win.start = w.tick
		win.count = 0
	}
	win.count++
	return win.count <= max
}
