package world

import (
	"thestreet.dev/internal/persistence/store"
	"thestreet.dev/internal/protocol"
	"thestreet.dev/internal/wallet"
)

// pollPendingTxs advances every tracked transaction one wallet poll per
// tick. Confirmation progress streams to the actor as server.tx_update;
// terminal states are mirrored to the ledger and dropped from tracking.
func (w *World) pollPendingTxs() {
	for txID, p := range w.pending {
		status, err := w.econ.TxStatus(txID)
		if err != nil {
			if w.log != nil {
				w.log.Printf("tx %s: status poll failed: %v", txID, err)
			}
			delete(w.pending, txID)
			continue
		}
		if status.Status == wallet.TxPending && status.Confirmations == p.confirmations {
			continue
		}
		p.confirmations = status.Confirmations

		w.gw.QueueUpdateTransaction(store.TxRecord{
			TxID:          txID,
			Status:        string(status.Status),
			Confirmations: status.Confirmations,
		})
		if c, ok := w.clients[p.userID]; ok {
			w.push(c, protocol.TypeServerTxUpdate, protocol.ServerTxUpdate{
				TxID:          txID,
				Status:        string(status.Status),
				Confirmations: status.Confirmations,
			})
			if status.Status == wallet.TxConfirmed && p.action == "buy" {
				w.pushNotice(c, "purchase of "+p.roomID+" settled")
			}
		}
		if status.Status != wallet.TxPending {
			delete(w.pending, txID)
		}
	}
}
