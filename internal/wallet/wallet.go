// Package wallet defines the capability interface the relay uses to move
// funds. The relay never talks to a backend directly; a concrete wallet is
// injected at construction time.
package wallet

import "errors"

type TxState string

const (
	TxPending   TxState = "pending"
	TxConfirmed TxState = "confirmed"
	TxFailed    TxState = "failed"
)

type TxStatus struct {
	TxID          string  `json:"tx_id"`
	Status        TxState `json:"status"`
	Confirmations uint32  `json:"confirmations"`
}

// ErrInsufficientFunds distinguishes an affordable-balance failure from
// backend faults; callers map it to its own wire code.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Wallet is the capability set a funds backend must provide. Amounts are
// decimal strings to keep backend precision out of the relay.
type Wallet interface {
	GetBalance(pubkey string) (string, error)
	Send(fromPubkey, toPubkey, amount, fee string) (string, error)
	GetTxStatus(txID string) (TxStatus, error)
}
