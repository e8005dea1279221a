// Package economy computes dev fees and orchestrates transfers over the
// wallet capability interface. It holds no balances itself.
package economy

import (
	"errors"
	"fmt"
	"strconv"

	"thestreet.dev/internal/wallet"
)

type FeeMode string

const (
	FeeModeBps     FeeMode = "bps"
	FeeModePercent FeeMode = "percent"
)

// FeeConfig is process-wide, loaded at startup and read-only after.
type FeeConfig struct {
	Mode  FeeMode
	Value uint32
}

func (c FeeConfig) Validate() error {
	switch c.Mode {
	case FeeModeBps, FeeModePercent:
		return nil
	}
	return fmt.Errorf("unknown fee mode %q", c.Mode)
}

// Fee computes the dev fee for a decimal amount, as an 8-dp decimal
// string. Unparseable amounts fee out at zero, matching a zero transfer.
func (c FeeConfig) Fee(amount string) string {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		v = 0
	}
	var fee float64
	switch c.Mode {
	case FeeModeBps:
		fee = v * float64(c.Value) / 10000
	case FeeModePercent:
		fee = v * float64(c.Value) / 100
	}
	return strconv.FormatFloat(fee, 'f', 8, 64)
}

// Service fronts the wallet for all relay-initiated movements.
type Service struct {
	Wallet    wallet.Wallet
	DevPubkey string
	Fee       FeeConfig
}

// TransferResult reports the transfer the recipient sees; the dev-fee leg
// rides along separately.
type TransferResult struct {
	TxID   string
	Amount string
	FeePaid string
}

// TransferWithFee moves amount from→to, then the configured dev fee
// from→dev wallet. The fee leg failing after a successful main leg is
// surfaced as an error; callers treat the whole action as failed and do
// not commit dependent state.
func (s *Service) TransferWithFee(from, to, amount string) (TransferResult, error) {
	fee := s.Fee.Fee(amount)
	txID, err := s.Wallet.Send(from, to, amount, "0")
	if err != nil {
		return TransferResult{}, err
	}
	if _, err := s.Wallet.Send(from, s.DevPubkey, fee, "0"); err != nil {
		return TransferResult{}, fmt.Errorf("dev fee: %w", err)
	}
	return TransferResult{TxID: txID, Amount: amount, FeePaid: fee}, nil
}

// PayToDev charges a flat amount plus its dev fee straight to the dev
// wallet (room purchases of unowned rooms, username claims).
func (s *Service) PayToDev(from, amount string) (TransferResult, error) {
	return s.TransferWithFee(from, s.DevPubkey, amount)
}

func (s *Service) Balance(pubkey string) (string, error) {
	return s.Wallet.GetBalance(pubkey)
}

func (s *Service) TxStatus(txID string) (wallet.TxStatus, error) {
	return s.Wallet.GetTxStatus(txID)
}

// IsInsufficientFunds classifies a wallet error for wire-code mapping.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, wallet.ErrInsufficientFunds)
}
