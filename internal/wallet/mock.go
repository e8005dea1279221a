package wallet

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// confirmationsPerPoll controls how fast mock transactions mature. Each
// status poll adds this many confirmations, so a fresh send is observably
// pending before it confirms.
const confirmationsPerPoll = 4

// Mock is an in-memory wallet for development and tests. Balances are
// floats internally; the wire surface stays 8-dp decimal strings.
type Mock struct {
	mu       sync.Mutex
	balances map[string]float64
	txs      map[string]*TxStatus
}

func NewMock() *Mock {
	return &Mock{
		balances: map[string]float64{},
		txs:      map[string]*TxStatus{},
	}
}

// Credit adds funds out of thin air (faucet, starter balance).
func (m *Mock) Credit(pubkey string, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[pubkey] += amount
}

func (m *Mock) GetBalance(pubkey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return formatAmount(m.balances[pubkey]), nil
}

func (m *Mock) Send(fromPubkey, toPubkey, amount, fee string) (string, error) {
	amt, err := parseAmount(amount)
	if err != nil {
		return "", fmt.Errorf("bad amount: %w", err)
	}
	feeAmt, err := parseAmount(fee)
	if err != nil {
		return "", fmt.Errorf("bad fee: %w", err)
	}
	if amt < 0 || feeAmt < 0 {
		return "", fmt.Errorf("negative transfer")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	total := amt + feeAmt
	if m.balances[fromPubkey] < total {
		return "", ErrInsufficientFunds
	}
	m.balances[fromPubkey] -= total
	m.balances[toPubkey] += amt

	txID := uuid.NewString()
	m.txs[txID] = &TxStatus{TxID: txID, Status: TxPending, Confirmations: 0}
	return txID, nil
}

// GetTxStatus advances the mock confirmation count on every poll and flips
// the transaction to confirmed at 8. Terminal states never change again.
func (m *Mock) GetTxStatus(txID string) (TxStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[txID]
	if !ok {
		return TxStatus{TxID: txID, Status: TxFailed}, nil
	}
	if tx.Status == TxPending {
		tx.Confirmations += confirmationsPerPoll
		if tx.Confirmations >= 8 {
			tx.Status = TxConfirmed
		}
	}
	return *tx, nil
}

func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}
