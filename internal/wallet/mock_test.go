package wallet

import (
	"errors"
	"testing"
)

func TestMock_SendAndBalance(t *testing.T) {
	m := NewMock()
	m.Credit("alice", 10)

	txID, err := m.Send("alice", "bob", "2.5", "0.1")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if txID == "" {
		t.Fatal("empty tx id")
	}

	got, _ := m.GetBalance("alice")
	if got != "7.40000000" {
		t.Fatalf("alice balance = %s", got)
	}
	got, _ = m.GetBalance("bob")
	if got != "2.50000000" {
		t.Fatalf("bob balance = %s", got)
	}
}

func TestMock_InsufficientFunds(t *testing.T) {
	m := NewMock()
	m.Credit("alice", 1)
	_, err := m.Send("alice", "bob", "0.9", "0.2")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v", err)
	}
	// Nothing moved.
	got, _ := m.GetBalance("bob")
	if got != "0.00000000" {
		t.Fatalf("bob balance = %s", got)
	}
}

func TestMock_ConfirmationsAdvance(t *testing.T) {
	m := NewMock()
	m.Credit("alice", 5)
	txID, err := m.Send("alice", "bob", "1", "0")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	st, _ := m.GetTxStatus(txID)
	if st.Status != TxPending {
		t.Fatalf("first poll status = %s", st.Status)
	}
	st, _ = m.GetTxStatus(txID)
	if st.Status != TxConfirmed || st.Confirmations < 8 {
		t.Fatalf("second poll = %+v", st)
	}
	// Terminal state is frozen.
	before := st.Confirmations
	st, _ = m.GetTxStatus(txID)
	if st.Confirmations != before {
		t.Fatal("confirmed tx kept advancing")
	}
}

func TestMock_UnknownTxFails(t *testing.T) {
	m := NewMock()
	st, err := m.GetTxStatus("nope")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Status != TxFailed {
		t.Fatalf("status = %s", st.Status)
	}
}
