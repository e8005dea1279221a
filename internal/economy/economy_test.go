package economy

import (
	"testing"

	"thestreet.dev/internal/wallet"
)

func TestFeeConfig_Fee(t *testing.T) {
	cases := []struct {
		mode   FeeMode
		value  uint32
		amount string
		want   string
	}{
		{FeeModeBps, 100, "1", "0.01000000"},
		{FeeModeBps, 250, "10", "0.25000000"},
		{FeeModePercent, 1, "1", "0.01000000"},
		{FeeModePercent, 5, "2", "0.10000000"},
		{FeeModeBps, 100, "garbage", "0.00000000"},
	}
	for _, c := range cases {
		cfg := FeeConfig{Mode: c.mode, Value: c.value}
		if got := cfg.Fee(c.amount); got != c.want {
			t.Fatalf("Fee(%s %d, %s) = %s want %s", c.mode, c.value, c.amount, got, c.want)
		}
	}
}

func TestFeeConfig_Validate(t *testing.T) {
	if err := (FeeConfig{Mode: FeeModeBps, Value: 100}).Validate(); err != nil {
		t.Fatalf("bps rejected: %v", err)
	}
	if err := (FeeConfig{Mode: "flat", Value: 1}).Validate(); err == nil {
		t.Fatal("bad mode accepted")
	}
}

func TestTransferWithFee_MovesBothLegs(t *testing.T) {
	m := wallet.NewMock()
	m.Credit("alice", 10)
	svc := &Service{Wallet: m, DevPubkey: "dev", Fee: FeeConfig{Mode: FeeModePercent, Value: 10}}

	res, err := svc.TransferWithFee("alice", "bob", "2")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.TxID == "" || res.FeePaid != "0.20000000" {
		t.Fatalf("result = %+v", res)
	}
	bob, _ := m.GetBalance("bob")
	if bob != "2.00000000" {
		t.Fatalf("bob = %s", bob)
	}
	dev, _ := m.GetBalance("dev")
	if dev != "0.20000000" {
		t.Fatalf("dev = %s", dev)
	}
	alice, _ := m.GetBalance("alice")
	if alice != "7.80000000" {
		t.Fatalf("alice = %s", alice)
	}
}

func TestTransferWithFee_InsufficientFundsNoPartial(t *testing.T) {
	m := wallet.NewMock()
	m.Credit("alice", 1)
	svc := &Service{Wallet: m, DevPubkey: "dev", Fee: FeeConfig{Mode: FeeModeBps, Value: 0}}

	if _, err := svc.TransferWithFee("alice", "bob", "5"); !IsInsufficientFunds(err) {
		t.Fatalf("err = %v", err)
	}
	bob, _ := m.GetBalance("bob")
	if bob != "0.00000000" {
		t.Fatalf("bob = %s", bob)
	}
}
