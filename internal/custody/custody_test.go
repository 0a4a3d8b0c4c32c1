package custody

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veritymkt/verity/internal/ledger"
)

func openTestStore(t *testing.T) *ledger.Store {
	t.Helper()
	s, err := ledger.Open(ledger.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRegisterAssetOnce(t *testing.T) {
	s := openTestStore(t)
	a := Asset{ID: common.HexToHash("0x01"), Collection: common.HexToHash("0xc0"), Decimals: 0, Supply: 1}

	err := s.Execute(func(txn *ledger.Txn) error { return RegisterAsset(txn, a) })
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	err = s.Execute(func(txn *ledger.Txn) error { return RegisterAsset(txn, a) })
	if !errors.Is(err, ErrAssetExists) {
		t.Fatalf("expected ErrAssetExists, got %v", err)
	}

	_ = s.View(func(txn *ledger.Txn) error {
		meta, err := AssetMeta(txn, a.ID)
		if err != nil {
			t.Fatalf("meta: %v", err)
		}
		if !meta.IsUnique() {
			t.Fatalf("expected unique asset, got %+v", meta)
		}
		return nil
	})
}

func TestTransferRequiresMatchingCapability(t *testing.T) {
	s := openTestStore(t)
	asset := common.HexToHash("0x02")
	from := common.HexToAddress("0x0a")
	to := common.HexToAddress("0x0b")
	var d LedgerDelegate

	err := s.Execute(func(txn *ledger.Txn) error {
		return Deposit(txn, from, asset, 1)
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// capability scoped to a different source must be refused
	err = s.Execute(func(txn *ledger.Txn) error {
		return d.Transfer(txn, MintCapability(to), from, to, asset, 1)
	})
	if !errors.Is(err, ErrCapabilityMismatch) {
		t.Fatalf("expected ErrCapabilityMismatch, got %v", err)
	}

	// forged zero-value capability must be refused
	err = s.Execute(func(txn *ledger.Txn) error {
		return d.Transfer(txn, Capability{Source: from}, from, to, asset, 1)
	})
	if !errors.Is(err, ErrCapabilityMismatch) {
		t.Fatalf("expected ErrCapabilityMismatch for zero op id, got %v", err)
	}

	// matching capability moves the unit
	err = s.Execute(func(txn *ledger.Txn) error {
		return d.Transfer(txn, MintCapability(from), from, to, asset, 1)
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	_ = s.View(func(txn *ledger.Txn) error {
		got, _ := HoldingAmount(txn, to, asset)
		if got != 1 {
			t.Fatalf("destination holding got=%d want=1", got)
		}
		got, _ = HoldingAmount(txn, from, asset)
		if got != 0 {
			t.Fatalf("source holding got=%d want=0", got)
		}
		return nil
	})
}

func TestTransferInsufficientUnits(t *testing.T) {
	s := openTestStore(t)
	asset := common.HexToHash("0x03")
	from := common.HexToAddress("0x0c")
	to := common.HexToAddress("0x0d")
	var d LedgerDelegate

	err := s.Execute(func(txn *ledger.Txn) error {
		return d.Transfer(txn, MintCapability(from), from, to, asset, 1)
	})
	if !errors.Is(err, ErrInsufficientUnits) {
		t.Fatalf("expected ErrInsufficientUnits, got %v", err)
	}
}
