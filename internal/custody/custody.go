// Package custody models the external custody service that physically moves
// one unit of a unique asset between sub-accounts. The in-ledger
// implementation runs inside the caller's transaction, so custody moves and
// record mutations commit or abort as one unit.
package custody

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/veritymkt/verity/internal/ledger"
)

var (
	ErrCapabilityMismatch = errors.New("custody: capability not valid for source account")
	ErrInsufficientUnits  = errors.New("custody: account does not hold enough units")
	ErrAssetExists        = errors.New("custody: asset already registered")
	ErrAssetUnknown       = errors.New("custody: asset not registered")
)

// Capability is a single-use delegated-authority proof minted by the engine,
// scoped to one source sub-account and one operation. The engine never holds
// an asset directly; it mints a capability and hands it to the delegate.
type Capability struct {
	Source common.Address
	OpID   uuid.UUID
}

// MintCapability scopes a transfer authority to one source sub-account.
func MintCapability(source common.Address) Capability {
	return Capability{Source: source, OpID: uuid.New()}
}

// Delegate moves asset units between sub-accounts under a capability.
type Delegate interface {
	Transfer(txn *ledger.Txn, cap Capability, from, to common.Address, asset common.Hash, amount uint64) error
}

// LedgerDelegate is the in-ledger delegate: holdings are records in the same
// store, mutated inside the operation's transaction.
type LedgerDelegate struct{}

func (LedgerDelegate) Transfer(txn *ledger.Txn, cap Capability, from, to common.Address, asset common.Hash, amount uint64) error {
	if cap.Source != from || cap.OpID == uuid.Nil {
		return ErrCapabilityMismatch
	}
	cur, err := HoldingAmount(txn, from, asset)
	if err != nil {
		return err
	}
	if cur < amount {
		return ErrInsufficientUnits
	}
	if err := setHolding(txn, from, asset, cur-amount); err != nil {
		return err
	}
	dst, err := HoldingAmount(txn, to, asset)
	if err != nil {
		return err
	}
	return setHolding(txn, to, asset, dst+amount)
}
