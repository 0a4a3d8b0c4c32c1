package custody

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/veritymkt/verity/internal/ledger"
)

// Asset is the metadata record for a registered asset. A unique (non-fungible)
// asset has 0 decimals and supply 1; the engine refuses vaults for anything else.
type Asset struct {
	ID         common.Hash `json:"id"`
	Collection common.Hash `json:"collection"`
	Decimals   uint8       `json:"decimals"`
	Supply     uint64      `json:"supply"`
}

// IsUnique reports whether the asset satisfies the unique-asset shape.
func (a Asset) IsUnique() bool {
	return a.Decimals == 0 && a.Supply == 1
}

type holdingRecord struct {
	Amount uint64 `json:"amount"`
}

// RegisterAsset records asset metadata. Issuance is an external concern; this
// is the minimal registry the engine needs to validate asset shape and
// collection membership.
func RegisterAsset(txn *ledger.Txn, a Asset) error {
	key := ledger.AssetKey(a.ID)
	exists, err := txn.Has(key)
	if err != nil {
		return err
	}
	if exists {
		return ErrAssetExists
	}
	return txn.Put(key, a)
}

// AssetMeta loads the metadata for an asset.
func AssetMeta(txn *ledger.Txn, id common.Hash) (*Asset, error) {
	var a Asset
	err := txn.Get(ledger.AssetKey(id), &a)
	if err == ledger.ErrRecordNotFound {
		return nil, ErrAssetUnknown
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// HoldingAmount returns how many units of asset the account holds.
func HoldingAmount(txn *ledger.Txn, account common.Address, asset common.Hash) (uint64, error) {
	var h holdingRecord
	err := txn.Get(ledger.HoldingKey(account, asset), &h)
	if err == ledger.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return h.Amount, nil
}

// Deposit credits units to an account's holding. Stands in for the external
// issuer placing the asset with its first owner.
func Deposit(txn *ledger.Txn, account common.Address, asset common.Hash, amount uint64) error {
	cur, err := HoldingAmount(txn, account, asset)
	if err != nil {
		return err
	}
	return setHolding(txn, account, asset, cur+amount)
}

// ClearHolding deletes the holding record of a sub-account (custody account
// teardown on vault destruction).
func ClearHolding(txn *ledger.Txn, account common.Address, asset common.Hash) error {
	return txn.Delete(ledger.HoldingKey(account, asset))
}

func setHolding(txn *ledger.Txn, account common.Address, asset common.Hash, amount uint64) error {
	key := ledger.HoldingKey(account, asset)
	if amount == 0 {
		return txn.Delete(key)
	}
	return txn.Put(key, holdingRecord{Amount: amount})
}
