package ledger

import (
	"math/bits"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veritymkt/verity/internal/domain"
)

// Native-unit balance accounting. Balances live in the same record store and
// mutate inside the same transaction as the operation touching them, so a
// payment and the state transition it belongs to commit or abort together.

// RecordDeposit is the flat storage deposit charged to the payer when a record
// is created and refunded to a named beneficiary when the record is destroyed.
const RecordDeposit uint64 = 1_000_000

type balanceRecord struct {
	Amount uint64 `json:"amount"`
}

// Balance returns the native balance of addr (zero if no record exists).
func (t *Txn) Balance(addr common.Address) (uint64, error) {
	var rec balanceRecord
	err := t.Get(BalanceKey(addr), &rec)
	if err == ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.Amount, nil
}

// Credit adds amount to addr's balance with checked arithmetic.
func (t *Txn) Credit(addr common.Address, amount uint64) error {
	cur, err := t.Balance(addr)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(cur, amount, 0)
	if carry != 0 {
		return domain.ErrArithmeticOverflow
	}
	return t.Put(BalanceKey(addr), balanceRecord{Amount: sum})
}

// Debit removes amount from addr's balance, failing on insufficient funds.
func (t *Txn) Debit(addr common.Address, amount uint64) error {
	cur, err := t.Balance(addr)
	if err != nil {
		return err
	}
	if cur < amount {
		return domain.ErrInsufficientFunds
	}
	return t.Put(BalanceKey(addr), balanceRecord{Amount: cur - amount})
}

// TransferNative moves amount from one address to another in this transaction.
func (t *Txn) TransferNative(from, to common.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		return nil
	}
	if err := t.Debit(from, amount); err != nil {
		return err
	}
	return t.Credit(to, amount)
}

// ChargeDeposit debits the flat record deposit from payer.
func (t *Txn) ChargeDeposit(payer common.Address) error {
	return t.Debit(payer, RecordDeposit)
}

// RefundDeposit returns the flat record deposit to the beneficiary of a
// destroyed record.
func (t *Txn) RefundDeposit(beneficiary common.Address) error {
	return t.Credit(beneficiary, RecordDeposit)
}
