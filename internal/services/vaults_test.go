package services

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veritymkt/verity/internal/custody"
	"github.com/veritymkt/verity/internal/domain"
	"github.com/veritymkt/verity/internal/ledger"
	"github.com/veritymkt/verity/internal/testkit"
)

func TestInitUserVault(t *testing.T) {
	f := newFixture(t)
	before := f.balance(t, f.seller)

	v := f.initVault(t)
	if v.Owner != f.seller || v.Asset != f.asset {
		t.Fatalf("vault fields mismatch: %+v", v)
	}

	// 资产已从卖家账户移入托管子账户
	if got := f.holding(t, f.seller); got != 0 {
		t.Fatalf("seller still holds asset: %d", got)
	}
	if got := f.holding(t, v.CustodyAccount); got != 1 {
		t.Fatalf("custody account holding got=%d want=1", got)
	}
	// 创建记录收取了押金
	if got := f.balance(t, f.seller); got != before-ledger.RecordDeposit {
		t.Fatalf("deposit not charged: before=%d after=%d", before, got)
	}
}

func TestInitUserVaultDuplicate(t *testing.T) {
	f := newFixture(t)
	f.initVault(t)

	// 资产已入库，持有量为 0，先触发的是数量校验
	_, err := f.mkt.InitUserVault(f.seller, f.asset)
	if !errors.Is(err, domain.ErrInvalidTokenAmount) {
		t.Fatalf("expected ErrInvalidTokenAmount, got %v", err)
	}
}

func TestInitUserVaultExists(t *testing.T) {
	f := newFixture(t)
	f.initVault(t)

	// 让持有量校验通过，命中金库已存在的检查
	err := f.store.Execute(func(txn *ledger.Txn) error {
		return custody.Deposit(txn, f.seller, f.asset, 1)
	})
	if err != nil {
		t.Fatalf("seed holding: %v", err)
	}

	_, err = f.mkt.InitUserVault(f.seller, f.asset)
	if !errors.Is(err, domain.ErrVaultAlreadyExists) {
		t.Fatalf("expected ErrVaultAlreadyExists, got %v", err)
	}
}

func TestInitUserVaultRejectsNonUniqueAsset(t *testing.T) {
	f := newFixture(t)
	fungible := common.HexToHash("0xf46")

	err := f.store.Execute(func(txn *ledger.Txn) error {
		if err := custody.RegisterAsset(txn, custody.Asset{
			ID: fungible, Collection: f.coll, Decimals: 6, Supply: 1_000_000,
		}); err != nil {
			return err
		}
		return custody.Deposit(txn, f.seller, fungible, 1)
	})
	if err != nil {
		t.Fatalf("seed fungible: %v", err)
	}

	_, err = f.mkt.InitUserVault(f.seller, fungible)
	if !errors.Is(err, domain.ErrUnsupportedAsset) {
		t.Fatalf("expected ErrUnsupportedAsset, got %v", err)
	}
}

func TestInitUserVaultRequiresExactlyOneUnit(t *testing.T) {
	f := newFixture(t)
	other := testkit.Address(t, 7)

	// other 不持有该资产
	_, err := f.mkt.InitUserVault(other, f.asset)
	if !errors.Is(err, domain.ErrInvalidTokenAmount) {
		t.Fatalf("expected ErrInvalidTokenAmount, got %v", err)
	}
}

func TestWithdrawFromVault(t *testing.T) {
	f := newFixture(t)
	v := f.initVault(t)
	before := f.balance(t, f.seller)

	if err := f.mkt.WithdrawFromVault(f.seller, f.asset); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	// 资产回到所有者账户，金库记录销毁，押金退还
	if got := f.holding(t, f.seller); got != 1 {
		t.Fatalf("owner holding got=%d want=1", got)
	}
	if got := f.holding(t, v.CustodyAccount); got != 0 {
		t.Fatalf("custody account not emptied: %d", got)
	}
	if _, err := f.mkt.GetVault(f.seller, f.asset); err != ledger.ErrRecordNotFound {
		t.Fatalf("vault record should be destroyed, got %v", err)
	}
	if got := f.balance(t, f.seller); got != before+ledger.RecordDeposit {
		t.Fatalf("deposit not refunded: before=%d after=%d", before, got)
	}
}

func TestWithdrawUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.initVault(t)

	err := f.mkt.WithdrawFromVault(testkit.Address(t, 8), f.asset)
	if !errors.Is(err, domain.ErrUnauthorizedVaultOwner) {
		t.Fatalf("expected ErrUnauthorizedVaultOwner, got %v", err)
	}
}

func TestWithdrawBlockedByActiveListing(t *testing.T) {
	f := newFixture(t)
	f.initVault(t)
	f.fixedListing(t, 500)

	// Active 挂单引用金库时禁止提取
	err := f.mkt.WithdrawFromVault(f.seller, f.asset)
	if !errors.Is(err, domain.ErrVaultLocked) {
		t.Fatalf("expected ErrVaultLocked, got %v", err)
	}

	// 取消挂单后可以提取
	if err := f.mkt.CancelListing(f.seller, f.seller, f.asset); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.mkt.WithdrawFromVault(f.seller, f.asset); err != nil {
		t.Fatalf("withdraw after cancel: %v", err)
	}
}

func TestWithdrawEmptyVaultAfterSale(t *testing.T) {
	f := newFixture(t)
	f.initVault(t)
	f.fixedListing(t, 500)

	if _, err := f.mkt.BuyNow(f.buyer, f.seller, f.asset); err != nil {
		t.Fatalf("buy: %v", err)
	}

	// 售出后金库已空：提取只销毁记录并退押金，不移动资产
	before := f.balance(t, f.seller)
	if err := f.mkt.WithdrawFromVault(f.seller, f.asset); err != nil {
		t.Fatalf("withdraw empty vault: %v", err)
	}
	if got := f.balance(t, f.seller); got != before+ledger.RecordDeposit {
		t.Fatalf("deposit not refunded on empty withdraw")
	}
	// 买家的持仓不受影响
	if got := f.holding(t, f.buyer); got != 1 {
		t.Fatalf("buyer holding got=%d want=1", got)
	}
}
