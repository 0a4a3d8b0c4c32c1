package services

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/veritymkt/verity/internal/custody"
	"github.com/veritymkt/verity/internal/domain"
	"github.com/veritymkt/verity/internal/events"
	"github.com/veritymkt/verity/internal/ledger"
)

var vaultLog = logrus.WithField("component", "vault")

// InitUserVault 创建用户自持金库并把资产移入托管子账户。
// escrowless 架构：金库属于用户，市场从不托管资产。
// 要求：资产必须是唯一资产（decimals=0 且 supply=1），调用方恰好持有 1 单位。
func (m *Marketplace) InitUserVault(owner common.Address, asset common.Hash) (common.Hash, error) {
	key := ledger.VaultKey(owner, asset)

	err := m.store.Execute(func(txn *ledger.Txn) error {
		meta, err := custody.AssetMeta(txn, asset)
		if err != nil {
			return errors.Wrap(err, "load asset metadata")
		}
		if !meta.IsUnique() {
			return domain.ErrUnsupportedAsset
		}

		held, err := custody.HoldingAmount(txn, owner, asset)
		if err != nil {
			return err
		}
		if held != 1 {
			return domain.ErrInvalidTokenAmount
		}

		exists, err := txn.Has(key)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrVaultAlreadyExists
		}

		if err := txn.ChargeDeposit(owner); err != nil {
			return err
		}

		vault := &domain.UserVault{
			Owner:          owner,
			Asset:          asset,
			CustodyAccount: ledger.CustodyAccount(key),
			Salt:           ledger.SaltOf(key),
		}
		if err := txn.PutVault(vault); err != nil {
			return err
		}

		// 资产从用户账户移入金库托管子账户（同事务内，失败则整体回滚）
		cap := custody.MintCapability(owner)
		return m.delegate.Transfer(txn, cap, owner, vault.CustodyAccount, asset, 1)
	})
	if err != nil {
		return common.Hash{}, err
	}

	vaultLog.WithFields(logrus.Fields{
		"owner": owner.Hex(),
		"asset": asset.Hex(),
	}).Info("用户金库已创建")
	m.bus.Publish(events.TypeVaultCreated, events.VaultCreatedEvent{Owner: owner, Asset: asset})
	return key, nil
}

// WithdrawFromVault 把资产取回用户账户并销毁金库（押金退还所有者）。
// 存在 Active 挂单引用金库时拒绝提取（ErrVaultLocked）：
// 防止挂单悬空指向一个已被掏空的金库。
// 金库已空（资产已被售出）时允许直接销毁记录、退还押金。
func (m *Marketplace) WithdrawFromVault(owner common.Address, asset common.Hash) error {
	err := m.store.Execute(func(txn *ledger.Txn) error {
		vault, err := txn.GetVault(owner, asset)
		if err != nil {
			if err == ledger.ErrRecordNotFound {
				return domain.ErrUnauthorizedVaultOwner
			}
			return err
		}
		if vault.Owner != owner {
			return domain.ErrUnauthorizedVaultOwner
		}

		// 金库被 Active 挂单引用时锁定
		listing, err := txn.GetListing(owner, asset)
		if err != nil && err != ledger.ErrRecordNotFound {
			return err
		}
		if err == nil && listing.IsActive() {
			return domain.ErrVaultLocked
		}

		held, err := custody.HoldingAmount(txn, vault.CustodyAccount, asset)
		if err != nil {
			return err
		}
		if held == 1 {
			cap := custody.MintCapability(vault.CustodyAccount)
			if err := m.delegate.Transfer(txn, cap, vault.CustodyAccount, owner, asset, 1); err != nil {
				return err
			}
		}

		if err := custody.ClearHolding(txn, vault.CustodyAccount, asset); err != nil {
			return err
		}
		if err := txn.DeleteVault(owner, asset); err != nil {
			return err
		}
		return txn.RefundDeposit(owner)
	})
	if err != nil {
		return err
	}

	vaultLog.WithFields(logrus.Fields{
		"owner": owner.Hex(),
		"asset": asset.Hex(),
	}).Info("金库已提取销毁")
	m.bus.Publish(events.TypeVaultWithdrawn, events.VaultWithdrawnEvent{Owner: owner, Asset: asset})
	return nil
}
