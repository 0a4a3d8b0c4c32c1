package services

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/veritymkt/verity/internal/custody"
	"github.com/veritymkt/verity/internal/domain"
	"github.com/veritymkt/verity/internal/events"
	"github.com/veritymkt/verity/internal/ledger"
)

var listingLog = logrus.WithField("component", "listing")

// CreateListing 创建引用金库的挂单（不托管资产）。
// 前置：金库属于卖家且恰好持有 1 单位资产；定价与时间窗口配置合法。
func (m *Marketplace) CreateListing(
	seller common.Address,
	asset common.Hash,
	price domain.PriceConfig,
	conditions domain.ListingConditions,
) (common.Hash, error) {
	if err := price.Validate(); err != nil {
		return common.Hash{}, err
	}
	if err := conditions.Validate(); err != nil {
		return common.Hash{}, err
	}

	key := ledger.ListingKey(seller, asset)

	err := m.store.Execute(func(txn *ledger.Txn) error {
		vault, err := txn.GetVault(seller, asset)
		if err != nil {
			if err == ledger.ErrRecordNotFound {
				return domain.ErrUnauthorizedVaultOwner
			}
			return err
		}
		if vault.Owner != seller {
			return domain.ErrUnauthorizedVaultOwner
		}
		if vault.Asset != asset {
			return domain.ErrVaultMismatch
		}

		held, err := custody.HoldingAmount(txn, vault.CustodyAccount, asset)
		if err != nil {
			return err
		}
		if held != 1 {
			return domain.ErrAssetNotInVault
		}

		// 同一金库至多一个挂单
		exists, err := txn.Has(key)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrVaultLocked
		}

		if err := txn.ChargeDeposit(seller); err != nil {
			return err
		}

		listing := &domain.Listing{
			Seller:     seller,
			Asset:      asset,
			VaultKey:   ledger.VaultKey(seller, asset),
			Price:      price,
			Conditions: conditions,
			State:      domain.ListingStateActive,
			Salt:       ledger.SaltOf(key),
		}
		return txn.PutListing(listing)
	})
	if err != nil {
		return common.Hash{}, err
	}

	listingLog.WithFields(logrus.Fields{
		"seller":      seller.Hex(),
		"asset":       asset.Hex(),
		"price_type":  price.Type.String(),
		"start_price": price.StartPrice,
		"min_price":   price.MinPrice,
	}).Info("挂单已创建")
	m.bus.Publish(events.TypeListingCreated, events.ListingCreatedEvent{
		Seller:     seller,
		Asset:      asset,
		PriceType:  price.Type.String(),
		StartPrice: price.StartPrice,
		MinPrice:   price.MinPrice,
	})
	return key, nil
}

// CancelListing 取消挂单：置 Cancelled 终态并销毁记录（押金退还卖家）。
// escrowless 的定义性特征：资产始终留在金库内，取消不发生任何资产移动。
func (m *Marketplace) CancelListing(caller common.Address, seller common.Address, asset common.Hash) error {
	err := m.store.Execute(func(txn *ledger.Txn) error {
		listing, err := txn.GetListing(seller, asset)
		if err != nil {
			if err == ledger.ErrRecordNotFound {
				return domain.ErrListingNotActive
			}
			return err
		}
		if caller != listing.Seller {
			return domain.ErrUnauthorizedSeller
		}
		if !listing.IsActive() {
			return domain.ErrListingNotActive
		}

		listing.State = domain.ListingStateCancelled
		// 终态：记录销毁，押金退还卖家
		if err := txn.DeleteListing(seller, asset); err != nil {
			return err
		}
		return txn.RefundDeposit(seller)
	})
	if err != nil {
		return err
	}

	listingLog.WithFields(logrus.Fields{
		"seller": seller.Hex(),
		"asset":  asset.Hex(),
	}).Info("挂单已取消（资产留在金库）")
	m.bus.Publish(events.TypeListingCancelled, events.ListingCancelledEvent{Seller: seller, Asset: asset})
	return nil
}
