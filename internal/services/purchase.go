package services

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/veritymkt/verity/internal/custody"
	"github.com/veritymkt/verity/internal/domain"
	"github.com/veritymkt/verity/internal/events"
	"github.com/veritymkt/verity/internal/ledger"
	"github.com/veritymkt/verity/pkg/pricemath"
)

var purchaseLog = logrus.WithField("component", "purchase")

// SaleReceipt 一次成交的结算回执
type SaleReceipt struct {
	Buyer        common.Address `json:"buyer"`
	Seller       common.Address `json:"seller"`
	Asset        common.Hash    `json:"asset"`
	Price        uint64         `json:"price"`
	Fee          uint64         `json:"fee"`
	Royalty      uint64         `json:"royalty"`
	SellerAmount uint64         `json:"seller_amount"`
	Time         time.Time      `json:"time"`
}

// BuyNow 立即购买：按当前时刻计算售价、做三方分账、原子结算。
//
// 事务内顺序：卖家货款 → 市场费 → 版税 → 资产过户 → 置 Sold → 销毁挂单。
// 任何一步失败整个操作零副作用中止——没有部分结算状态可言。
func (m *Marketplace) BuyNow(buyer common.Address, seller common.Address, asset common.Hash) (*SaleReceipt, error) {
	now := m.now()
	var receipt *SaleReceipt

	err := m.store.Execute(func(txn *ledger.Txn) error {
		cfg, err := txn.GetConfig()
		if err != nil {
			return err
		}

		listing, err := txn.GetListing(seller, asset)
		if err != nil {
			if err == ledger.ErrRecordNotFound {
				return domain.ErrListingNotActive
			}
			return err
		}
		if !listing.IsActive() {
			return domain.ErrListingNotActive
		}

		// 成交条件（时间窗口；min_floor 只接受不校验）
		if err := listing.Conditions.CheckWindow(now); err != nil {
			return err
		}

		vault, err := txn.GetVault(seller, asset)
		if err != nil {
			if err == ledger.ErrRecordNotFound {
				return domain.ErrVaultMismatch
			}
			return err
		}
		if ledger.VaultKey(seller, asset) != listing.VaultKey {
			return domain.ErrVaultMismatch
		}
		// 防御性占用校验：金库必须真的还持有这 1 单位资产
		held, err := custody.HoldingAmount(txn, vault.CustodyAccount, asset)
		if err != nil {
			return err
		}
		if held != 1 {
			return domain.ErrAssetNotInVault
		}

		// 定价与分账
		price := listing.Price.CurrentPrice(now)
		split, err := pricemath.SplitPayment(price, cfg.FeeBps, pricemath.RoyaltyBps)
		if err != nil {
			return domain.ErrArithmeticOverflow
		}

		// 货款：买家 → 卖家
		if err := txn.TransferNative(buyer, seller, split.SellerAmount); err != nil {
			return err
		}
		// 市场费：买家 → 费用接收方
		if err := txn.TransferNative(buyer, cfg.FeeRecipient, split.MarketplaceFee); err != nil {
			return err
		}
		// 版税：目前付给卖家（独立的版税接收方待资产元数据支持）
		if err := txn.TransferNative(buyer, seller, split.Royalty); err != nil {
			return err
		}

		// 资产过户：金库托管子账户 → 买家
		cap := custody.MintCapability(vault.CustodyAccount)
		if err := m.delegate.Transfer(txn, cap, vault.CustodyAccount, buyer, asset, 1); err != nil {
			return err
		}

		listing.State = domain.ListingStateSold
		// 终态：销毁挂单记录，押金退还卖家
		if err := txn.DeleteListing(seller, asset); err != nil {
			return err
		}
		if err := txn.RefundDeposit(seller); err != nil {
			return err
		}

		receipt = &SaleReceipt{
			Buyer:        buyer,
			Seller:       seller,
			Asset:        asset,
			Price:        price,
			Fee:          split.MarketplaceFee,
			Royalty:      split.Royalty,
			SellerAmount: split.SellerAmount,
			Time:         time.Unix(now, 0),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	purchaseLog.WithFields(logrus.Fields{
		"buyer":  buyer.Hex(),
		"seller": seller.Hex(),
		"asset":  asset.Hex(),
		"price":  receipt.Price,
		"fee":    receipt.Fee,
	}).Info("购买完成")
	m.bus.Publish(events.TypeListingSold, events.ListingSoldEvent{
		Seller:       seller,
		Buyer:        buyer,
		Asset:        asset,
		Price:        receipt.Price,
		Fee:          receipt.Fee,
		Royalty:      receipt.Royalty,
		SellerAmount: receipt.SellerAmount,
	})
	return receipt, nil
}
