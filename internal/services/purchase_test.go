package services

import (
	"errors"
	"testing"
	"time"

	"github.com/veritymkt/verity/internal/domain"
	"github.com/veritymkt/verity/internal/ledger"
	"github.com/veritymkt/verity/internal/testkit"
)

func TestBuyNowFixedPrice(t *testing.T) {
	f := newFixture(t)
	v := f.initVault(t)
	f.fixedListing(t, 600)

	sellerBefore := f.balance(t, f.seller)
	buyerBefore := f.balance(t, f.buyer)
	feeBefore := f.balance(t, f.feeRecv)

	receipt, err := f.mkt.BuyNow(f.buyer, f.seller, f.asset)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}

	// 600 @ fee 250bps + 版税 500bps → 15 / 30 / 555
	if receipt.Price != 600 || receipt.Fee != 15 || receipt.Royalty != 30 || receipt.SellerAmount != 555 {
		t.Fatalf("receipt split wrong: %+v", receipt)
	}
	if receipt.Fee+receipt.Royalty+receipt.SellerAmount != receipt.Price {
		t.Fatalf("split does not sum to price: %+v", receipt)
	}

	// 买家付全款；卖家收货款+版税+挂单押金退款；市场费入账
	if got := f.balance(t, f.buyer); got != buyerBefore-600 {
		t.Fatalf("buyer balance got=%d want=%d", got, buyerBefore-600)
	}
	wantSeller := sellerBefore + 555 + 30 + ledger.RecordDeposit
	if got := f.balance(t, f.seller); got != wantSeller {
		t.Fatalf("seller balance got=%d want=%d", got, wantSeller)
	}
	if got := f.balance(t, f.feeRecv); got != feeBefore+15 {
		t.Fatalf("fee recipient got=%d want=%d", got, feeBefore+15)
	}

	// 资产过户给买家，挂单销毁，金库留空待提取
	if got := f.holding(t, f.buyer); got != 1 {
		t.Fatalf("buyer holding got=%d want=1", got)
	}
	if got := f.holding(t, v.CustodyAccount); got != 0 {
		t.Fatalf("vault custody not emptied: %d", got)
	}
	if _, err := f.mkt.GetListing(f.seller, f.asset); err != ledger.ErrRecordNotFound {
		t.Fatalf("listing should be destroyed, got %v", err)
	}
	if _, err := f.mkt.GetVault(f.seller, f.asset); err != nil {
		t.Fatalf("vault record should survive the sale: %v", err)
	}
}

func TestBuyNowDecayPrice(t *testing.T) {
	f := newFixture(t)
	f.initVault(t)

	start := f.clock.Now().Unix()
	_, err := f.mkt.CreateListing(f.seller, f.asset, domain.PriceConfig{
		Type:       domain.PriceTypeLinearDecay,
		StartPrice: 1000,
		MinPrice:   200,
		StartTS:    start,
		Duration:   100,
	}, domain.ListingConditions{})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	// 50 秒后：1000 - (800*50/100) = 600
	f.clock.Advance(50 * time.Second)
	receipt, err := f.mkt.BuyNow(f.buyer, f.seller, f.asset)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if receipt.Price != 600 {
		t.Fatalf("decayed price got=%d want=600", receipt.Price)
	}
}

func TestBuyNowWindow(t *testing.T) {
	f := newFixture(t)
	f.initVault(t)

	now := f.clock.Now().Unix()
	from := now + 100
	until := now + 200
	_, err := f.mkt.CreateListing(f.seller, f.asset, domain.PriceConfig{
		Type: domain.PriceTypeFixed, StartPrice: 500, MinPrice: 500,
	}, domain.ListingConditions{ValidFrom: &from, ValidUntil: &until})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	// 窗口未开
	_, err = f.mkt.BuyNow(f.buyer, f.seller, f.asset)
	if !errors.Is(err, domain.ErrListingNotYetValid) {
		t.Fatalf("expected ErrListingNotYetValid, got %v", err)
	}

	// 边界含端点：valid_from 与 valid_until 当刻均可成交
	f.clock.Set(from)
	if _, err := f.mkt.BuyNow(f.buyer, f.seller, f.asset); err != nil {
		t.Fatalf("buy at valid_from: %v", err)
	}
}

func TestBuyNowExpired(t *testing.T) {
	f := newFixture(t)
	f.initVault(t)

	now := f.clock.Now().Unix()
	until := now + 100
	_, err := f.mkt.CreateListing(f.seller, f.asset, domain.PriceConfig{
		Type: domain.PriceTypeFixed, StartPrice: 500, MinPrice: 500,
	}, domain.ListingConditions{ValidUntil: &until})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	f.clock.Set(until + 1)
	_, err = f.mkt.BuyNow(f.buyer, f.seller, f.asset)
	if !errors.Is(err, domain.ErrListingExpired) {
		t.Fatalf("expected ErrListingExpired, got %v", err)
	}
}

func TestBuyNowNoListing(t *testing.T) {
	f := newFixture(t)
	f.initVault(t)

	_, err := f.mkt.BuyNow(f.buyer, f.seller, f.asset)
	if !errors.Is(err, domain.ErrListingNotActive) {
		t.Fatalf("expected ErrListingNotActive, got %v", err)
	}
}

func TestBuyNowInsufficientFundsIsAtomic(t *testing.T) {
	f := newFixture(t)
	v := f.initVault(t)
	f.fixedListing(t, 600)

	poor := testkit.Address(t, 10) // 余额为零
	sellerBefore := f.balance(t, f.seller)

	_, err := f.mkt.BuyNow(poor, f.seller, f.asset)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// 失败零副作用：挂单仍 Active，资产仍在金库，卖家余额不变
	listing, err := f.mkt.GetListing(f.seller, f.asset)
	if err != nil || !listing.IsActive() {
		t.Fatalf("listing must stay active: %+v %v", listing, err)
	}
	if got := f.holding(t, v.CustodyAccount); got != 1 {
		t.Fatalf("asset must stay in vault: %d", got)
	}
	if got := f.balance(t, f.seller); got != sellerBefore {
		t.Fatalf("seller balance changed on failed buy: %d != %d", got, sellerBefore)
	}
}
