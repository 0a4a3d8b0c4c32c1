package pricemath

import (
	"math"
	"testing"
	"testing/quick"
)

func TestSplitPayment_SpecScenario(t *testing.T) {
	// price=600, fee=250bps(2.5%), royalty=500bps(5%)
	// => fee=15, royalty=30, seller=555, sum=600
	s, err := SplitPayment(600, 250, 500)
	if err != nil {
		t.Fatalf("SplitPayment error: %v", err)
	}
	if s.MarketplaceFee != 15 {
		t.Fatalf("fee got=%d want=15", s.MarketplaceFee)
	}
	if s.Royalty != 30 {
		t.Fatalf("royalty got=%d want=30", s.Royalty)
	}
	if s.SellerAmount != 555 {
		t.Fatalf("seller got=%d want=555", s.SellerAmount)
	}
	total, err := s.Total()
	if err != nil || total != 600 {
		t.Fatalf("total got=%d err=%v want=600", total, err)
	}
}

func TestSplitPayment_ZeroAndEdge(t *testing.T) {
	// price=0：全零分账
	s, err := SplitPayment(0, 250, 500)
	if err != nil {
		t.Fatalf("price=0 error: %v", err)
	}
	if s.SellerAmount != 0 || s.MarketplaceFee != 0 || s.Royalty != 0 {
		t.Fatalf("price=0 split=%+v want all zero", s)
	}

	// 整数向下取整：price=1，费率都取整为 0，卖家拿全额
	s, err = SplitPayment(1, 250, 500)
	if err != nil {
		t.Fatalf("price=1 error: %v", err)
	}
	if s.SellerAmount != 1 || s.MarketplaceFee != 0 || s.Royalty != 0 {
		t.Fatalf("price=1 split=%+v", s)
	}

	// 最大 price 也不允许中间溢出
	s, err = SplitPayment(math.MaxUint64, 1000, 500)
	if err != nil {
		t.Fatalf("max price error: %v", err)
	}
	total, err := s.Total()
	if err != nil || total != math.MaxUint64 {
		t.Fatalf("max price total=%d err=%v", total, err)
	}
}

func TestSplitPayment_BpsOutOfRange(t *testing.T) {
	// fee+royalty 超过 100% 必须报溢出，而不是让卖家倒贴
	if _, err := SplitPayment(1000, 9999, 9999); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

// **Property: 对任意 price/费率，fee+royalty+seller == price 精确成立**
func TestProperty_SplitSumExact(t *testing.T) {
	property := func(price uint64, feeBps, royaltyBps uint16) bool {
		// 输入域约束：费率合计不超过 100%
		feeBps %= 1001     // 市场费上限 10%
		royaltyBps %= 1001 // 版税同量级
		s, err := SplitPayment(price, feeBps, royaltyBps)
		if err != nil {
			return false
		}
		total, err := s.Total()
		if err != nil {
			return false
		}
		if total != price {
			t.Logf("sum mismatch: price=%d split=%+v total=%d", price, s, total)
			return false
		}
		// fee+royalty 只会偏低，绝不偏高
		if s.MarketplaceFee > price || s.Royalty > price {
			return false
		}
		return true
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 2000}); err != nil {
		t.Fatal(err)
	}
}
