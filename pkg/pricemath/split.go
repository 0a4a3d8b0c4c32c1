package pricemath

import (
	"fmt"
	"math/bits"
)

// BpsDenominator 基点分母：1 bps = 1/10000。
const BpsDenominator = 10000

// RoyaltyBps 版税费率（基点）。目前是固定常量（5%），
// 未来应从资产元数据读取，见 DESIGN.md。
const RoyaltyBps uint16 = 500

// ErrOverflow 表示分账计算中出现了溢出/下溢。
var ErrOverflow = fmt.Errorf("pricemath: arithmetic overflow")

// Split 一次购买的三方分账结果。
// 不变量：SellerAmount + MarketplaceFee + Royalty == price（精确相等）。
type Split struct {
	SellerAmount   uint64
	MarketplaceFee uint64
	Royalty        uint64
}

// Total 返回三项之和（用于校验不变量）。
func (s Split) Total() (uint64, error) {
	t, carry := addChecked(s.SellerAmount, s.MarketplaceFee)
	if carry {
		return 0, ErrOverflow
	}
	t, carry = addChecked(t, s.Royalty)
	if carry {
		return 0, ErrOverflow
	}
	return t, nil
}

// SplitPayment 按 feeBps / royaltyBps 对 price 做三方分账。
//
// fee = floor(price * feeBps / 10000)
// royalty = floor(price * royaltyBps / 10000)
// seller = price - fee - royalty
//
// 乘法在 128 位域内完成；两次减法做 checked 校验。
// 整数向下取整意味着 fee+royalty 相对名义费率最多偏低 2 个最小单位，绝不偏高，
// 因此 seller 只会多拿零头，分账总和恒等于 price。
func SplitPayment(price uint64, feeBps, royaltyBps uint16) (Split, error) {
	if uint32(feeBps)+uint32(royaltyBps) > BpsDenominator {
		return Split{}, ErrOverflow
	}

	fee := mulBps(price, feeBps)
	royalty := mulBps(price, royaltyBps)

	seller, borrow := subChecked(price, fee)
	if borrow {
		return Split{}, ErrOverflow
	}
	seller, borrow = subChecked(seller, royalty)
	if borrow {
		return Split{}, ErrOverflow
	}

	return Split{
		SellerAmount:   seller,
		MarketplaceFee: fee,
		Royalty:        royalty,
	}, nil
}

// mulBps 计算 floor(v * bps / 10000)，中间值放宽到 128 位。
// 调用方保证 bps <= 10000，因此商不会超出 u64。
func mulBps(v uint64, bps uint16) uint64 {
	hi, lo := bits.Mul64(v, uint64(bps))
	q, _ := bits.Div64(hi, lo, BpsDenominator)
	return q
}

func addChecked(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry != 0
}

func subChecked(a, b uint64) (uint64, bool) {
	diff, borrow := bits.Sub64(a, b, 0)
	return diff, borrow != 0
}
