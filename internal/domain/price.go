package domain

import (
	"github.com/veritymkt/verity/pkg/pricemath"
)

// PriceType 定价模型类型
type PriceType uint8

const (
	PriceTypeFixed       PriceType = iota // 固定价格
	PriceTypeLinearDecay                  // start_price → min_price 线性衰减
	PriceTypeExponential                  // 指数衰减（未实现，当前行为等同 Fixed）
)

func (p PriceType) String() string {
	switch p {
	case PriceTypeFixed:
		return "fixed"
	case PriceTypeLinearDecay:
		return "linear_decay"
	case PriceTypeExponential:
		return "exponential"
	}
	return "unknown"
}

// PriceConfig 挂单的定价配置。所有金额为原生最小单位（u64 定点）。
type PriceConfig struct {
	Type       PriceType `json:"type"`
	StartPrice uint64    `json:"start_price"`
	MinPrice   uint64    `json:"min_price"`
	StartTS    int64     `json:"start_ts"`
	Duration   int64     `json:"duration"`
}

// Validate 校验定价配置（挂单创建时调用）。
// 不变量：start_price >= min_price > 0；非 Fixed 类型要求 duration > 0。
func (c PriceConfig) Validate() error {
	if c.StartPrice == 0 {
		return ErrInvalidPrice
	}
	if c.MinPrice == 0 {
		return ErrInvalidPrice
	}
	if c.StartPrice < c.MinPrice {
		return ErrInvalidPrice
	}
	if c.Type != PriceTypeFixed && c.Duration <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// CurrentPrice 计算 now 时刻的当前售价。
// 纯函数：同样的 (config, now) 永远得到同样的价格，无副作用，
// 购买路径和链下价格模拟共用同一实现。
func (c PriceConfig) CurrentPrice(now int64) uint64 {
	switch c.Type {
	case PriceTypeLinearDecay:
		if now <= c.StartTS {
			return c.StartPrice
		}
		elapsed := uint64(now - c.StartTS)
		return pricemath.LinearDecay(c.StartPrice, c.MinPrice, elapsed, uint64(c.Duration))
	case PriceTypeExponential:
		// 指数衰减尚未实现：当前与 Fixed 行为一致
		return c.StartPrice
	default:
		return c.StartPrice
	}
}
