package pricemath

import "math/bits"

// 本包为纯函数集合：给定同样的输入必须产出同样的输出，不读时钟、不碰存储。
// 上层（挂单购买路径、链下价格模拟）都依赖这一性质。

// LinearDecay 计算线性衰减后的当前价格（原生最小单位）。
//
// 公式：price = start - ((start - min) * elapsed / duration)
//
// 说明：
// - elapsed >= duration 时直接返回 min（衰减结束）。
// - 中间乘法在 128 位域内完成（bits.Mul64/Div64），避免 u64 溢出。
// - 使用饱和而非 checked 运算：输入在挂单创建时已做过范围校验
//   （start >= min > 0、duration > 0），且公式单调，饱和不会放大结果。
// - 结果始终钳制在 [min, start] 区间内。
func LinearDecay(start, min, elapsed, duration uint64) uint64 {
	if duration == 0 || elapsed >= duration {
		return min
	}
	if start <= min {
		return min
	}
	diff := start - min
	// elapsed < duration 保证 hi < duration，Div64 不会 panic，
	// 且商必然小于 diff，落回 u64。
	hi, lo := bits.Mul64(diff, elapsed)
	drop, _ := bits.Div64(hi, lo, duration)
	price := start - drop
	if price < min {
		return min
	}
	return price
}
