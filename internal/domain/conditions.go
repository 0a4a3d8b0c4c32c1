package domain

// ListingConditions 挂单的可选成交条件。
// 时间窗口两端都是闭区间：now >= valid_from 且 now <= valid_until 才允许成交。
type ListingConditions struct {
	// MinFloor 地板价阈值。购买路径只接受、不校验：
	// 地板保护完全交给 attestation force-cancel 路径执行。
	MinFloor *uint64 `json:"min_floor,omitempty"`
	// ValidFrom 窗口起点（unix 秒，含）
	ValidFrom *int64 `json:"valid_from,omitempty"`
	// ValidUntil 窗口终点（unix 秒，含）
	ValidUntil *int64 `json:"valid_until,omitempty"`
}

// Validate 校验窗口配置本身（挂单创建时调用）。
// 两端都给出时要求 valid_from < valid_until。
func (c ListingConditions) Validate() error {
	if c.ValidFrom != nil && c.ValidUntil != nil && *c.ValidFrom >= *c.ValidUntil {
		return ErrInvalidTimeWindow
	}
	return nil
}

// CheckWindow 在购买时刻校验时间窗口。
func (c ListingConditions) CheckWindow(now int64) error {
	if c.ValidFrom != nil && now < *c.ValidFrom {
		return ErrListingNotYetValid
	}
	if c.ValidUntil != nil && now > *c.ValidUntil {
		return ErrListingExpired
	}
	return nil
}
