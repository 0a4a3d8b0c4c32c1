package domain

import "github.com/ethereum/go-ethereum/common"

// ListingState 挂单状态机：Active → {Cancelled, Sold}，两个终态都会销毁记录并退还押金。
// 终态之间没有任何转移。
type ListingState uint8

const (
	ListingStateActive ListingState = iota
	ListingStateCancelled
	ListingStateSold
)

func (s ListingState) String() string {
	switch s {
	case ListingStateActive:
		return "active"
	case ListingStateCancelled:
		return "cancelled"
	case ListingStateSold:
		return "sold"
	}
	return "unknown"
}

// Listing 挂单记录：只描述售卖条款，不托管资产本身。
type Listing struct {
	Seller common.Address `json:"seller"`
	Asset  common.Hash    `json:"asset"`
	// VaultKey 引用的 UserVault 记录键
	VaultKey   common.Hash       `json:"vault_key"`
	Price      PriceConfig       `json:"price"`
	Conditions ListingConditions `json:"conditions"`
	State      ListingState      `json:"state"`
	Salt       uint8             `json:"salt"`
}

// IsActive 是否处于可成交状态
func (l *Listing) IsActive() bool {
	return l.State == ListingStateActive
}
