package events

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Type 事件类型
type Type string

const (
	TypeConfigInitialized     Type = "config_initialized"
	TypeVaultCreated          Type = "vault_created"
	TypeVaultWithdrawn        Type = "vault_withdrawn"
	TypeListingCreated        Type = "listing_created"
	TypeListingCancelled      Type = "listing_cancelled"
	TypeListingSold           Type = "listing_sold"
	TypeListingForceCancelled Type = "listing_force_cancelled"
	TypeAttestationCreated    Type = "attestation_created"
)

// Event 市场事件信封。操作成功提交后发布；失败的操作不产生任何事件。
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// ListingCreatedEvent 挂单创建事件
type ListingCreatedEvent struct {
	Seller     common.Address `json:"seller"`
	Asset      common.Hash    `json:"asset"`
	PriceType  string         `json:"price_type"`
	StartPrice uint64         `json:"start_price"`
	MinPrice   uint64         `json:"min_price"`
}

// ListingSoldEvent 挂单成交事件
type ListingSoldEvent struct {
	Seller       common.Address `json:"seller"`
	Buyer        common.Address `json:"buyer"`
	Asset        common.Hash    `json:"asset"`
	Price        uint64         `json:"price"`
	Fee          uint64         `json:"fee"`
	Royalty      uint64         `json:"royalty"`
	SellerAmount uint64         `json:"seller_amount"`
}

// ListingCancelledEvent 挂单取消事件（资产留在金库内）
type ListingCancelledEvent struct {
	Seller common.Address `json:"seller"`
	Asset  common.Hash    `json:"asset"`
}

// ListingForceCancelledEvent 强制取消事件（由地板价证明触发）
type ListingForceCancelledEvent struct {
	Seller        common.Address `json:"seller"`
	Asset         common.Hash    `json:"asset"`
	Collection    common.Hash    `json:"collection"`
	AttestedFloor uint64         `json:"attested_floor"`
	ListingFloor  uint64         `json:"listing_floor"`
	Nonce         uint64         `json:"nonce"`
}

// VaultCreatedEvent 金库创建事件
type VaultCreatedEvent struct {
	Owner common.Address `json:"owner"`
	Asset common.Hash    `json:"asset"`
}

// VaultWithdrawnEvent 金库提取销毁事件
type VaultWithdrawnEvent struct {
	Owner common.Address `json:"owner"`
	Asset common.Hash    `json:"asset"`
}

// AttestationCreatedEvent 证明签发事件
type AttestationCreatedEvent struct {
	Attestor   common.Address `json:"attestor"`
	Collection common.Hash    `json:"collection"`
	Floor      uint64         `json:"floor"`
	Nonce      uint64         `json:"nonce"`
}
