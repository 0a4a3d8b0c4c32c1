package domain

import "github.com/ethereum/go-ethereum/common"

// UserVault 用户自持的托管记录（escrowless 架构的核心）。
// 金库属于用户本人而不是市场：挂单只引用金库，从不直接持有资产。
// 每个 (owner, asset) 至多存在一个金库；金库独立于任何挂单存在。
type UserVault struct {
	Owner common.Address `json:"owner"`
	Asset common.Hash    `json:"asset"`
	// CustodyAccount 实际持有该资产的托管子账户地址（由金库键派生）
	CustodyAccount common.Address `json:"custody_account"`
	// Salt 派生盐，加载时与记录键重新核对
	Salt uint8 `json:"salt"`
}
