package domain

import "github.com/ethereum/go-ethereum/common"

// AttestationTTL 证明的有效期（秒）。超过 300s 的证明一律拒绝，
// 限制证明签发后可被利用的时间窗口。
const AttestationTTL int64 = 300

// Attestation 一次性、限时的地板价证明记录。
// 由 create_attestation 创建；force_cancel 消费（置 Used=true）后永不再更新。
// 以 (attestor, nonce) 唯一标识。
type Attestation struct {
	Attestor   common.Address `json:"attestor"`
	Collection common.Hash    `json:"collection"`
	// Floor 外部证明的市场地板价（不透明数值，引擎不做价格源逻辑）
	Floor     uint64 `json:"floor"`
	Timestamp int64  `json:"timestamp"`
	Nonce     uint64 `json:"nonce"`
	Used      bool   `json:"used"`
	Salt      uint8  `json:"salt"`
}

// Expired 判断证明在 now 时刻是否已过期。
func (a *Attestation) Expired(now int64) bool {
	return now-a.Timestamp > AttestationTTL
}

// AttestorState 每个 attestor 的单例状态：严格单调递增的 nonce 计数器。
// nonce 在证明创建时先作为记录键使用、再自增，保证每个证明占据
// 一个唯一且永不复用的槽位，顺序签发下 nonce 无间隙。
type AttestorState struct {
	Attestor  common.Address `json:"attestor"`
	LastNonce uint64         `json:"last_nonce"`
	Salt      uint8          `json:"salt"`
}
