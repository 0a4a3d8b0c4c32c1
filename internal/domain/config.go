package domain

import "github.com/ethereum/go-ethereum/common"

// MaxFeeBps 市场费率上限：1000 bps = 10%。
const MaxFeeBps uint16 = 1000

// Config 市场全局配置单例。创建后只读：不存在更新操作。
type Config struct {
	// Authority 市场管理者身份，同时是目前唯一受信任的 attestor
	Authority common.Address `json:"authority"`
	// FeeBps 市场费率（基点，<= 1000）
	FeeBps uint16 `json:"fee_bps"`
	// FeeRecipient 市场费接收方
	FeeRecipient common.Address `json:"fee_recipient"`
	Salt         uint8          `json:"salt"`
}

// Validate 校验费率上限。
func (c Config) Validate() error {
	if c.FeeBps > MaxFeeBps {
		return ErrInvalidFee
	}
	return nil
}
