// Package testkit 提供测试用的确定性身份：
// 从固定助记词按 BIP-44 路径派生地址，保证各包测试里的
// 卖家/买家/管理者身份稳定可复现。
package testkit

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// Mnemonic 测试助记词（公开、仅测试用）
const Mnemonic = "myth like bonus scare over problem client lizard pioneer submit female collect"

// Address 派生第 index 个测试地址（m/44'/60'/0'/0/index）。
func Address(t *testing.T, index int) common.Address {
	t.Helper()
	wallet, err := hdwallet.NewFromMnemonic(Mnemonic)
	if err != nil {
		t.Fatalf("testkit: new wallet: %v", err)
	}
	path := hdwallet.MustParseDerivationPath(fmt.Sprintf("m/44'/60'/0'/0/%d", index))
	account, err := wallet.Derive(path, false)
	if err != nil {
		t.Fatalf("testkit: derive %d: %v", index, err)
	}
	return account.Address
}
