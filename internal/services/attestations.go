package services

import (
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/veritymkt/verity/internal/custody"
	"github.com/veritymkt/verity/internal/domain"
	"github.com/veritymkt/verity/internal/events"
	"github.com/veritymkt/verity/internal/ledger"
)

var attestationLog = logrus.WithField("component", "attestation")

// InitAttestorState 为 attestor 创建清零的 nonce 计数器单例。
// 必须先于 CreateAttestation 调用；重复初始化报错。
func (m *Marketplace) InitAttestorState(attestor common.Address) error {
	key := ledger.AttestorKey(attestor)

	err := m.store.Execute(func(txn *ledger.Txn) error {
		exists, err := txn.Has(key)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrAlreadyInitialized
		}
		if err := txn.ChargeDeposit(attestor); err != nil {
			return err
		}
		return txn.PutAttestorState(&domain.AttestorState{
			Attestor:  attestor,
			LastNonce: 0,
			Salt:      ledger.SaltOf(key),
		})
	})
	if err != nil {
		return err
	}

	attestationLog.WithField("attestor", attestor.Hex()).Info("attestor 状态已初始化")
	return nil
}

// GetAttestorState 读取 attestor 的 nonce 计数器
func (m *Marketplace) GetAttestorState(attestor common.Address) (*domain.AttestorState, error) {
	var st *domain.AttestorState
	err := m.store.View(func(txn *ledger.Txn) error {
		var err error
		st, err = txn.GetAttestorState(attestor)
		return err
	})
	return st, err
}

// CreateAttestation 签发一条地板价证明。
// 仅允许 Config authority 调用（目前唯一受信任的 attestor）。
//
// nonce 协议：先用 last_nonce 作为记录键落盘，再自增——
// 每条证明占据唯一且永不复用的槽位，顺序签发下 nonce 严格递增无间隙。
func (m *Marketplace) CreateAttestation(caller common.Address, collection common.Hash, floor uint64) (uint64, error) {
	now := m.now()
	var nonce uint64

	err := m.store.Execute(func(txn *ledger.Txn) error {
		cfg, err := txn.GetConfig()
		if err != nil {
			return err
		}
		if caller != cfg.Authority {
			return domain.ErrUnauthorizedAttestor
		}

		st, err := txn.GetAttestorState(caller)
		if err != nil {
			return errors.Wrap(err, "attestor state must be initialized first")
		}

		nonce = st.LastNonce
		key := ledger.AttestationKey(caller, nonce)

		if err := txn.ChargeDeposit(caller); err != nil {
			return err
		}
		if err := txn.PutAttestation(&domain.Attestation{
			Attestor:   caller,
			Collection: collection,
			Floor:      floor,
			Timestamp:  now,
			Nonce:      nonce,
			Used:       false,
			Salt:       ledger.SaltOf(key),
		}); err != nil {
			return err
		}

		next, carry := bits.Add64(st.LastNonce, 1, 0)
		if carry != 0 {
			return domain.ErrArithmeticOverflow
		}
		st.LastNonce = next
		return txn.PutAttestorState(st)
	})
	if err != nil {
		return 0, err
	}

	attestationLog.WithFields(logrus.Fields{
		"collection": collection.Hex(),
		"floor":      floor,
		"nonce":      nonce,
	}).Info("证明已签发")
	m.bus.Publish(events.TypeAttestationCreated, events.AttestationCreatedEvent{
		Attestor:   caller,
		Collection: collection,
		Floor:      floor,
		Nonce:      nonce,
	})
	return nonce, nil
}

// ForceCancel 凭一条有效证明强制取消挂单：应急安全阀。
// 只有当外部证明的市场地板价低于挂单自己的 min_price 时才成立——
// 说明挂单地板已经过时、不再足以保护卖家。
//
// 校验顺序（与重放保护语义绑定，勿调整）：
// attestor 身份 → collection 匹配 → 未被消费 → TTL（300s）→ 地板价条件。
// 通过后先把证明标记为已消费，再做任何资产移动：
// 重放保护的生效不依赖后续转移是否成功（同事务原子性保证两者一致）。
func (m *Marketplace) ForceCancel(
	attestor common.Address,
	nonce uint64,
	collection common.Hash,
	seller common.Address,
	asset common.Hash,
) error {
	now := m.now()
	var (
		attestedFloor uint64
		listingFloor  uint64
	)

	err := m.store.Execute(func(txn *ledger.Txn) error {
		cfg, err := txn.GetConfig()
		if err != nil {
			return err
		}

		att, err := txn.GetAttestation(attestor, nonce)
		if err != nil {
			return errors.Wrap(err, "load attestation")
		}

		if att.Attestor != cfg.Authority {
			return domain.ErrUnauthorizedAttestor
		}
		if att.Collection != collection {
			return domain.ErrInvalidMetadata
		}
		if att.Used {
			return domain.ErrAttestationUsed
		}
		if att.Expired(now) {
			return domain.ErrAttestationExpired
		}

		// 资产必须属于证明所指的 collection
		meta, err := custody.AssetMeta(txn, asset)
		if err != nil {
			return err
		}
		if meta.Collection != collection {
			return domain.ErrInvalidMetadata
		}

		listing, err := txn.GetListing(seller, asset)
		if err != nil {
			if err == ledger.ErrRecordNotFound {
				return domain.ErrListingNotActive
			}
			return err
		}
		if !listing.IsActive() {
			return domain.ErrListingNotActive
		}
		if att.Floor >= listing.Price.MinPrice {
			return domain.ErrFloorTooHigh
		}
		attestedFloor = att.Floor
		listingFloor = listing.Price.MinPrice

		// 先消费证明，再移动资产
		att.Used = true
		if err := txn.PutAttestation(att); err != nil {
			return err
		}

		vault, err := txn.GetVault(seller, asset)
		if err != nil {
			if err == ledger.ErrRecordNotFound {
				return domain.ErrVaultMismatch
			}
			return err
		}
		if ledger.VaultKey(seller, asset) != listing.VaultKey {
			return domain.ErrVaultMismatch
		}
		held, err := custody.HoldingAmount(txn, vault.CustodyAccount, asset)
		if err != nil {
			return err
		}
		if held != 1 {
			return domain.ErrAssetNotInVault
		}

		// 资产退回卖家
		cap := custody.MintCapability(vault.CustodyAccount)
		if err := m.delegate.Transfer(txn, cap, vault.CustodyAccount, seller, asset, 1); err != nil {
			return err
		}

		// 销毁托管子账户与金库记录，押金退还卖家
		if err := custody.ClearHolding(txn, vault.CustodyAccount, asset); err != nil {
			return err
		}
		if err := txn.DeleteVault(seller, asset); err != nil {
			return err
		}
		if err := txn.RefundDeposit(seller); err != nil {
			return err
		}

		// 销毁挂单记录，押金退还卖家
		if err := txn.DeleteListing(seller, asset); err != nil {
			return err
		}
		return txn.RefundDeposit(seller)
	})
	if err != nil {
		return err
	}

	attestationLog.WithFields(logrus.Fields{
		"seller":         seller.Hex(),
		"asset":          asset.Hex(),
		"attested_floor": attestedFloor,
		"listing_floor":  listingFloor,
		"nonce":          nonce,
	}).Warn("挂单已被强制取消")
	m.bus.Publish(events.TypeListingForceCancelled, events.ListingForceCancelledEvent{
		Seller:        seller,
		Asset:         asset,
		Collection:    collection,
		AttestedFloor: attestedFloor,
		ListingFloor:  listingFloor,
		Nonce:         nonce,
	})
	return nil
}
