package services

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/veritymkt/verity/internal/custody"
	"github.com/veritymkt/verity/internal/domain"
	"github.com/veritymkt/verity/internal/events"
	"github.com/veritymkt/verity/internal/ledger"
)

var marketplaceLog = logrus.WithField("component", "marketplace")

// Marketplace 市场引擎：所有公开操作都是单个原子工作单元。
// 引擎内没有线程调度：每个操作在台账的一个事务里完成全部校验与变更，
// 要么整体提交、要么零副作用中止（all-or-nothing 由台账环境保证）。
type Marketplace struct {
	store    *ledger.Store
	delegate custody.Delegate
	bus      *events.Bus
	clock    func() time.Time
}

// Option 引擎构造选项
type Option func(*Marketplace)

// WithClock 注入时钟（测试用；默认 time.Now）
func WithClock(clock func() time.Time) Option {
	return func(m *Marketplace) { m.clock = clock }
}

// WithBus 注入事件总线
func WithBus(bus *events.Bus) Option {
	return func(m *Marketplace) { m.bus = bus }
}

// WithDelegate 注入托管代理实现
func WithDelegate(d custody.Delegate) Option {
	return func(m *Marketplace) { m.delegate = d }
}

// NewMarketplace 创建市场引擎
func NewMarketplace(store *ledger.Store, opts ...Option) *Marketplace {
	m := &Marketplace{
		store:    store,
		delegate: custody.LedgerDelegate{},
		bus:      events.NewBus(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bus 返回引擎的事件总线（服务端接 ws 推送用）
func (m *Marketplace) Bus() *events.Bus {
	return m.bus
}

func (m *Marketplace) now() int64 {
	return m.clock().Unix()
}

// InitConfig 初始化市场全局配置单例。只能成功一次；不存在更新操作。
func (m *Marketplace) InitConfig(authority common.Address, feeBps uint16, feeRecipient common.Address) error {
	cfg := &domain.Config{
		Authority:    authority,
		FeeBps:       feeBps,
		FeeRecipient: feeRecipient,
		Salt:         ledger.SaltOf(ledger.ConfigKey()),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	err := m.store.Execute(func(txn *ledger.Txn) error {
		exists, err := txn.Has(ledger.ConfigKey())
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrConfigExists
		}
		if err := txn.ChargeDeposit(authority); err != nil {
			return err
		}
		return txn.PutConfig(cfg)
	})
	if err != nil {
		return err
	}

	marketplaceLog.WithFields(logrus.Fields{
		"authority": authority.Hex(),
		"fee_bps":   feeBps,
	}).Info("市场配置已初始化")
	m.bus.Publish(events.TypeConfigInitialized, nil)
	return nil
}

// GetConfig 读取市场配置
func (m *Marketplace) GetConfig() (*domain.Config, error) {
	var cfg *domain.Config
	err := m.store.View(func(txn *ledger.Txn) error {
		var err error
		cfg, err = txn.GetConfig()
		return err
	})
	return cfg, err
}

// GetVault 读取金库记录
func (m *Marketplace) GetVault(owner common.Address, asset common.Hash) (*domain.UserVault, error) {
	var v *domain.UserVault
	err := m.store.View(func(txn *ledger.Txn) error {
		var err error
		v, err = txn.GetVault(owner, asset)
		return err
	})
	return v, err
}

// GetListing 读取挂单记录
func (m *Marketplace) GetListing(seller common.Address, asset common.Hash) (*domain.Listing, error) {
	var l *domain.Listing
	err := m.store.View(func(txn *ledger.Txn) error {
		var err error
		l, err = txn.GetListing(seller, asset)
		return err
	})
	return l, err
}

// GetAttestation 读取证明记录
func (m *Marketplace) GetAttestation(attestor common.Address, nonce uint64) (*domain.Attestation, error) {
	var a *domain.Attestation
	err := m.store.View(func(txn *ledger.Txn) error {
		var err error
		a, err = txn.GetAttestation(attestor, nonce)
		return err
	})
	return a, err
}

// Quote 计算挂单在 at 时刻的售价（只读，不产生任何状态变更）。
// 与购买路径共用同一个纯函数，可用于链下价格模拟。
func (m *Marketplace) Quote(seller common.Address, asset common.Hash, at time.Time) (uint64, error) {
	var price uint64
	err := m.store.View(func(txn *ledger.Txn) error {
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
		price = listing.Price.CurrentPrice(at.Unix())
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "quote")
	}
	return price, nil
}
