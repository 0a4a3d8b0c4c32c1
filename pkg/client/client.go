package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Client 市场引擎 HTTP API 的类型化客户端
type Client struct {
	http *resty.Client
}

// New 创建客户端
func New(host string) *Client {
	if strings.HasSuffix(host, "/") {
		host = host[:len(host)-1]
	}

	// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY）
	http := resty.New().
		SetBaseURL(host).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second)

	return &Client{http: http}
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	r := c.http.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "application/json")
	return r
}

// do 发送请求并统一处理非 2xx 响应
func do(r *resty.Request, method, endpoint string) error {
	var apiErr apiError
	r.SetError(&apiErr)

	resp, err := r.Execute(method, endpoint)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, endpoint)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return errors.Errorf("%s %s: %d %s", method, endpoint, resp.StatusCode(), apiErr.Error)
		}
		return errors.Errorf("%s %s: %d", method, endpoint, resp.StatusCode())
	}
	return nil
}

// InitConfig 初始化市场全局配置（只能成功一次）
func (c *Client) InitConfig(ctx context.Context, authority string, feeBps uint16, feeRecipient string) error {
	return do(c.newRequest(ctx).SetBody(map[string]any{
		"authority":     authority,
		"fee_bps":       feeBps,
		"fee_recipient": feeRecipient,
	}), "POST", "/api/config/")
}

// ConfigResponse 市场配置
type ConfigResponse struct {
	Authority    string `json:"authority"`
	FeeBps       uint16 `json:"fee_bps"`
	FeeRecipient string `json:"fee_recipient"`
}

// GetConfig 读取市场配置
func (c *Client) GetConfig(ctx context.Context) (*ConfigResponse, error) {
	var out ConfigResponse
	err := do(c.newRequest(ctx).SetResult(&out), "GET", "/api/config/")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// InitVault 创建用户金库并存入资产
func (c *Client) InitVault(ctx context.Context, owner, asset string) (string, error) {
	var out struct {
		VaultKey string `json:"vault_key"`
	}
	err := do(c.newRequest(ctx).SetBody(map[string]any{
		"owner": owner,
		"asset": asset,
	}).SetResult(&out), "POST", "/api/vaults/")
	return out.VaultKey, err
}

// WithdrawVault 从金库取回资产并销毁金库
func (c *Client) WithdrawVault(ctx context.Context, owner, asset string) error {
	return do(c.newRequest(ctx).SetBody(map[string]any{
		"owner": owner,
		"asset": asset,
	}), "POST", "/api/vaults/withdraw")
}

// PriceParams 定价配置
type PriceParams struct {
	Type       string `json:"type"`
	StartPrice uint64 `json:"start_price"`
	MinPrice   uint64 `json:"min_price"`
	StartTS    int64  `json:"start_ts,omitempty"`
	Duration   int64  `json:"duration,omitempty"`
}

// ConditionParams 成交条件
type ConditionParams struct {
	MinFloor   *uint64 `json:"min_floor,omitempty"`
	ValidFrom  *int64  `json:"valid_from,omitempty"`
	ValidUntil *int64  `json:"valid_until,omitempty"`
}

// CreateListing 创建挂单
func (c *Client) CreateListing(ctx context.Context, seller, asset string, price PriceParams, conditions ConditionParams) (string, error) {
	var out struct {
		ListingKey string `json:"listing_key"`
	}
	err := do(c.newRequest(ctx).SetBody(map[string]any{
		"seller":     seller,
		"asset":      asset,
		"price":      price,
		"conditions": conditions,
	}).SetResult(&out), "POST", "/api/listings/")
	return out.ListingKey, err
}

// CancelListing 取消挂单（只有卖家本人可以取消）
func (c *Client) CancelListing(ctx context.Context, caller, seller, asset string) error {
	return do(c.newRequest(ctx).SetBody(map[string]any{
		"caller": caller,
		"seller": seller,
		"asset":  asset,
	}), "POST", "/api/listings/cancel")
}

// Receipt 成交回执
type Receipt struct {
	ID           string `json:"id"`
	Buyer        string `json:"buyer"`
	Seller       string `json:"seller"`
	Asset        string `json:"asset"`
	Price        uint64 `json:"price"`
	Fee          uint64 `json:"fee"`
	Royalty      uint64 `json:"royalty"`
	SellerAmount uint64 `json:"seller_amount"`
	CreatedAt    string `json:"created_at"`
}

// BuyNow 按当前价格立即购买
func (c *Client) BuyNow(ctx context.Context, buyer, seller, asset string) (*Receipt, error) {
	var out Receipt
	err := do(c.newRequest(ctx).SetBody(map[string]any{
		"buyer":  buyer,
		"seller": seller,
		"asset":  asset,
	}).SetResult(&out), "POST", "/api/listings/buy")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Quote 查询挂单在 at 时刻的售价（at 为零值时用服务端当前时间）
func (c *Client) Quote(ctx context.Context, seller, asset string, at time.Time) (uint64, error) {
	var out struct {
		Price uint64 `json:"price"`
	}
	r := c.newRequest(ctx).SetResult(&out).
		SetQueryParam("seller", seller).
		SetQueryParam("asset", asset)
	if !at.IsZero() {
		r.SetQueryParam("at", fmt.Sprintf("%d", at.Unix()))
	}
	err := do(r, "GET", "/api/listings/quote")
	return out.Price, err
}

// InitAttestor 初始化 attestor 状态
func (c *Client) InitAttestor(ctx context.Context, attestor string) error {
	return do(c.newRequest(ctx).SetBody(map[string]any{
		"attestor": attestor,
	}), "POST", "/api/attestors/")
}

// CreateAttestation 签发地板价证明，返回分配的 nonce
func (c *Client) CreateAttestation(ctx context.Context, attestor, collection string, floor uint64) (uint64, error) {
	var out struct {
		Nonce uint64 `json:"nonce"`
	}
	err := do(c.newRequest(ctx).SetBody(map[string]any{
		"attestor":   attestor,
		"collection": collection,
		"floor":      floor,
	}).SetResult(&out), "POST", "/api/attestations/")
	return out.Nonce, err
}

// ForceCancel 凭地板价证明强制取消挂单
func (c *Client) ForceCancel(ctx context.Context, attestor string, nonce uint64, collection, seller, asset string) error {
	return do(c.newRequest(ctx).SetBody(map[string]any{
		"attestor":   attestor,
		"nonce":      nonce,
		"collection": collection,
		"seller":     seller,
		"asset":      asset,
	}), "POST", "/api/listings/force_cancel")
}

// Receipts 查询成交回执（seller/buyer 为空串时不过滤）
func (c *Client) Receipts(ctx context.Context, seller, buyer string, limit int) ([]Receipt, error) {
	var out struct {
		Receipts []Receipt `json:"receipts"`
	}
	r := c.newRequest(ctx).SetResult(&out)
	if seller != "" {
		r.SetQueryParam("seller", seller)
	}
	if buyer != "" {
		r.SetQueryParam("buyer", buyer)
	}
	if limit > 0 {
		r.SetQueryParam("limit", fmt.Sprintf("%d", limit))
	}
	err := do(r, "GET", "/api/receipts/")
	return out.Receipts, err
}

// FormatAmount 把最小单位金额格式化为带小数位的显示值
// 例如 decimals=9 时 1_500_000_000 -> "1.5"
func FormatAmount(raw uint64, decimals int32) string {
	return decimal.NewFromUint64(raw).Shift(-decimals).String()
}
