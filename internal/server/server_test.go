package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veritymkt/verity/internal/custody"
	"github.com/veritymkt/verity/internal/ledger"
	"github.com/veritymkt/verity/internal/services"
	"github.com/veritymkt/verity/internal/testkit"
)

type apiFixture struct {
	ts        *httptest.Server
	authority common.Address
	feeRecv   common.Address
	seller    common.Address
	buyer     common.Address
	asset     common.Hash
	coll      common.Hash
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store, err := ledger.Open(ledger.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	f := &apiFixture{
		authority: testkit.Address(t, 0),
		feeRecv:   testkit.Address(t, 1),
		seller:    testkit.Address(t, 2),
		buyer:     testkit.Address(t, 3),
		asset:     common.HexToHash("0xa55e7"),
		coll:      common.HexToHash("0xc011"),
	}

	err = store.Execute(func(txn *ledger.Txn) error {
		for _, addr := range []common.Address{f.authority, f.seller, f.buyer} {
			if err := txn.Credit(addr, 1_000_000_000); err != nil {
				return err
			}
		}
		if err := custody.RegisterAsset(txn, custody.Asset{
			ID: f.asset, Collection: f.coll, Decimals: 0, Supply: 1,
		}); err != nil {
			return err
		}
		return custody.Deposit(txn, f.seller, f.asset, 1)
	})
	if err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	mkt := services.NewMarketplace(store)
	srv, err := New(Config{DBPath: filepath.Join(t.TempDir(), "receipts.db")}, mkt)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	f.ts = httptest.NewServer(srv.Router())
	t.Cleanup(f.ts.Close)
	return f
}

func (f *apiFixture) post(t *testing.T, path string, body any) (int, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(f.ts.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (f *apiFixture) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(f.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (f *apiFixture) initConfig(t *testing.T) {
	t.Helper()
	code, body := f.post(t, "/api/config/", map[string]any{
		"authority":     f.authority.Hex(),
		"fee_bps":       250,
		"fee_recipient": f.feeRecv.Hex(),
	})
	if code != 201 {
		t.Fatalf("init config: code=%d body=%v", code, body)
	}
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	resp, err := http.Get(f.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("healthz code=%d", resp.StatusCode)
	}
}

func TestConfigEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	f.initConfig(t)

	// singleton: second init conflicts
	code, _ := f.post(t, "/api/config/", map[string]any{
		"authority":     f.authority.Hex(),
		"fee_bps":       100,
		"fee_recipient": f.feeRecv.Hex(),
	})
	if code != 409 {
		t.Fatalf("duplicate init code=%d want=409", code)
	}

	code, body := f.get(t, "/api/config/")
	if code != 200 {
		t.Fatalf("get config code=%d", code)
	}
	if body["fee_bps"].(float64) != 250 {
		t.Fatalf("fee_bps got=%v want=250", body["fee_bps"])
	}
}

func TestFullSaleFlow(t *testing.T) {
	f := newAPIFixture(t)
	f.initConfig(t)

	code, body := f.post(t, "/api/vaults/", map[string]any{
		"owner": f.seller.Hex(),
		"asset": f.asset.Hex(),
	})
	if code != 201 {
		t.Fatalf("init vault: code=%d body=%v", code, body)
	}

	code, body = f.post(t, "/api/listings/", map[string]any{
		"seller": f.seller.Hex(),
		"asset":  f.asset.Hex(),
		"price": map[string]any{
			"type":        "fixed",
			"start_price": 600,
			"min_price":   600,
		},
	})
	if code != 201 {
		t.Fatalf("create listing: code=%d body=%v", code, body)
	}

	query := fmt.Sprintf("?seller=%s&asset=%s", f.seller.Hex(), f.asset.Hex())
	code, body = f.get(t, "/api/listings/find"+query)
	if code != 200 || body["state"] != "active" {
		t.Fatalf("get listing: code=%d body=%v", code, body)
	}

	code, body = f.get(t, "/api/listings/quote"+query)
	if code != 200 || body["price"].(float64) != 600 {
		t.Fatalf("quote: code=%d body=%v", code, body)
	}

	code, body = f.post(t, "/api/listings/buy", map[string]any{
		"buyer":  f.buyer.Hex(),
		"seller": f.seller.Hex(),
		"asset":  f.asset.Hex(),
	})
	if code != 200 {
		t.Fatalf("buy: code=%d body=%v", code, body)
	}
	// 600 @ 250bps 市场费 + 500bps 版税
	if body["price"].(float64) != 600 || body["fee"].(float64) != 15 ||
		body["royalty"].(float64) != 30 || body["seller_amount"].(float64) != 555 {
		t.Fatalf("receipt split wrong: %v", body)
	}

	// journal picked up the sale
	code, body = f.get(t, "/api/receipts/?seller="+f.seller.Hex())
	if code != 200 {
		t.Fatalf("receipts: code=%d", code)
	}
	receipts := body["receipts"].([]any)
	if len(receipts) != 1 {
		t.Fatalf("receipts len=%d want=1", len(receipts))
	}

	// listing is gone after the sale
	code, _ = f.post(t, "/api/listings/buy", map[string]any{
		"buyer":  f.buyer.Hex(),
		"seller": f.seller.Hex(),
		"asset":  f.asset.Hex(),
	})
	if code != 422 {
		t.Fatalf("re-buy code=%d want=422", code)
	}
}

func TestForceCancelFlow(t *testing.T) {
	f := newAPIFixture(t)
	f.initConfig(t)

	f.post(t, "/api/vaults/", map[string]any{"owner": f.seller.Hex(), "asset": f.asset.Hex()})
	code, body := f.post(t, "/api/listings/", map[string]any{
		"seller": f.seller.Hex(),
		"asset":  f.asset.Hex(),
		"price": map[string]any{
			"type":        "linear_decay",
			"start_price": 1000,
			"min_price":   200,
			"start_ts":    1,
			"duration":    3600,
		},
	})
	if code != 201 {
		t.Fatalf("create listing: code=%d body=%v", code, body)
	}

	code, _ = f.post(t, "/api/attestors/", map[string]any{"attestor": f.authority.Hex()})
	if code != 201 {
		t.Fatalf("init attestor: code=%d", code)
	}

	code, body = f.post(t, "/api/attestations/", map[string]any{
		"attestor":   f.authority.Hex(),
		"collection": f.coll.Hex(),
		"floor":      180,
	})
	if code != 201 {
		t.Fatalf("create attestation: code=%d body=%v", code, body)
	}
	nonce := uint64(body["nonce"].(float64))

	code, body = f.post(t, "/api/listings/force_cancel", map[string]any{
		"attestor":   f.authority.Hex(),
		"nonce":      nonce,
		"collection": f.coll.Hex(),
		"seller":     f.seller.Hex(),
		"asset":      f.asset.Hex(),
	})
	if code != 200 {
		t.Fatalf("force cancel: code=%d body=%v", code, body)
	}

	// replay is rejected with a conflict
	code, _ = f.post(t, "/api/listings/force_cancel", map[string]any{
		"attestor":   f.authority.Hex(),
		"nonce":      nonce,
		"collection": f.coll.Hex(),
		"seller":     f.seller.Hex(),
		"asset":      f.asset.Hex(),
	})
	if code != 409 {
		t.Fatalf("replay code=%d want=409", code)
	}

	// attestation record survives, marked used
	code, body = f.get(t, fmt.Sprintf("/api/attestations/%s/%d", f.authority.Hex(), nonce))
	if code != 200 || body["used"] != true {
		t.Fatalf("attestation after cancel: code=%d body=%v", code, body)
	}
}

func TestBadRequests(t *testing.T) {
	f := newAPIFixture(t)
	f.initConfig(t)

	code, _ := f.post(t, "/api/vaults/", map[string]any{"owner": "not-an-address", "asset": f.asset.Hex()})
	if code != 400 {
		t.Fatalf("bad owner code=%d want=400", code)
	}

	code, _ = f.post(t, "/api/listings/", map[string]any{
		"seller": f.seller.Hex(),
		"asset":  f.asset.Hex(),
		"price":  map[string]any{"type": "dutch"},
	})
	if code != 400 {
		t.Fatalf("bad price type code=%d want=400", code)
	}
}
