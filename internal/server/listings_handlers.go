package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/veritymkt/verity/internal/domain"
)

type priceBody struct {
	Type       string `json:"type"`
	StartPrice uint64 `json:"start_price"`
	MinPrice   uint64 `json:"min_price"`
	StartTS    int64  `json:"start_ts"`
	Duration   int64  `json:"duration"`
}

type conditionsBody struct {
	MinFloor   *uint64 `json:"min_floor,omitempty"`
	ValidFrom  *int64  `json:"valid_from,omitempty"`
	ValidUntil *int64  `json:"valid_until,omitempty"`
}

type createListingRequest struct {
	Seller     string         `json:"seller"`
	Asset      string         `json:"asset"`
	Price      priceBody      `json:"price"`
	Conditions conditionsBody `json:"conditions"`
}

func priceTypeFromString(s string) (domain.PriceType, bool) {
	switch s {
	case "", "fixed":
		return domain.PriceTypeFixed, true
	case "linear_decay":
		return domain.PriceTypeLinearDecay, true
	case "exponential":
		return domain.PriceTypeExponential, true
	}
	return 0, false
}

func (s *Server) handleListingCreate(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, 400, "invalid json body")
		return
	}
	seller, ok := parseAddress(req.Seller)
	if !ok {
		writeError(w, 400, "invalid seller address")
		return
	}
	asset, ok := parseHash(req.Asset)
	if !ok {
		writeError(w, 400, "invalid asset id")
		return
	}
	pt, ok := priceTypeFromString(req.Price.Type)
	if !ok {
		writeError(w, 400, "unknown price type")
		return
	}

	key, err := s.mkt.CreateListing(seller, asset, domain.PriceConfig{
		Type:       pt,
		StartPrice: req.Price.StartPrice,
		MinPrice:   req.Price.MinPrice,
		StartTS:    req.Price.StartTS,
		Duration:   req.Price.Duration,
	}, domain.ListingConditions{
		MinFloor:   req.Conditions.MinFloor,
		ValidFrom:  req.Conditions.ValidFrom,
		ValidUntil: req.Conditions.ValidUntil,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 201, map[string]any{"listing_key": key.Hex()})
}

type cancelListingRequest struct {
	Caller string `json:"caller"`
	Seller string `json:"seller"`
	Asset  string `json:"asset"`
}

func (s *Server) handleListingCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelListingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, 400, "invalid json body")
		return
	}
	caller, ok := parseAddress(req.Caller)
	if !ok {
		writeError(w, 400, "invalid caller address")
		return
	}
	seller, ok := parseAddress(req.Seller)
	if !ok {
		writeError(w, 400, "invalid seller address")
		return
	}
	asset, ok := parseHash(req.Asset)
	if !ok {
		writeError(w, 400, "invalid asset id")
		return
	}

	if err := s.mkt.CancelListing(caller, seller, asset); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"cancelled": true})
}

type buyRequest struct {
	Buyer  string `json:"buyer"`
	Seller string `json:"seller"`
	Asset  string `json:"asset"`
}

func (s *Server) handleListingBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, 400, "invalid json body")
		return
	}
	buyer, ok := parseAddress(req.Buyer)
	if !ok {
		writeError(w, 400, "invalid buyer address")
		return
	}
	seller, ok := parseAddress(req.Seller)
	if !ok {
		writeError(w, 400, "invalid seller address")
		return
	}
	asset, ok := parseHash(req.Asset)
	if !ok {
		writeError(w, 400, "invalid asset id")
		return
	}

	receipt, err := s.mkt.BuyNow(buyer, seller, asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// journal failures do not undo the settlement, the engine is authoritative
	row, err := s.insertReceipt(r.Context(), receipt)
	if err != nil {
		srvLog.WithError(err).Warn("receipt journal insert failed")
		writeJSON(w, 200, receipt)
		return
	}
	writeJSON(w, 200, row)
}

type forceCancelRequest struct {
	Attestor   string `json:"attestor"`
	Nonce      uint64 `json:"nonce"`
	Collection string `json:"collection"`
	Seller     string `json:"seller"`
	Asset      string `json:"asset"`
}

func (s *Server) handleListingForceCancel(w http.ResponseWriter, r *http.Request) {
	var req forceCancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, 400, "invalid json body")
		return
	}
	attestor, ok := parseAddress(req.Attestor)
	if !ok {
		writeError(w, 400, "invalid attestor address")
		return
	}
	collection, ok := parseHash(req.Collection)
	if !ok {
		writeError(w, 400, "invalid collection id")
		return
	}
	seller, ok := parseAddress(req.Seller)
	if !ok {
		writeError(w, 400, "invalid seller address")
		return
	}
	asset, ok := parseHash(req.Asset)
	if !ok {
		writeError(w, 400, "invalid asset id")
		return
	}

	if err := s.mkt.ForceCancel(attestor, req.Nonce, collection, seller, asset); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"force_cancelled": true})
}

func (s *Server) handleListingGet(w http.ResponseWriter, r *http.Request) {
	seller, ok := parseAddress(r.URL.Query().Get("seller"))
	if !ok {
		writeError(w, 400, "invalid seller address")
		return
	}
	asset, ok := parseHash(r.URL.Query().Get("asset"))
	if !ok {
		writeError(w, 400, "invalid asset id")
		return
	}

	listing, err := s.mkt.GetListing(seller, asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"seller": listing.Seller.Hex(),
		"asset":  listing.Asset.Hex(),
		"state":  listing.State.String(),
		"price": priceBody{
			Type:       listing.Price.Type.String(),
			StartPrice: listing.Price.StartPrice,
			MinPrice:   listing.Price.MinPrice,
			StartTS:    listing.Price.StartTS,
			Duration:   listing.Price.Duration,
		},
		"conditions": conditionsBody{
			MinFloor:   listing.Conditions.MinFloor,
			ValidFrom:  listing.Conditions.ValidFrom,
			ValidUntil: listing.Conditions.ValidUntil,
		},
	})
}

// handleListingQuote returns the price the listing would settle at.
// Optional ?at=<unix> simulates a future (or past) moment.
func (s *Server) handleListingQuote(w http.ResponseWriter, r *http.Request) {
	seller, ok := parseAddress(r.URL.Query().Get("seller"))
	if !ok {
		writeError(w, 400, "invalid seller address")
		return
	}
	asset, ok := parseHash(r.URL.Query().Get("asset"))
	if !ok {
		writeError(w, 400, "invalid asset id")
		return
	}

	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, 400, "invalid at timestamp")
			return
		}
		at = time.Unix(unix, 0)
	}

	price, err := s.mkt.Quote(seller, asset, at)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"price": price, "at": at.Unix()})
}

func (s *Server) handleReceiptsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	// normalize filters to the checksummed form the journal stores
	seller, buyer := "", ""
	if addr, ok := parseAddress(q.Get("seller")); ok {
		seller = addr.Hex()
	}
	if addr, ok := parseAddress(q.Get("buyer")); ok {
		buyer = addr.Hex()
	}

	rows, err := s.listReceipts(r.Context(), seller, buyer, limit)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, map[string]any{"receipts": rows})
}
