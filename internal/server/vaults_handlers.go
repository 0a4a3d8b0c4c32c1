package server

import (
	"net/http"
)

type vaultRequest struct {
	Owner string `json:"owner"`
	Asset string `json:"asset"`
}

func (s *Server) handleVaultInit(w http.ResponseWriter, r *http.Request) {
	var req vaultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, 400, "invalid json body")
		return
	}
	owner, ok := parseAddress(req.Owner)
	if !ok {
		writeError(w, 400, "invalid owner address")
		return
	}
	asset, ok := parseHash(req.Asset)
	if !ok {
		writeError(w, 400, "invalid asset id")
		return
	}

	key, err := s.mkt.InitUserVault(owner, asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 201, map[string]any{"vault_key": key.Hex()})
}

func (s *Server) handleVaultWithdraw(w http.ResponseWriter, r *http.Request) {
	var req vaultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, 400, "invalid json body")
		return
	}
	owner, ok := parseAddress(req.Owner)
	if !ok {
		writeError(w, 400, "invalid owner address")
		return
	}
	asset, ok := parseHash(req.Asset)
	if !ok {
		writeError(w, 400, "invalid asset id")
		return
	}

	if err := s.mkt.WithdrawFromVault(owner, asset); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"withdrawn": true})
}

func (s *Server) handleVaultGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := parseAddress(r.URL.Query().Get("owner"))
	if !ok {
		writeError(w, 400, "invalid owner address")
		return
	}
	asset, ok := parseHash(r.URL.Query().Get("asset"))
	if !ok {
		writeError(w, 400, "invalid asset id")
		return
	}

	v, err := s.mkt.GetVault(owner, asset)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"owner":           v.Owner.Hex(),
		"asset":           v.Asset.Hex(),
		"custody_account": v.CustodyAccount.Hex(),
	})
}
