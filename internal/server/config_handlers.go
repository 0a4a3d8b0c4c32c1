package server

import (
	"net/http"
)

type initConfigRequest struct {
	Authority    string `json:"authority"`
	FeeBps       uint16 `json:"fee_bps"`
	FeeRecipient string `json:"fee_recipient"`
}

func (s *Server) handleConfigInit(w http.ResponseWriter, r *http.Request) {
	var req initConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, 400, "invalid json body")
		return
	}
	authority, ok := parseAddress(req.Authority)
	if !ok {
		writeError(w, 400, "invalid authority address")
		return
	}
	recipient, ok := parseAddress(req.FeeRecipient)
	if !ok {
		writeError(w, 400, "invalid fee recipient address")
		return
	}

	if err := s.mkt.InitConfig(authority, req.FeeBps, recipient); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 201, map[string]any{
		"authority":     authority.Hex(),
		"fee_bps":       req.FeeBps,
		"fee_recipient": recipient.Hex(),
	})
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.mkt.GetConfig()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"authority":     cfg.Authority.Hex(),
		"fee_bps":       cfg.FeeBps,
		"fee_recipient": cfg.FeeRecipient.Hex(),
	})
}
