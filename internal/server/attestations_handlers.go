package server

import (
	"net/http"
	"strconv"
)

type initAttestorRequest struct {
	Attestor string `json:"attestor"`
}

func (s *Server) handleAttestorInit(w http.ResponseWriter, r *http.Request) {
	var req initAttestorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, 400, "invalid json body")
		return
	}
	attestor, ok := parseAddress(req.Attestor)
	if !ok {
		writeError(w, 400, "invalid attestor address")
		return
	}

	if err := s.mkt.InitAttestorState(attestor); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 201, map[string]any{"attestor": attestor.Hex()})
}

func (s *Server) handleAttestorGet(w http.ResponseWriter, r *http.Request) {
	attestor, ok := parseAddress(pathParam(r, "attestor"))
	if !ok {
		writeError(w, 400, "invalid attestor address")
		return
	}

	st, err := s.mkt.GetAttestorState(attestor)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"attestor":   st.Attestor.Hex(),
		"last_nonce": st.LastNonce,
	})
}

type createAttestationRequest struct {
	Attestor   string `json:"attestor"`
	Collection string `json:"collection"`
	Floor      uint64 `json:"floor"`
}

func (s *Server) handleAttestationCreate(w http.ResponseWriter, r *http.Request) {
	var req createAttestationRequest
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

	nonce, err := s.mkt.CreateAttestation(attestor, collection, req.Floor)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 201, map[string]any{"nonce": nonce})
}

func (s *Server) handleAttestationGet(w http.ResponseWriter, r *http.Request) {
	attestor, ok := parseAddress(pathParam(r, "attestor"))
	if !ok {
		writeError(w, 400, "invalid attestor address")
		return
	}
	nonce, err := strconv.ParseUint(pathParam(r, "nonce"), 10, 64)
	if err != nil {
		writeError(w, 400, "invalid nonce")
		return
	}

	att, err := s.mkt.GetAttestation(attestor, nonce)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"attestor":   att.Attestor.Hex(),
		"collection": att.Collection.Hex(),
		"floor":      att.Floor,
		"timestamp":  att.Timestamp,
		"nonce":      att.Nonce,
		"used":       att.Used,
	})
}
