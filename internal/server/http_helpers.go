package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/veritymkt/verity/internal/domain"
	"github.com/veritymkt/verity/internal/ledger"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeEngineError maps engine errors onto HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorizedSeller),
		errors.Is(err, domain.ErrUnauthorizedVaultOwner),
		errors.Is(err, domain.ErrUnauthorizedAttestor):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConfigExists),
		errors.Is(err, domain.ErrAlreadyInitialized),
		errors.Is(err, domain.ErrVaultAlreadyExists),
		errors.Is(err, domain.ErrVaultLocked),
		errors.Is(err, domain.ErrAttestationUsed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrInvalidTimeWindow),
		errors.Is(err, domain.ErrInvalidFee),
		errors.Is(err, domain.ErrUnsupportedAsset),
		errors.Is(err, domain.ErrInvalidTokenAmount),
		errors.Is(err, domain.ErrInvalidMetadata):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrListingNotActive),
		errors.Is(err, domain.ErrListingNotYetValid),
		errors.Is(err, domain.ErrListingExpired),
		errors.Is(err, domain.ErrVaultMismatch),
		errors.Is(err, domain.ErrAssetNotInVault),
		errors.Is(err, domain.ErrAttestationExpired),
		errors.Is(err, domain.ErrFloorTooHigh):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func parseAddress(s string) (common.Address, bool) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func parseHash(s string) (common.Hash, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Hash{}, false
	}
	return common.HexToHash(s), true
}
