package ledger

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Record keys are content-addressed: key = keccak256(namespace || parts...).
// No ownership pointers are needed to locate a record, only the derivation
// inputs. The last byte of the key doubles as the record salt, stored in the
// record and re-verified on load.

const (
	nsConfig      = "verity/config"
	nsVault       = "verity/vault"
	nsListing     = "verity/listing"
	nsAttestor    = "verity/attestor_state"
	nsAttestation = "verity/attestation"
	nsBalance     = "verity/balance"
	nsHolding     = "verity/holding"
	nsAsset       = "verity/asset"
	nsCustody     = "verity/custody"
)

// DeriveKey computes the content-addressed record key for a namespace and parts.
func DeriveKey(namespace string, parts ...[]byte) common.Hash {
	data := []byte(namespace)
	for _, p := range parts {
		data = append(data, p...)
	}
	return crypto.Keccak256Hash(data)
}

// SaltOf returns the derivation salt for a record key.
func SaltOf(key common.Hash) uint8 {
	return key[common.HashLength-1]
}

func ConfigKey() common.Hash {
	return DeriveKey(nsConfig)
}

func VaultKey(owner common.Address, asset common.Hash) common.Hash {
	return DeriveKey(nsVault, owner.Bytes(), asset.Bytes())
}

func ListingKey(seller common.Address, asset common.Hash) common.Hash {
	return DeriveKey(nsListing, seller.Bytes(), asset.Bytes())
}

func AttestorKey(attestor common.Address) common.Hash {
	return DeriveKey(nsAttestor, attestor.Bytes())
}

// AttestationKey derives the unique slot for one attestation. The nonce is
// little-endian encoded so each issued nonce maps to a distinct key.
func AttestationKey(attestor common.Address, nonce uint64) common.Hash {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], nonce)
	return DeriveKey(nsAttestation, attestor.Bytes(), n[:])
}

func BalanceKey(addr common.Address) common.Hash {
	return DeriveKey(nsBalance, addr.Bytes())
}

func HoldingKey(account common.Address, asset common.Hash) common.Hash {
	return DeriveKey(nsHolding, account.Bytes(), asset.Bytes())
}

func AssetKey(asset common.Hash) common.Hash {
	return DeriveKey(nsAsset, asset.Bytes())
}

// CustodyAccount derives the custody sub-account address controlled by a vault.
// The address is derived, never key-backed: only the engine can move assets
// out of it, by minting a capability scoped to it.
func CustodyAccount(vaultKey common.Hash) common.Address {
	h := crypto.Keccak256(append([]byte(nsCustody), vaultKey.Bytes()...))
	return common.BytesToAddress(h[12:])
}
