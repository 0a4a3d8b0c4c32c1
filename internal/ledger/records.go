package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/veritymkt/verity/internal/domain"
)

// Typed record accessors. Every load re-verifies the stored salt against the
// key derivation (the Go analogue of the original deployment's PDA bump check).

func (t *Txn) GetConfig() (*domain.Config, error) {
	key := ConfigKey()
	var c domain.Config
	if err := t.Get(key, &c); err != nil {
		return nil, err
	}
	if c.Salt != SaltOf(key) {
		return nil, ErrSaltMismatch
	}
	return &c, nil
}

func (t *Txn) PutConfig(c *domain.Config) error {
	return t.Put(ConfigKey(), c)
}

func (t *Txn) GetVault(owner common.Address, asset common.Hash) (*domain.UserVault, error) {
	key := VaultKey(owner, asset)
	var v domain.UserVault
	if err := t.Get(key, &v); err != nil {
		return nil, err
	}
	if v.Salt != SaltOf(key) {
		return nil, ErrSaltMismatch
	}
	return &v, nil
}

func (t *Txn) PutVault(v *domain.UserVault) error {
	return t.Put(VaultKey(v.Owner, v.Asset), v)
}

func (t *Txn) DeleteVault(owner common.Address, asset common.Hash) error {
	return t.Delete(VaultKey(owner, asset))
}

func (t *Txn) GetListing(seller common.Address, asset common.Hash) (*domain.Listing, error) {
	key := ListingKey(seller, asset)
	var l domain.Listing
	if err := t.Get(key, &l); err != nil {
		return nil, err
	}
	if l.Salt != SaltOf(key) {
		return nil, ErrSaltMismatch
	}
	return &l, nil
}

func (t *Txn) PutListing(l *domain.Listing) error {
	return t.Put(ListingKey(l.Seller, l.Asset), l)
}

func (t *Txn) DeleteListing(seller common.Address, asset common.Hash) error {
	return t.Delete(ListingKey(seller, asset))
}

func (t *Txn) GetAttestorState(attestor common.Address) (*domain.AttestorState, error) {
	key := AttestorKey(attestor)
	var st domain.AttestorState
	if err := t.Get(key, &st); err != nil {
		return nil, err
	}
	if st.Salt != SaltOf(key) {
		return nil, ErrSaltMismatch
	}
	return &st, nil
}

func (t *Txn) PutAttestorState(st *domain.AttestorState) error {
	return t.Put(AttestorKey(st.Attestor), st)
}

func (t *Txn) GetAttestation(attestor common.Address, nonce uint64) (*domain.Attestation, error) {
	key := AttestationKey(attestor, nonce)
	var a domain.Attestation
	if err := t.Get(key, &a); err != nil {
		return nil, err
	}
	if a.Salt != SaltOf(key) {
		return nil, ErrSaltMismatch
	}
	return &a, nil
}

func (t *Txn) PutAttestation(a *domain.Attestation) error {
	return t.Put(AttestationKey(a.Attestor, a.Nonce), a)
}
