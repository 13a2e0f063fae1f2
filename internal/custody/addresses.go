// internal/custody/addresses.go
package custody

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
)

// DefaultProgramID owns every derived curve account.
var DefaultProgramID = solana.MustPublicKeyFromBase58("71odFTZ59cG8yyBtEZrnJdBYaepzri2A12hEc16vK6WP")

const (
	curveSeed         = "bonding-curve"
	poolReserveSeed   = "pool-reserve"
	creatorVaultSeed  = "creator-vault"
	platformVaultSeed = "platform-vault"
	brandVaultSeed    = "brand-vault"
	presaleVaultSeed  = "presale-vault"
)

// Addresses are the program derived accounts of one curve.
type Addresses struct {
	Curve         solana.PublicKey
	PoolReserve   solana.PublicKey
	CreatorVault  solana.PublicKey
	PlatformVault solana.PublicKey
	BrandVault    solana.PublicKey
	PresaleVault  solana.PublicKey
}

// DeriveAddresses finds the program addresses of mint's accounts.
func DeriveAddresses(programID, mint solana.PublicKey) (Addresses, error) {
	var a Addresses
	targets := []struct {
		seed string
		dst  *solana.PublicKey
	}{
		{curveSeed, &a.Curve},
		{poolReserveSeed, &a.PoolReserve},
		{creatorVaultSeed, &a.CreatorVault},
		{platformVaultSeed, &a.PlatformVault},
		{brandVaultSeed, &a.BrandVault},
		{presaleVaultSeed, &a.PresaleVault},
	}
	for _, t := range targets {
		addr, _, err := solana.FindProgramAddress([][]byte{[]byte(t.seed), mint.Bytes()}, programID)
		if err != nil {
			return Addresses{}, fmt.Errorf("derive %s address: %w", t.seed, err)
		}
		*t.dst = addr
	}
	return a, nil
}

// Vault returns the token owner backing a distributor.
func (a Addresses) Vault(kind curve.DistributorKind) (solana.PublicKey, error) {
	switch kind {
	case curve.DistributorCreator:
		return a.CreatorVault, nil
	case curve.DistributorPlatform:
		return a.PlatformVault, nil
	case curve.DistributorBrand:
		return a.BrandVault, nil
	case curve.DistributorPresale:
		return a.PresaleVault, nil
	default:
		return solana.PublicKey{}, fmt.Errorf("no vault for distributor %s", kind)
	}
}
