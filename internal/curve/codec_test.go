package curve

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateCodecPreservesTradedCurve(t *testing.T) {
	s, err := CreateCurve(CreateParams{
		Mint:             solana.NewWallet().PublicKey(),
		Creator:          solana.NewWallet().PublicKey(),
		TokenTotalSupply: 200_000,
		Allocation:       halfCurveAllocation(),
		Segments:         mixedSegments(),
	}, testNow, DefaultCreateOptions())
	require.NoError(t, err)
	s, _, err = ApplyBuy(s, 55_555)
	require.NoError(t, err)

	data, err := EncodeState(s)
	require.NoError(t, err)
	assert.Equal(t, BondingCurveDiscriminator[:], data[:8])

	decoded, err := DecodeState(data)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)

	// Decoded state prices exactly like the original.
	a, err := QuoteSell(s, 1000)
	require.NoError(t, err)
	b, err := QuoteSell(decoded, 1000)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCodecRejectsWrongAccount(t *testing.T) {
	data, err := EncodeDistributor(Distributor{Kind: DistributorBrand, InitialVestedSupply: 10, Claimed: 3, LastClaim: testNow})
	require.NoError(t, err)

	_, err = DecodeState(data)
	assert.Error(t, err)

	d, err := DecodeDistributor(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), d.Remaining())
	assert.Equal(t, testNow, d.LastClaim)

	_, err = DecodeState([]byte{1, 2, 3})
	assert.Error(t, err)
}
