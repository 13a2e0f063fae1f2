// =============================
// File: internal/curve/codec.go
// =============================
package curve

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Account discriminators, laid out the way Anchor prefixes account data.
var (
	BondingCurveDiscriminator = bin.SighashTypeID("account", "BondingCurve")
	DistributorDiscriminator  = bin.SighashTypeID("account", "Distributor")
)

// MarshalWithEncoder writes the fixed-field layout of the curve. Field order
// is part of the persisted format.
func (s BondingCurveState) MarshalWithEncoder(enc *bin.Encoder) error {
	fields := []interface{}{
		s.Mint, s.Creator, s.CexAuthority, s.BrandAuthority,
		s.Status, s.Strategy, s.Version,
		s.VirtualTokenMultiplierBps, s.VirtualSolReserves,
		s.VirtualTokenReserves, s.InitialVirtualTokenReserves,
		s.RealSolReserves, s.RealTokenReserves,
		s.TokenTotalSupply, s.Supply,
		s.SolLaunchThreshold, s.StartTime, s.VestingTerms,
		s.Allocation, s.Segments,
	}
	if err := enc.WriteBytes(BondingCurveDiscriminator[:], false); err != nil {
		return err
	}
	for _, f := range fields {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalWithDecoder reads what MarshalWithEncoder wrote.
func (s *BondingCurveState) UnmarshalWithDecoder(dec *bin.Decoder) error {
	disc, err := dec.ReadTypeID()
	if err != nil {
		return err
	}
	if !disc.Equal(BondingCurveDiscriminator[:]) {
		return fmt.Errorf("wrong discriminator: wanted %x, got %x", BondingCurveDiscriminator[:], disc[:])
	}
	fields := []interface{}{
		&s.Mint, &s.Creator, &s.CexAuthority, &s.BrandAuthority,
		&s.Status, &s.Strategy, &s.Version,
		&s.VirtualTokenMultiplierBps, &s.VirtualSolReserves,
		&s.VirtualTokenReserves, &s.InitialVirtualTokenReserves,
		&s.RealSolReserves, &s.RealTokenReserves,
		&s.TokenTotalSupply, &s.Supply,
		&s.SolLaunchThreshold, &s.StartTime, &s.VestingTerms,
		&s.Allocation, &s.Segments,
	}
	for _, f := range fields {
		if err := dec.Decode(f); err != nil {
			return err
		}
	}
	return nil
}

func (d Distributor) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBytes(DistributorDiscriminator[:], false); err != nil {
		return err
	}
	for _, f := range []interface{}{d.Kind, d.InitialVestedSupply, d.Claimed, d.LastClaim} {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

func (d *Distributor) UnmarshalWithDecoder(dec *bin.Decoder) error {
	disc, err := dec.ReadTypeID()
	if err != nil {
		return err
	}
	if !disc.Equal(DistributorDiscriminator[:]) {
		return fmt.Errorf("wrong discriminator: wanted %x, got %x", DistributorDiscriminator[:], disc[:])
	}
	for _, f := range []interface{}{&d.Kind, &d.InitialVestedSupply, &d.Claimed, &d.LastClaim} {
		if err := dec.Decode(f); err != nil {
			return err
		}
	}
	return nil
}

// EncodeState serializes s into its persisted binary form.
func EncodeState(s BondingCurveState) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := s.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("encode bonding curve: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeState parses data produced by EncodeState.
func DecodeState(data []byte) (BondingCurveState, error) {
	var s BondingCurveState
	if err := s.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return BondingCurveState{}, fmt.Errorf("decode bonding curve: %w", err)
	}
	return s, nil
}

// EncodeDistributor serializes d.
func EncodeDistributor(d Distributor) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := d.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, fmt.Errorf("encode distributor: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDistributor parses data produced by EncodeDistributor.
func DecodeDistributor(data []byte) (Distributor, error) {
	var d Distributor
	if err := d.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return Distributor{}, fmt.Errorf("decode distributor: %w", err)
	}
	return d, nil
}
