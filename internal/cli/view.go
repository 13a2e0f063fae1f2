package cli

import (
	"io"

	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"gopkg.in/yaml.v3"
)

type segmentView struct {
	Type   string    `yaml:"type"`
	Start  uint64    `yaml:"start"`
	End    uint64    `yaml:"end"`
	Params [3]uint64 `yaml:"params,flow"`
}

type distributorView struct {
	Kind      string `yaml:"kind"`
	Initial   uint64 `yaml:"initial"`
	Claimed   uint64 `yaml:"claimed"`
	LastClaim int64  `yaml:"last_claim"`
}

type curveView struct {
	Mint                 string              `yaml:"mint"`
	Creator              string              `yaml:"creator"`
	Status               string              `yaml:"status"`
	Strategy             string              `yaml:"strategy"`
	Version              uint64              `yaml:"version"`
	RealSolReserves      string              `yaml:"real_sol_reserves"`
	RealTokenReserves    uint64              `yaml:"real_token_reserves"`
	BondingSupply        uint64              `yaml:"bonding_supply"`
	SolLaunchThreshold   string              `yaml:"sol_launch_threshold"`
	VirtualSolReserves   string              `yaml:"virtual_sol_reserves,omitempty"`
	VirtualTokenReserves string              `yaml:"virtual_token_reserves,omitempty"`
	StartTime            int64               `yaml:"start_time"`
	Supply               curve.SupplyBuckets `yaml:"supply"`
	Segments             []segmentView       `yaml:"segments,omitempty"`
	Distributors         []distributorView   `yaml:"distributors,omitempty"`
}

func newCurveView(s curve.BondingCurveState, dists []curve.Distributor) curveView {
	v := curveView{
		Mint:               s.Mint.String(),
		Creator:            s.Creator.String(),
		Status:             s.Status.String(),
		Strategy:           s.Strategy.String(),
		Version:            s.Version,
		RealSolReserves:    FormatSOL(s.RealSolReserves),
		RealTokenReserves:  s.RealTokenReserves,
		BondingSupply:      s.Supply.Bonding,
		SolLaunchThreshold: FormatSOL(s.SolLaunchThreshold),
		StartTime:          s.StartTime,
		Supply:             s.Supply,
	}
	if s.Strategy == curve.StrategyConstantProduct {
		v.VirtualSolReserves = FormatSOL(s.VirtualSolReserves)
		v.VirtualTokenReserves = s.VirtualTokenReserves.String()
	}
	for _, seg := range s.Segments {
		v.Segments = append(v.Segments, segmentView{Type: seg.Type.String(), Start: seg.StartSupply, End: seg.EndSupply, Params: seg.Params})
	}
	for _, d := range dists {
		v.Distributors = append(v.Distributors, distributorView{
			Kind: d.Kind.String(), Initial: d.InitialVestedSupply, Claimed: d.Claimed, LastClaim: d.LastClaim,
		})
	}
	return v
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
