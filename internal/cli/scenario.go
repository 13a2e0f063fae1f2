package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"gopkg.in/yaml.v3"
)

// SegmentFile is one segment of a curve file.
type SegmentFile struct {
	Type     string   `yaml:"type"`
	StartBps uint64   `yaml:"start_bps"`
	EndBps   uint64   `yaml:"end_bps"`
	Params   []uint64 `yaml:"params"`
}

// VestingFile overrides the configured vesting terms.
type VestingFile struct {
	CliffSeconds    int64 `yaml:"cliff_seconds"`
	DurationSeconds int64 `yaml:"duration_seconds"`
}

// CurveFile describes a curve in YAML. Keys are base58; empty ones are
// generated.
type CurveFile struct {
	Mint               string                 `yaml:"mint"`
	Creator            string                 `yaml:"creator"`
	CexAuthority       string                 `yaml:"cex_authority"`
	BrandAuthority     string                 `yaml:"brand_authority"`
	TotalSupply        uint64                 `yaml:"total_supply"`
	SolLaunchThreshold string                 `yaml:"sol_launch_threshold"`
	StartTime          *int64                 `yaml:"start_time"`
	Strategy           string                 `yaml:"strategy"`
	VirtualMultiplier  uint64                 `yaml:"virtual_token_multiplier_bps"`
	VirtualSol         string                 `yaml:"virtual_sol_reserves"`
	Vesting            *VestingFile           `yaml:"vesting"`
	Allocation         curve.AllocationParams `yaml:"allocation"`
	Segments           []SegmentFile          `yaml:"segments"`
}

// Step is one action of a simulation.
type Step struct {
	Action      string `yaml:"action"`
	Trader      string `yaml:"trader"`
	Sol         string `yaml:"sol"`
	Tokens      uint64 `yaml:"tokens"`
	MinOut      uint64 `yaml:"min_out"`
	Seconds     int64  `yaml:"seconds"`
	Distributor string `yaml:"distributor"`
}

// Scenario is a curve plus the steps to run against it.
type Scenario struct {
	Curve CurveFile `yaml:"curve"`
	// Fund is credited to every named trader before the first step.
	Fund  string `yaml:"fund"`
	Steps []Step `yaml:"steps"`
}

// LoadScenario reads a scenario or a bare curve file from path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if sc.Curve.TotalSupply == 0 {
		var bare CurveFile
		if err := yaml.Unmarshal(data, &bare); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		sc.Curve = bare
	}
	if sc.Curve.TotalSupply == 0 {
		return nil, errors.New("total_supply is required")
	}
	return &sc, nil
}

func keyOrNew(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.NewWallet().PublicKey(), nil
	}
	return solana.PublicKeyFromBase58(s)
}

func optionalKey(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, nil
	}
	return solana.PublicKeyFromBase58(s)
}

func optionalSOL(s string) (uint64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return ParseSOL(s)
}

// Params converts the file into creation parameters.
func (f CurveFile) Params() (curve.CreateParams, error) {
	var (
		p   curve.CreateParams
		err error
	)
	if p.Mint, err = keyOrNew(f.Mint); err != nil {
		return p, fmt.Errorf("mint: %w", err)
	}
	if p.Creator, err = keyOrNew(f.Creator); err != nil {
		return p, fmt.Errorf("creator: %w", err)
	}
	if p.CexAuthority, err = optionalKey(f.CexAuthority); err != nil {
		return p, fmt.Errorf("cex_authority: %w", err)
	}
	if p.BrandAuthority, err = optionalKey(f.BrandAuthority); err != nil {
		return p, fmt.Errorf("brand_authority: %w", err)
	}
	if p.SolLaunchThreshold, err = optionalSOL(f.SolLaunchThreshold); err != nil {
		return p, fmt.Errorf("sol_launch_threshold: %w", err)
	}
	if p.VirtualSolReserves, err = optionalSOL(f.VirtualSol); err != nil {
		return p, fmt.Errorf("virtual_sol_reserves: %w", err)
	}
	if p.Strategy, err = curve.ParseStrategyKind(f.Strategy); err != nil {
		return p, err
	}

	p.TokenTotalSupply = f.TotalSupply
	p.StartTime = f.StartTime
	p.VirtualTokenMultiplierBps = f.VirtualMultiplier
	p.Allocation = f.Allocation
	if f.Vesting != nil {
		p.VestingTerms = &curve.VestingTerms{Cliff: f.Vesting.CliffSeconds, Duration: f.Vesting.DurationSeconds}
	}

	for i, s := range f.Segments {
		typ, err := curve.ParseCurveType(s.Type)
		if err != nil {
			return p, fmt.Errorf("segment %d: %w", i, err)
		}
		if len(s.Params) > 3 {
			return p, fmt.Errorf("segment %d: at most 3 params, got %d", i, len(s.Params))
		}
		def := curve.SegmentDef{Type: typ, StartBps: s.StartBps, EndBps: s.EndBps}
		copy(def.Params[:], s.Params)
		p.Segments = append(p.Segments, def)
	}
	return p, nil
}
