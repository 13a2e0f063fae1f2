package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 10000 tokens, half of them on a flat 2 lamport segment.
const flatCurve = `
  total_supply: 10000
  allocation:
    creator: 0
    cex: 0
    launch_brandkit: 0
    lifetime_brandkit: 0
    platform: 0
    presale: 0
    curve_reserve: 5000
    pool_reserve: 5000
  segments:
    - type: constant
      start_bps: 0
      end_bps: 10000
      params: [2]
`

const scenario = `fund: "1"
curve:` + flatCurve + `
steps:
  - action: buy
    trader: alice
    sol: "0.000001"
  - action: sell
    trader: alice
    tokens: 100
  - action: sell
    trader: bob
    tokens: 1
  - action: launch
  - action: buy
    trader: carol
    sol: "0.0000092"
  - action: launch
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	body := "fee_basis_points: 0\nlog_file: " + filepath.Join(dir, "test.log") + "\n" + extra
	return writeFile(t, "config.yaml", body)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeFile(t, "scenario.yaml", scenario))
	require.NoError(t, err)
	assert.Equal(t, "1", sc.Fund)
	assert.Len(t, sc.Steps, 6)
	assert.Equal(t, "alice", sc.Steps[0].Trader)

	p, err := sc.Curve.Params()
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), p.TokenTotalSupply)
	assert.Equal(t, curve.StrategySegmented, p.Strategy)
	require.Len(t, p.Segments, 1)
	assert.Equal(t, curve.CurveConstant, p.Segments[0].Type)
	assert.Equal(t, [3]uint64{2}, p.Segments[0].Params)
	assert.False(t, p.Mint.IsZero())
	assert.True(t, p.BrandAuthority.IsZero())
	assert.Nil(t, p.StartTime)
}

func TestLoadScenarioAcceptsBareCurve(t *testing.T) {
	sc, err := LoadScenario(writeFile(t, "curve.yaml", "strategy: segmented\n"+flatCurve))
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), sc.Curve.TotalSupply)
	assert.Empty(t, sc.Steps)
}

func TestLoadScenarioRejectsMissingSupply(t *testing.T) {
	_, err := LoadScenario(writeFile(t, "empty.yaml", "steps: []\n"))
	assert.Error(t, err)
}

func TestCurveFileParams(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	start := int64(1_800_000_000)
	f := CurveFile{
		Mint:               mint.String(),
		TotalSupply:        1_000_000,
		SolLaunchThreshold: "85",
		StartTime:          &start,
		Strategy:           "amm",
		VirtualMultiplier:  7301,
		VirtualSol:         "30",
		Vesting:            &VestingFile{CliffSeconds: 10, DurationSeconds: 20},
	}
	p, err := f.Params()
	require.NoError(t, err)
	assert.Equal(t, mint, p.Mint)
	assert.Equal(t, uint64(85*LamportsPerSOL), p.SolLaunchThreshold)
	assert.Equal(t, uint64(30*LamportsPerSOL), p.VirtualSolReserves)
	assert.Equal(t, curve.StrategyConstantProduct, p.Strategy)
	assert.Equal(t, &curve.VestingTerms{Cliff: 10, Duration: 20}, p.VestingTerms)
	assert.Equal(t, &start, p.StartTime)

	bad := []CurveFile{
		{TotalSupply: 1, Mint: "not-a-key"},
		{TotalSupply: 1, Strategy: "curvy"},
		{TotalSupply: 1, SolLaunchThreshold: "x"},
		{TotalSupply: 1, Segments: []SegmentFile{{Type: "cubic"}}},
		{TotalSupply: 1, Segments: []SegmentFile{{Type: "linear", Params: []uint64{1, 2, 3, 4}}}},
	}
	for _, f := range bad {
		_, err := f.Params()
		assert.Error(t, err)
	}
}

func TestQuoteCommand(t *testing.T) {
	path := writeFile(t, "curve.yaml", scenario)

	out, err := run(t, "quote", path, "--buy", "0.000001", "--sell", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "strategy:       segmented")
	assert.Contains(t, out, "bonding supply: 5000")
	assert.Contains(t, out, "max sol:        0.00001")
	assert.Contains(t, out, "next token:     0.000000002 SOL")
	assert.Contains(t, out, "buy:            0.000001 SOL -> 500 tokens")
	assert.Contains(t, out, "sell:           100 tokens -> 0.0000002 SOL")

	out, err = run(t, "quote", path, "--after-buy", "0.000001")
	require.NoError(t, err)
	assert.Contains(t, out, "after buy:      500 tokens for 0.000001 SOL")
	assert.Contains(t, out, "remaining:      4500")

	out, err = run(t, "quote", path, "--after-buy", "0.000001", "--sell-for", "0.0000008")
	require.NoError(t, err)
	assert.Contains(t, out, "sell for:       400 tokens -> 0.0000008 SOL")

	// The curve holds 0.000001 SOL, so no sell can pay out more.
	_, err = run(t, "quote", path, "--after-buy", "0.000001", "--sell-for", "0.000002")
	assert.ErrorIs(t, err, curve.ErrInsufficientReserves)

	_, err = run(t, "quote", path, "--buy", "lots")
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	cfg := writeConfig(t, "")
	path := writeFile(t, "scenario.yaml", scenario)

	out, err := run(t, "--config", cfg, "simulate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "buy 500 tokens for 0.000001 SOL")
	assert.Contains(t, out, "sell 100 tokens for 0.0000002 SOL")
	assert.Contains(t, out, "3 sell    rejected")
	assert.Contains(t, out, "4 launch  rejected")
	assert.Contains(t, out, "curve complete")
	assert.Contains(t, out, "status launched")
	assert.Contains(t, out, "status: launched")
	assert.Contains(t, out, "real_token_reserves: 0")
	assert.Regexp(t, `real_sol_reserves: ["']?0\.00001["']?\n`, out)
}

func TestSimulateExportsTrades(t *testing.T) {
	cfg := writeConfig(t, "")
	path := writeFile(t, "scenario.yaml", scenario)
	dir := t.TempDir()

	out, err := run(t, "--config", cfg, "simulate", "--export", dir, path)
	require.NoError(t, err)
	assert.Contains(t, out, "trades exported to ")

	files, err := filepath.Glob(filepath.Join(dir, "trades_all_*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], ",buy,0.000001,500,")
	assert.Contains(t, lines[2], ",sell,0.0000002,100,")
	assert.Contains(t, lines[3], ",buy,0.0000092,4600,")

	_, err = run(t, "--config", cfg, "simulate", "--export-format", "xml", path)
	assert.Error(t, err)
}

func TestSimulateStrictStopsAtFirstRejection(t *testing.T) {
	cfg := writeConfig(t, "")
	path := writeFile(t, "scenario.yaml", scenario)

	out, err := run(t, "--config", cfg, "simulate", "--strict", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 3")
	assert.NotContains(t, out, "status launched")
}

func TestSimulateThenInspect(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, "storage:\n  driver: pebble\n  path: "+filepath.Join(dir, "curves")+"\n")
	mint := solana.NewWallet().PublicKey()
	body := "fund: \"1\"\ncurve:\n  mint: " + mint.String() + flatCurve +
		"steps:\n  - action: buy\n    trader: alice\n    sol: \"0.000002\"\n"
	path := writeFile(t, "scenario.yaml", body)

	_, err := run(t, "--config", cfg, "simulate", path)
	require.NoError(t, err)

	out, err := run(t, "--config", cfg, "inspect")
	require.NoError(t, err)
	assert.Contains(t, out, mint.String())
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "4000/5000 tokens left")

	out, err = run(t, "--config", cfg, "inspect", mint.String())
	require.NoError(t, err)
	assert.Contains(t, out, "mint: "+mint.String())
	assert.Contains(t, out, "real_token_reserves: 4000")
	assert.Contains(t, out, "kind: creator")
}

func TestInspectNeedsPebble(t *testing.T) {
	_, err := run(t, "--config", writeConfig(t, ""), "inspect")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "curvectl version "+Version)
}
