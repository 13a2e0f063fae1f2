package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/app"
	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/rovshanmuradov/bondcurve/internal/engine"
	"github.com/rovshanmuradov/bondcurve/internal/export"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultFund = "1000"

type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newSimulateCmd(g *globalFlags) *cobra.Command {
	var (
		strict       bool
		exportDir    string
		exportFormat string
	)
	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run a scenario of trades and claims through the engine",
		Long: `Create the scenario's curve on an in-memory custody ledger and run
its steps in order. Supported actions: buy, sell, advance, claim, launch.

Traders are referred to by name; each one is funded before the first step.
With storage.driver=pebble the final snapshot is kept for "curvectl inspect".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(exportFormat)
			if err != nil {
				return err
			}
			cfg, log, err := g.load()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer log.TrackPerformance("simulate")()

			clock := &simClock{now: time.Now().UTC().Truncate(time.Second)}
			runner, err := app.NewRunner(cmd.Context(), cfg, log.Logger, app.Options{Clock: clock.Now})
			if err != nil {
				return err
			}
			sim := &simulation{
				runner:  runner,
				clock:   clock,
				out:     cmd.OutOrStdout(),
				traders: make(map[string]solana.PublicKey),
				strict:  strict,
				logger:  log.WithComponent("simulate"),
			}
			mint, runErr := sim.run(cmd.Context(), sc)
			if runErr == nil && exportDir != "" {
				path, err := runner.ExportTrades(cmd.Context(), mint, export.Options{
					Format:    format,
					OutputDir: exportDir,
					Now:       clock.Now,
				})
				if err != nil {
					runErr = fmt.Errorf("export: %w", err)
				} else {
					fmt.Fprintf(sim.out, "trades exported to %s\n", path)
				}
			}
			if err := runner.Shutdown(context.Background()); err != nil {
				runErr = errors.Join(runErr, err)
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "stop at the first rejected step")
	cmd.Flags().StringVar(&exportDir, "export", "", "write the recorded trades to this directory")
	cmd.Flags().StringVar(&exportFormat, "export-format", string(export.FormatCSV), "export format: csv, json or yaml")
	return cmd
}

type simulation struct {
	runner  *app.Runner
	clock   *simClock
	out     io.Writer
	traders map[string]solana.PublicKey
	strict  bool
	logger  *zap.Logger
}

func (s *simulation) trader(name string) solana.PublicKey {
	if name == "" {
		name = "trader"
	}
	if k, ok := s.traders[name]; ok {
		return k
	}
	k := solana.NewWallet().PublicKey()
	s.traders[name] = k
	return k
}

// run creates the scenario's curve, plays its steps and prints the final
// state. It returns the curve's mint.
func (s *simulation) run(ctx context.Context, sc *Scenario) (solana.PublicKey, error) {
	var none solana.PublicKey
	fundStr := sc.Fund
	if fundStr == "" {
		fundStr = defaultFund
	}
	fund, err := ParseSOL(fundStr)
	if err != nil {
		return none, fmt.Errorf("fund: %w", err)
	}

	p, err := sc.Curve.Params()
	if err != nil {
		return none, err
	}
	s.traders["creator"] = p.Creator
	for _, st := range sc.Steps {
		if st.Action == "buy" || st.Action == "sell" {
			s.trader(st.Trader)
		}
	}
	ledger := s.runner.Ledger()
	for _, k := range s.traders {
		if err := ledger.Fund(k, fund); err != nil {
			return none, err
		}
	}

	eng := s.runner.Engine()
	state, err := eng.CreateCurve(ctx, p)
	if err != nil {
		return none, fmt.Errorf("create curve: %w", err)
	}
	fmt.Fprintf(s.out, "created %s (%s, %d tradable)\n", state.Mint, state.Strategy, state.Supply.Bonding)

	for i, st := range sc.Steps {
		line, err := s.step(ctx, state.Mint, st)
		if err != nil {
			s.logger.Debug("Step rejected", zap.Int("step", i+1), zap.String("action", st.Action), zap.Error(err))
			fmt.Fprintf(s.out, "%3d %-7s rejected: %v\n", i+1, st.Action, err)
			if s.strict {
				return none, fmt.Errorf("step %d: %w", i+1, err)
			}
			continue
		}
		fmt.Fprintf(s.out, "%3d %-7s %s\n", i+1, st.Action, line)
	}

	final, err := eng.State(state.Mint)
	if err != nil {
		return none, err
	}
	dists, err := eng.Distributors(state.Mint)
	if err != nil {
		return none, err
	}
	return state.Mint, writeYAML(s.out, newCurveView(final, dists))
}

func (s *simulation) step(ctx context.Context, mint solana.PublicKey, st Step) (string, error) {
	eng := s.runner.Engine()
	switch st.Action {
	case "buy":
		sol, err := ParseSOL(st.Sol)
		if err != nil {
			return "", err
		}
		t, err := eng.Buy(ctx, engine.BuyRequest{Mint: mint, Buyer: s.trader(st.Trader), SolIn: sol, MinTokensOut: st.MinOut})
		if err != nil {
			return "", err
		}
		return tradeLine(t), nil
	case "sell":
		t, err := eng.Sell(ctx, engine.SellRequest{Mint: mint, Seller: s.trader(st.Trader), TokenIn: st.Tokens, MinSolOut: st.MinOut})
		if err != nil {
			return "", err
		}
		return tradeLine(t), nil
	case "advance":
		if st.Seconds <= 0 {
			return "", fmt.Errorf("advance needs positive seconds, got %d", st.Seconds)
		}
		s.clock.advance(time.Duration(st.Seconds) * time.Second)
		return fmt.Sprintf("clock at %s", s.clock.Now().Format(time.RFC3339)), nil
	case "claim":
		kind, err := curve.ParseDistributorKind(st.Distributor)
		if err != nil {
			return "", err
		}
		state, err := eng.State(mint)
		if err != nil {
			return "", err
		}
		amount, err := eng.Claim(ctx, engine.ClaimRequest{Mint: mint, Kind: kind, Recipient: s.claimRecipient(state, kind, st.Trader)})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s released %d", kind, amount), nil
	case "launch":
		state, err := eng.Launch(ctx, mint)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("status %s with %s SOL", state.Status, FormatSOL(state.RealSolReserves)), nil
	default:
		return "", fmt.Errorf("unknown action %q", st.Action)
	}
}

func (s *simulation) claimRecipient(state curve.BondingCurveState, kind curve.DistributorKind, name string) solana.PublicKey {
	if name != "" {
		return s.trader(name)
	}
	if kind == curve.DistributorBrand && !state.BrandAuthority.IsZero() {
		return state.BrandAuthority
	}
	return state.Creator
}

func tradeLine(t *engine.Trade) string {
	line := fmt.Sprintf("%s %d tokens for %s SOL (fee %s), reserves %s SOL / %d tokens",
		t.Side(), t.TokenAmount, FormatSOL(t.SolAmount), FormatSOL(t.FeeLamports),
		FormatSOL(t.State.RealSolReserves), t.State.RealTokenReserves)
	if t.Completed {
		line += ", curve complete"
	}
	return line
}
