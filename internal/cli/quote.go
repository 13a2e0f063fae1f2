package cli

import (
	"fmt"
	"time"

	"github.com/rovshanmuradov/bondcurve/internal/curve"
	"github.com/spf13/cobra"
)

type quoteFlags struct {
	buySOL    string
	sellToken uint64
	afterBuy  string
	sellFor   string
}

func newQuoteCmd() *cobra.Command {
	f := &quoteFlags{}
	cmd := &cobra.Command{
		Use:   "quote <curve.yaml>",
		Short: "Price trades against a fresh curve",
		Long: `Build the curve described by a YAML file and print its maximum
attainable SOL together with buy and sell quotes.

Examples:
    curvectl quote curve.yaml --buy 1.5
    curvectl quote curve.yaml --after-buy 10 --sell 250000
    curvectl quote curve.yaml --after-buy 10 --sell-for 2.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.buySOL, "buy", "", "quote a buy spending this many SOL")
	cmd.Flags().Uint64Var(&f.sellToken, "sell", 0, "quote a sell of this many base units")
	cmd.Flags().StringVar(&f.sellFor, "sell-for", "", "quote the tokens a sell must give up to receive this many SOL")
	cmd.Flags().StringVar(&f.afterBuy, "after-buy", "", "apply a buy of this many SOL before quoting")
	return cmd
}

func runQuote(cmd *cobra.Command, path string, f *quoteFlags) error {
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}
	p, err := sc.Curve.Params()
	if err != nil {
		return err
	}
	state, err := curve.CreateCurve(p, time.Now().Unix(), curve.DefaultCreateOptions())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.afterBuy != "" {
		sol, err := ParseSOL(f.afterBuy)
		if err != nil {
			return err
		}
		var res curve.BuyResult
		if state, res, err = curve.ApplyBuy(state, sol); err != nil {
			return fmt.Errorf("after-buy: %w", err)
		}
		fmt.Fprintf(out, "after buy:      %d tokens for %s SOL\n", res.TokenAmount, FormatSOL(res.SolAmount))
	}

	maxSol, err := curve.MaxAttainableSOL(state)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "strategy:       %s\n", state.Strategy)
	fmt.Fprintf(out, "bonding supply: %d\n", state.Supply.Bonding)
	fmt.Fprintf(out, "remaining:      %d\n", state.RealTokenReserves)
	fmt.Fprintf(out, "max sol:        %s\n", FormatSOL(maxSol))
	if state.RealTokenReserves > 0 {
		if next, err := curve.BuyPrice(state, 1); err == nil {
			fmt.Fprintf(out, "next token:     %s SOL\n", FormatSOL(next))
		}
	}

	if f.buySOL != "" {
		sol, err := ParseSOL(f.buySOL)
		if err != nil {
			return err
		}
		tokens, err := curve.QuoteBuy(state, sol)
		if err != nil {
			return fmt.Errorf("buy quote: %w", err)
		}
		fmt.Fprintf(out, "buy:            %s SOL -> %d tokens\n", FormatSOL(sol), tokens)
	}
	if f.sellToken > 0 {
		sol, err := curve.QuoteSell(state, f.sellToken)
		if err != nil {
			return fmt.Errorf("sell quote: %w", err)
		}
		fmt.Fprintf(out, "sell:           %d tokens -> %s SOL\n", f.sellToken, FormatSOL(sol))
	}
	if f.sellFor != "" {
		sol, err := ParseSOL(f.sellFor)
		if err != nil {
			return err
		}
		tokens, err := curve.TokensForSell(state, sol)
		if err != nil {
			return fmt.Errorf("sell-for quote: %w", err)
		}
		fmt.Fprintf(out, "sell for:       %d tokens -> %s SOL\n", tokens, FormatSOL(sol))
	}
	return nil
}
