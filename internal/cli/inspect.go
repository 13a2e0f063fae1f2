package cli

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/bondcurve/internal/config"
	"github.com/rovshanmuradov/bondcurve/internal/storage/pebble"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInspectCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [mint]",
		Short: "Show stored curves",
		Long: `Read curve snapshots from the pebble store named by storage.path.
Without a mint every stored curve is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load()
			if err != nil {
				return err
			}
			defer log.Sync()
			if cfg.Storage.Driver != config.DriverPebble {
				return errors.New("inspect needs storage.driver=pebble")
			}

			store, err := pebble.Open(cfg.Storage.Path, cfg.Storage.CacheSize, log.Logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				mints, err := store.ListCurves(ctx)
				if err != nil {
					return err
				}
				for _, m := range mints {
					s, err := store.LoadCurve(ctx, m)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s  %-9s  %s SOL  %d/%d tokens left\n",
						m, s.Status, FormatSOL(s.RealSolReserves), s.RealTokenReserves, s.Supply.Bonding)
				}
				return nil
			}

			mint, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid mint: %w", err)
			}
			s, err := store.LoadCurve(ctx, mint)
			if err != nil {
				return err
			}
			dists, err := store.LoadDistributors(ctx, mint)
			if err != nil {
				return err
			}
			log.WithCurve(mint).Debug("Curve loaded",
				zap.Stringer("status", s.Status),
				zap.Uint64("version", s.Version),
				zap.Int("distributors", len(dists)))
			return writeYAML(out, newCurveView(s, dists))
		},
	}
}
