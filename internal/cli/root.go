package cli

import (
	"fmt"
	"os"

	"github.com/rovshanmuradov/bondcurve/internal/config"
	"github.com/rovshanmuradov/bondcurve/internal/utils/logger"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0-dev"

type globalFlags struct {
	configFile string
	envFiles   []string
	debug      bool
	quiet      bool
}

func (g *globalFlags) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(g.configFile, g.envFiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	lc := cfg.LoggerConfig()
	if g.debug {
		lc.Development = true
	}
	lc.Quiet = g.quiet
	log, err := logger.New(lc)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// NewRootCmd builds the curvectl command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "curvectl",
		Short: "Segmented bonding curve pricing and supply allocation",
		Long: `curvectl prices, simulates and inspects bonding curves.

A curve splits its token supply into allocation buckets and sells the
tradable bucket along constant, linear and exponential segments (or a
constant-product curve over virtual reserves).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "configuration file path (JSON or YAML)")
	root.PersistentFlags().StringSliceVar(&g.envFiles, "env-file", nil, "env files to load instead of ./.env")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", true, "keep logs out of the console")

	root.AddCommand(
		newQuoteCmd(),
		newSimulateCmd(g),
		newInspectCmd(g),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree. It is called by main.main.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
