package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rovshanmuradov/bondcurve/internal/storage/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Format is the export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts csv, json and yaml.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Options configures an export.
type Options struct {
	Format    Format
	StartTime time.Time
	EndTime   time.Time
	Side      string // buy or sell; empty keeps both
	Trader    string
	OutputDir string
	// Now stamps the file name; defaults to time.Now.
	Now func() time.Time
}

// Row is one exported trade with lamport amounts rendered in SOL.
type Row struct {
	ExecutedAt        time.Time `json:"executed_at" yaml:"executed_at"`
	TradeID           string    `json:"trade_id" yaml:"trade_id"`
	Mint              string    `json:"mint" yaml:"mint"`
	Trader            string    `json:"trader" yaml:"trader"`
	Side              string    `json:"side" yaml:"side"`
	Sol               string    `json:"sol" yaml:"sol"`
	Tokens            uint64    `json:"tokens" yaml:"tokens"`
	Fee               string    `json:"fee" yaml:"fee"`
	RealSolReserves   string    `json:"real_sol_reserves" yaml:"real_sol_reserves"`
	RealTokenReserves uint64    `json:"real_token_reserves" yaml:"real_token_reserves"`
	CurveVersion      uint64    `json:"curve_version" yaml:"curve_version"`
}

var csvHeaders = []string{
	"executed_at", "trade_id", "mint", "trader", "side", "sol", "tokens",
	"fee", "real_sol_reserves", "real_token_reserves", "curve_version",
}

func (r Row) csv() []string {
	return []string{
		r.ExecutedAt.Format(time.RFC3339),
		r.TradeID, r.Mint, r.Trader, r.Side, r.Sol,
		strconv.FormatUint(r.Tokens, 10),
		r.Fee, r.RealSolReserves,
		strconv.FormatUint(r.RealTokenReserves, 10),
		strconv.FormatUint(r.CurveVersion, 10),
	}
}

func sol(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).String()
}

func newRow(t *models.Trade) Row {
	return Row{
		ExecutedAt:        t.ExecutedAt.UTC(),
		TradeID:           t.TradeID,
		Mint:              t.Mint,
		Trader:            t.Trader,
		Side:              t.Side,
		Sol:               sol(t.SolAmount),
		Tokens:            t.TokenAmount,
		Fee:               sol(t.FeeLamports),
		RealSolReserves:   sol(t.RealSolReserves),
		RealTokenReserves: t.RealTokenReserves,
		CurveVersion:      t.CurveVersion,
	}
}

// Summary aggregates the exported trades. Volumes are in lamports.
type Summary struct {
	TotalTrades   int       `json:"total_trades" yaml:"total_trades"`
	BuyCount      int       `json:"buy_count" yaml:"buy_count"`
	SellCount     int       `json:"sell_count" yaml:"sell_count"`
	UniqueTraders int       `json:"unique_traders" yaml:"unique_traders"`
	BuyVolume     uint64    `json:"buy_volume" yaml:"buy_volume"`
	SellVolume    uint64    `json:"sell_volume" yaml:"sell_volume"`
	TokensBought  uint64    `json:"tokens_bought" yaml:"tokens_bought"`
	TokensSold    uint64    `json:"tokens_sold" yaml:"tokens_sold"`
	Fees          uint64    `json:"fees" yaml:"fees"`
	StartDate     time.Time `json:"start_date" yaml:"start_date"`
	EndDate       time.Time `json:"end_date" yaml:"end_date"`
}

// TradeExporter writes trade history to files.
type TradeExporter struct {
	logger *zap.Logger
}

func NewTradeExporter(logger *zap.Logger) *TradeExporter {
	return &TradeExporter{logger: logger.Named("export")}
}

// ExportTrades filters trades, orders them oldest first and writes them to
// a new file under options.OutputDir. It returns the file path.
func (te *TradeExporter) ExportTrades(trades []*models.Trade, options Options) (string, error) {
	filtered := filterTrades(trades, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no trades match the export criteria")
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].ExecutedAt.Equal(filtered[j].ExecutedAt) {
			return filtered[i].CurveVersion < filtered[j].CurveVersion
		}
		return filtered[i].ExecutedAt.Before(filtered[j].ExecutedAt)
	})

	if err := os.MkdirAll(options.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(options.OutputDir, fileName(filtered[0].Mint, options))

	rows := make([]Row, len(filtered))
	for i, t := range filtered {
		rows[i] = newRow(t)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = writeCSV(rows, outputPath)
	case FormatJSON, FormatYAML:
		err = writeDocument(rows, Summarize(filtered), options.Format, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	te.logger.Info("Trades exported",
		zap.String("file", outputPath),
		zap.Int("count", len(rows)),
		zap.String("format", string(options.Format)))
	return outputPath, nil
}

func filterTrades(trades []*models.Trade, options Options) []*models.Trade {
	var filtered []*models.Trade
	for _, t := range trades {
		if !options.StartTime.IsZero() && t.ExecutedAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && t.ExecutedAt.After(options.EndTime) {
			continue
		}
		if options.Side != "" && t.Side != options.Side {
			continue
		}
		if options.Trader != "" && t.Trader != options.Trader {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

func fileName(mint string, options Options) string {
	now := time.Now
	if options.Now != nil {
		now = options.Now
	}
	prefix := "trades_all"
	if options.Side != "" {
		prefix = "trades_" + options.Side
	}
	if len(mint) > 8 {
		mint = mint[:8]
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, mint, now().UTC().Format("20060102_150405"), options.Format)
}

func writeCSV(rows []Row, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeaders); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, r := range rows {
		if err := w.Write(r.csv()); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

type document struct {
	TradeCount int     `json:"trade_count" yaml:"trade_count"`
	Summary    Summary `json:"summary" yaml:"summary"`
	Trades     []Row   `json:"trades" yaml:"trades"`
}

func writeDocument(rows []Row, summary Summary, format Format, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", format, err)
	}
	defer file.Close()

	doc := document{TradeCount: len(rows), Summary: summary, Trades: rows}
	if format == FormatJSON {
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}
	enc := yaml.NewEncoder(file)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// Summarize totals trades, which must be ordered oldest first.
func Summarize(trades []*models.Trade) Summary {
	s := Summary{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return s
	}
	s.StartDate = trades[0].ExecutedAt.UTC()
	s.EndDate = trades[len(trades)-1].ExecutedAt.UTC()

	traders := make(map[string]struct{})
	for _, t := range trades {
		traders[t.Trader] = struct{}{}
		s.Fees += t.FeeLamports
		switch t.Side {
		case models.SideBuy:
			s.BuyCount++
			s.BuyVolume += t.SolAmount
			s.TokensBought += t.TokenAmount
		case models.SideSell:
			s.SellCount++
			s.SellVolume += t.SolAmount
			s.TokensSold += t.TokenAmount
		}
	}
	s.UniqueTraders = len(traders)
	return s
}
