package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"portfolio-risk-alerts/internal/risk"
	"portfolio-risk-alerts/internal/storage"
)

// Export renders score history for one wallet as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Wallet == "" {
		return errors.New("--wallet is required")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	_, scores, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	to := time.Now().UTC()
	if opts.To != nil {
		to = opts.To.UTC()
	}

	from := to.Add(-time.Duration(opts.MaxPoints) * a.Config.Scheduler.Interval)
	if opts.From != nil {
		from = opts.From.UTC()
	}

	if !from.Before(to) {
		return errors.New("from must be before to")
	}

	samples, err := scores.ListScoresBetween(ctx, opts.Wallet, from, to)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		a.Logger.Info().Str("wallet", opts.Wallet).Msg("no score samples found for export window")
		return nil
	}

	downsampled := downsampleScores(samples, opts.MaxPoints)
	a.Logger.Info().Int("total", len(samples)).Int("exported", len(downsampled)).Msg("exporting score samples")

	if opts.CSVPath != "" {
		if err := writeScoresCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeScoresPNG(opts.PNGPath, opts.Wallet, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleScores(samples []storage.RiskScoreSample, max int) []storage.RiskScoreSample {
	if max <= 0 || len(samples) <= max {
		return samples
	}

	result := make([]storage.RiskScoreSample, 0, max)
	step := float64(len(samples)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		result = append(result, samples[idx])
	}
	return result
}

func writeScoresCSV(path string, samples []storage.RiskScoreSample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"created_at", "wallet_address", "score", "level", "market_condition"}
	header = append(header, risk.FactorNames...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, sample := range samples {
		record := []string{
			sample.CreatedAt.UTC().Format(time.RFC3339),
			sample.WalletAddress,
			formatScore(sample.Score),
			sample.Level,
			sample.MarketCondition,
		}
		for _, factor := range risk.FactorNames {
			record = append(record, formatScore(sample.Factors[factor]))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeScoresPNG(path, wallet string, samples []storage.RiskScoreSample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(samples))
	overall := make([]float64, len(samples))
	concentration := make([]float64, len(samples))
	correlation := make([]float64, len(samples))

	for i, sample := range samples {
		x[i] = sample.CreatedAt
		overall[i] = sample.Score
		concentration[i] = sample.Factors[risk.FactorConcentration]
		correlation[i] = sample.Factors[risk.FactorCorrelationRisk]
	}

	scoreFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Title:  "Risk score: " + wallet,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Score (0-100)",
			ValueFormatter: scoreFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Overall",
				XValues: x,
				YValues: overall,
			},
			chart.TimeSeries{
				Name:    "Concentration",
				XValues: x,
				YValues: concentration,
			},
			chart.TimeSeries{
				Name:    "Correlation",
				XValues: x,
				YValues: correlation,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
