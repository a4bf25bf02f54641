package app

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"portfolio-risk-alerts/internal/risk"
	"portfolio-risk-alerts/internal/storage"
)

// Show prints recent alerts, or recent score samples with --scores.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	alerts, scores, closeStores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	if opts.Scores {
		return showScores(ctx, scores, opts)
	}
	return showAlerts(ctx, alerts, opts)
}

func showAlerts(ctx context.Context, store storage.AlertStore, opts ShowOptions) error {
	alerts, err := store.ListAlerts(ctx, opts.Wallet, opts.Limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tType\tSeverity\tWallet\tDelivered\tTitle")

	for _, alert := range alerts {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%t\t%s\n",
			alert.CreatedAt.UTC().Format(time.RFC3339),
			alert.Type,
			alert.Severity,
			alert.WalletAddress,
			alert.Delivered,
			sanitizeInline(alert.Title),
		)
	}

	return writer.Flush()
}

func showScores(ctx context.Context, store storage.ScoreStore, opts ShowOptions) error {
	samples, err := store.ListRecentScores(ctx, opts.Wallet, opts.Limit)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stdout, "no score samples found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tWallet\tScore\tLevel\tMarket\tConcentration")

	for _, sample := range samples {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			sample.CreatedAt.UTC().Format(time.RFC3339),
			sample.WalletAddress,
			formatScore(sample.Score),
			sample.Level,
			sample.MarketCondition,
			formatScore(sample.Factors[risk.FactorConcentration]),
		)
	}

	return writer.Flush()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
