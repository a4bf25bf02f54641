package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"portfolio-risk-alerts/internal/service"
)

// Score runs a single analysis cycle for one wallet and prints the
// result as JSON. Alerts fire through the regular engine, so repeated
// invocations within the cooldown window stay quiet.
func (a *App) Score(ctx context.Context, opts ScoreOptions) error {
	if opts.Wallet == "" {
		return errors.New("--wallet is required")
	}

	c, err := a.buildCore(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	correlation := opts.Correlation
	if correlation == nil {
		correlation, err = c.macro.FetchCorrelation(ctx)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("correlation signal unavailable; scoring without it")
			correlation = nil
		}
	}

	result := c.svc.AnalyzeWallet(ctx, opts.Wallet, correlation)

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(encoded))

	if result.Status == service.StatusFailed {
		return fmt.Errorf("analysis failed: %s", result.Error)
	}
	return nil
}
