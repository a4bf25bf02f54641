package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"portfolio-risk-alerts/internal/app"
)

var (
	scoreWallet      string
	scoreCorrelation float64
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Analyze a single wallet once and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ScoreOptions{
			Wallet: scoreWallet,
		}

		if cmd.Flags().Changed("correlation") {
			if scoreCorrelation < 0 || scoreCorrelation > 1 {
				return errors.New("--correlation must be between 0 and 1")
			}
			opts.Correlation = &scoreCorrelation
		}

		return getApp().Score(cmd.Context(), opts)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreWallet, "wallet", "", "Wallet address to analyze")
	scoreCmd.Flags().Float64Var(&scoreCorrelation, "correlation", 0, "Override the market correlation signal (0 to 1)")
}
