package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"portfolio-risk-alerts/internal/app"
)

var (
	showWallet string
	showLimit  int
	showScores bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent alerts or score samples",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Wallet: showWallet,
			Limit:  showLimit,
			Scores: showScores,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showWallet, "wallet", "", "Filter by wallet address")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of rows to display")
	showCmd.Flags().BoolVar(&showScores, "scores", false, "Show score samples instead of alerts")
}
