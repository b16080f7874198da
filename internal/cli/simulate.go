package cli

import (
	"github.com/spf13/cobra"

	"github.com/milechy/ultra-autotrade-project/internal/app"
)

var (
	simulateHealthFactor float64
	simulateLatencySec   float64
	simulatePriceChange  float64
	simulateEmergency    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-emergency",
	Short: "Run an emergency drill with synthetic samples and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.SimulateOptions{
			HealthFactor:  simulateHealthFactor,
			LatencySec:    simulateLatencySec,
			PriceChange:   simulatePriceChange,
			WithEmergency: simulateEmergency,
		}
		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateHealthFactor, "health-factor", 1.5, "Synthetic Aave health factor to record")
	simulateCmd.Flags().Float64Var(&simulateLatencySec, "latency", 35, "Synthetic component latency in seconds")
	simulateCmd.Flags().Float64Var(&simulatePriceChange, "price-change", 0, "Synthetic 24h portfolio change in percent")
	simulateCmd.Flags().BoolVar(&simulateEmergency, "force-stop", false, "Force a manual emergency stop if thresholds did not trigger one")
}
