package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milechy/ultra-autotrade-project/internal/app"
	"github.com/milechy/ultra-autotrade-project/internal/reporting"
)

var (
	reportPeriod string
	reportSend   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build a summary report from archived events",
	RunE: func(cmd *cobra.Command, args []string) error {
		period := reporting.Period(reportPeriod)
		switch period {
		case reporting.PeriodDaily, reporting.PeriodWeekly:
		default:
			return fmt.Errorf("--period must be daily or weekly, got %q", reportPeriod)
		}

		opts := app.ReportOptions{
			Period: period,
			Send:   reportSend,
		}
		return getApp().Report(cmd.Context(), opts)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportPeriod, "period", "daily", "Report period (daily or weekly)")
	reportCmd.Flags().BoolVar(&reportSend, "send", false, "Also dispatch the report via configured alert channels")
}
