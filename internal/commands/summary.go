package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/internal/service"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print today's summary: progress, overdue, today and upcoming tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		summary, err := service.NewReminderService(b.taskStore, b.categoryStore).DailySummary(cmd.Context(), b.now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary.Text())
		return nil
	},
}
