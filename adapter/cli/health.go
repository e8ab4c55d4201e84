package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database, broker and outbox health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		health := app.Health.GetOverallHealth(cmd.Context())
		return Render(cmd, health, func(w io.Writer) {
			fmt.Fprintf(w, "Status: %s\n", health.Status)
			names := make([]string, 0, len(health.Checks))
			for name := range health.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				check := health.Checks[name]
				fmt.Fprintf(w, "  %-10s %-10s %s\n", name, check.Status, check.Message)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
