package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/JosineyJr/switch_router/internal/config"
	"github.com/JosineyJr/switch_router/internal/health"
	"github.com/JosineyJr/switch_router/internal/metrics"
	"github.com/JosineyJr/switch_router/internal/wizard"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one health check cycle against the configured switches",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	monitor := health.NewHealthMonitor(
		cfg.Switches,
		health.NewHTTPProber(nil),
		cfg.Health.Timeout,
		metrics.Nop{},
		newLogger(cfg.Log.Level),
	)
	monitor.RunCycle(cmd.Context())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SWITCH\tHEALTHY\tERROR")
	for _, st := range monitor.Statuses() {
		fmt.Fprintf(w, "%s\t%t\t%s\n", st.HealthCheckURL(), st.Healthy, st.LastError)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(monitor.HealthySwitches()) == 0 {
		return wizard.ErrNoHealthySwitches
	}
	return nil
}
