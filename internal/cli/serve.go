package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aravindh-murugesan/wanderly-go/internal/readiness"
	"github.com/aravindh-murugesan/wanderly-go/internal/server"
	"github.com/aravindh-murugesan/wanderly-go/internal/workflow"
)

var serveCommand = &cobra.Command{
	Use:     "serve",
	Short:   "Run the Wanderly backend",
	GroupID: "wanderly",
	Long: `Starts the Wanderly backend: trip pages with guarded delete forms, the /ready
endpoint backed by a scheduled database probe, and the /warming page that
polls it before moving to /login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		printBanner(cmd.ErrOrStderr(), "Server Mode")

		// Block until Signal
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := settings.Serve
		return workflow.RunServeWorkflow(ctx, workflow.ServeOptions{
			Address:            s.Address,
			Database:           s.Database,
			Seed:               s.Seed,
			Warmup:             s.Warmup,
			ProbeInterval:      s.ProbeInterval,
			SchedulerUIAddress: s.SchedulerUIAddress,
			ReadyPath:          settings.Wait.ReadyPath,
			LoginPath:          settings.Wait.LoginPath,
			PollInterval:       s.PollInterval,
			LogLevel:           settings.LogLevel,
		})
	},
}

func init() {
	rootCommand.AddCommand(serveCommand)

	flags := serveCommand.Flags()
	flags.String("address", "0.0.0.0:5003", "Address to bind the backend")
	flags.String("database", "wanderly.db", "SQLite database file")
	flags.Bool("seed", true, "Create demo data in an empty database")
	flags.Duration("warmup", 0, "Report not ready for this long after start")
	flags.Duration("probe-interval", server.DefaultProbeInterval, "Interval of the database readiness probe")
	flags.Duration("poll-interval", readiness.DefaultInterval, "Interval used by the warming page")
	flags.String("scheduler-ui-address", "", "Address to bind the scheduler dashboard (disabled when empty)")

	bindFlags(flags, map[string]string{
		"serve.address":              "address",
		"serve.database":             "database",
		"serve.seed":                 "seed",
		"serve.warmup":               "warmup",
		"serve.probe_interval":       "probe-interval",
		"serve.poll_interval":        "poll-interval",
		"serve.scheduler_ui_address": "scheduler-ui-address",
	})
}
