package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCommand = &cobra.Command{
	Use:          "wanderly",
	Aliases:      []string{"wanderly-go"},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 'version' and 'help' run without configuration
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return loadSettings()
	},
	Short: "Wanderly: trip planner backend and client tooling",
	Long: `Wanderly serves the trip planner backend and ships the client helpers around it:
a readiness poller that waits for a slow-starting backend and then opens the
login page, and a delete guard that asks for confirmation before any
destructive form is submitted.

Author: Aravindh Murugesan`,
}

func Execute() error {
	return rootCommand.Execute()
}

func init() {
	rootCommand.AddGroup(&cobra.Group{ID: "wanderly", Title: "Wanderly"})

	// Global Persistent Flags with env vars support
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./wanderly.yaml or $HOME/.config/wanderly/wanderly.yaml)")
	flags.String("base-url", "http://localhost:5003", "Base URL of the Wanderly backend")
	flags.Int("timeout", 0, "Global execution timeout in seconds (0 = run indefinitely)")
	flags.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flags.String("webhook-url", "", "Webhook URL for notifications")
	flags.String("webhook-username", "", "Webhook username for notifications")
	flags.String("webhook-password", "", "Webhook password for notifications")
	flags.Bool("webhook-verify", true, "Verify the webhook TLS certificate")

	// Bind to viper keys (and through them to WANDERLY_* env vars)
	bindFlags(flags, map[string]string{
		"base_url":         "base-url",
		"timeout":          "timeout",
		"log_level":        "log-level",
		"webhook.url":      "webhook-url",
		"webhook.username": "webhook-username",
		"webhook.password": "webhook-password",
		"webhook.verify":   "webhook-verify",
	})

	viper.SetEnvPrefix("WANDERLY")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
}
