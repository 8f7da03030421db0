package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aravindh-murugesan/wanderly-go/internal/readiness"
	"github.com/aravindh-murugesan/wanderly-go/internal/workflow"
)

var waitCommand = &cobra.Command{
	Use:     "wait",
	Short:   "Wait for the backend to become ready, then open the login page",
	GroupID: "wanderly",
	Long: `Polls the readiness endpoint (or a Kubernetes deployment) at a fixed interval
until it reports ready, showing the attempt number as it goes, then sends the
user to the login page. There is no attempt limit; use --timeout or Ctrl+C to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		printBanner(cmd.ErrOrStderr(), "Readiness")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := settings.Wait
		_, err := workflow.RunReadinessWorkflow(ctx, workflow.WaitOptions{
			BaseURL:        settings.BaseURL,
			ReadyPath:      w.ReadyPath,
			LoginPath:      w.LoginPath,
			Interval:       w.Interval,
			TimeoutSeconds: settings.Timeout,
			LogLevel:       settings.LogLevel,
			Source:         w.Source,
			KubeDeployment: w.KubeDeployment,
			Kubeconfig:     w.Kubeconfig,
			Navigator:      w.Navigator,
			Headless:       w.Headless,
			InstallBrowser: w.InstallBrowser,
			Webhook:        settings.Webhook.Provider(),
			Out:            cmd.OutOrStdout(),
			StatusOut:      cmd.ErrOrStderr(),
		})
		return err
	},
}

func init() {
	rootCommand.AddCommand(waitCommand)

	flags := waitCommand.Flags()
	flags.Duration("interval", readiness.DefaultInterval, "Fixed delay between readiness checks")
	flags.String("ready-path", readiness.DefaultReadyPath, "Readiness endpoint path")
	flags.String("login-path", readiness.DefaultLoginPath, "Path to open once the backend is ready")
	flags.String("navigator", workflow.NavigatorPrint, "How to open the login page (print, browser, playwright)")
	flags.String("source", workflow.SourceHTTP, "Readiness source (http, kubernetes)")
	flags.String("kube-deployment", "", "Deployment to watch with --source kubernetes (namespace/name)")
	flags.String("kubeconfig", "", "Path to kubeconfig (default loading rules when empty)")
	flags.Bool("headless", false, "Run the playwright browser without a window")
	flags.Bool("install-browser", false, "Download the playwright driver and browsers before starting")

	bindFlags(flags, map[string]string{
		"wait.interval":        "interval",
		"wait.ready_path":      "ready-path",
		"wait.login_path":      "login-path",
		"wait.navigator":       "navigator",
		"wait.source":          "source",
		"wait.kube_deployment": "kube-deployment",
		"wait.kubeconfig":      "kubeconfig",
		"wait.headless":        "headless",
		"wait.install_browser": "install-browser",
	})
}
