package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aravindh-murugesan/wanderly-go/internal/workflow"
)

var deleteCommand = &cobra.Command{
	Use:     "delete",
	Short:   "Submit a delete form from a Wanderly page, after confirmation",
	GroupID: "wanderly",
	Long: `Loads a page, finds the forms marked as destructive (class "delete-btn" or an
action matching --match) and submits the selected one. Every submission asks
"Are you sure? This cannot be undone!" first; declining sends nothing.`,
	Example: `  wanderly delete --page /trips/1 --list
  wanderly delete --page /trips/1 --form 2
  wanderly delete --page / --all --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		printBanner(cmd.ErrOrStderr(), "Delete")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		d := settings.Delete
		outcomes, err := workflow.RunDeleteWorkflow(ctx, workflow.DeleteOptions{
			BaseURL:        settings.BaseURL,
			Page:           d.Page,
			Form:           d.Form,
			All:            d.All,
			List:           d.List,
			Yes:            d.Yes,
			Match:          d.Match,
			TimeoutSeconds: settings.Timeout,
			LogLevel:       settings.LogLevel,
			Webhook:        settings.Webhook.Provider(),
			In:             cmd.InOrStdin(),
			Out:            cmd.OutOrStdout(),
		})

		for _, o := range outcomes {
			if o.Submitted {
				fmt.Fprintln(cmd.OutOrStdout(), submittedStyle.Render("deleted"), o.Form)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), keptStyle.Render("kept"), o.Form)
			}
		}
		return err
	},
}

func init() {
	rootCommand.AddCommand(deleteCommand)

	flags := deleteCommand.Flags()
	flags.String("page", "/", "Page holding the delete forms (path or absolute URL)")
	flags.Int("form", 0, "Delete form to submit, 1-based in page order (see --list)")
	flags.Bool("all", false, "Submit every delete form on the page")
	flags.Bool("list", false, "List the delete forms and exit")
	flags.BoolP("yes", "y", false, "Confirm every delete without prompting")
	flags.StringSlice("match", nil, "Extra glob patterns on form actions to treat as destructive (e.g. '*/delete')")

	bindFlags(flags, map[string]string{
		"delete.page":  "page",
		"delete.form":  "form",
		"delete.all":   "all",
		"delete.list":  "list",
		"delete.yes":   "yes",
		"delete.match": "match",
	})
}
