package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ardiansyahn/crm-backoffice/internal"
	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
	"github.com/ardiansyahn/crm-backoffice/internal/gateway"
	"github.com/ardiansyahn/crm-backoffice/internal/session"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Inspect the backend audit trail",
}

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent activity log entries",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fail(err)
		}
		defer app.Close()

		ctx := context.Background()
		if _, err := app.requireSession(ctx); err != nil {
			fail(err)
		}
		if !app.Sessions.HasPermission(session.ModuleReports, session.ActionView) {
			fail(internal.NewForbiddenError("your role cannot view activity logs", internal.ErrCodePermissionDenied))
		}

		raw, err := app.Client.Do(ctx, http.MethodGet, "/activity-logs/", nil)
		if err != nil {
			fail(err)
		}
		records, err := gateway.DecodeList(raw)
		if err != nil {
			fail(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tUSER\tMODULE\tACTION\tDETAILS")
		for _, record := range records {
			var dto datamodel.ActivityLogDTO
			if err := json.Unmarshal(record, &dto); err != nil {
				app.Logger.Warn("skipping unreadable activity record", "error", err)
				continue
			}
			entry := dto.ToActivityLog()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				entry.CreatedAt.Format("2006-01-02 15:04"), entry.UserName, entry.Module, entry.Action, entry.Details)
		}
		w.Flush()
	},
}

func init() {
	activityCmd.AddCommand(activityListCmd)
	rootCmd.AddCommand(activityCmd)
}
