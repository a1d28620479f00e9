package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ardiansyahn/crm-backoffice/internal"
	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
	"github.com/ardiansyahn/crm-backoffice/internal/excel"
	"github.com/ardiansyahn/crm-backoffice/internal/scope"
	"github.com/ardiansyahn/crm-backoffice/internal/session"
)

var tasksFile string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Work with follow-up tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks visible to the active session",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fail(err)
		}
		defer app.Close()

		ctx := context.Background()
		sess, err := app.requireSession(ctx)
		if err != nil {
			fail(err)
		}

		if err := app.Cache.Refresh(ctx, false); err != nil {
			app.Logger.Warn("refresh failed, using persisted snapshot", "error", err)
			if err := app.Cache.LoadPersisted(); err != nil {
				fail(err)
			}
		}

		tasks := scope.VisibleTasks(sess, app.Cache.Tasks(), nil)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLEAD\tPHONE\tSTATUS\tDUE")
		for _, task := range tasks {
			due := ""
			if !task.DueDate.IsZero() {
				due = task.DueDate.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				task.ID, task.LeadName, task.LeadPhone, task.Status, due)
		}
		w.Flush()
	},
}

var tasksExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export visible tasks to an Excel workbook",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fail(err)
		}
		defer app.Close()

		ctx := context.Background()
		sess, err := app.requireSession(ctx)
		if err != nil {
			fail(err)
		}
		if !app.Sessions.HasPermission(session.ModuleTasks, session.ActionView) {
			fail(internal.NewForbiddenError("your role cannot export tasks", internal.ErrCodePermissionDenied))
		}

		if err := app.Cache.Refresh(ctx, false); err != nil {
			fail(err)
		}
		tasks := scope.VisibleTasks(sess, app.Cache.Tasks(), nil)

		out, err := os.Create(tasksFile)
		if err != nil {
			fail(err)
		}
		defer out.Close()

		if err := excel.ExportTasks(out, tasks); err != nil {
			fail(err)
		}
		fmt.Printf("Exported %d tasks to %s\n", len(tasks), tasksFile)
	},
}

var tasksImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import tasks from an Excel workbook",
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
		if !app.Sessions.HasPermission(session.ModuleTasks, session.ActionCreate) {
			fail(internal.NewForbiddenError("your role cannot import tasks", internal.ErrCodePermissionDenied))
		}

		in, err := os.Open(tasksFile)
		if err != nil {
			fail(err)
		}
		defer in.Close()

		tasks, result, err := excel.ImportTasks(in)
		if err != nil {
			fail(err)
		}

		created := 0
		for _, task := range tasks {
			if _, err := app.Client.Do(ctx, http.MethodPost, "/tasks/", taskPayload(task)); err != nil {
				app.Logger.Warn("failed to create imported task", "lead", task.LeadName, "error", err)
				continue
			}
			created++
		}

		fmt.Printf("Imported %d tasks (%d rows skipped, %d rejected by backend)\n",
			created, result.Invalid, result.Valid-created)
	},
}

var tasksTemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write an import template workbook",
	Run: func(cmd *cobra.Command, args []string) {
		out, err := os.Create(tasksFile)
		if err != nil {
			fail(err)
		}
		defer out.Close()

		if err := excel.WriteTaskTemplate(out); err != nil {
			fail(err)
		}
		fmt.Printf("Template written to %s\n", tasksFile)
	},
}

func taskPayload(task datamodel.Task) map[string]interface{} {
	payload := map[string]interface{}{
		"lead_name":  task.LeadName,
		"lead_phone": task.LeadPhone,
		"project":    task.ProjectID.String(),
		"status":     string(task.Status),
		"notes":      task.Description,
	}
	if !task.DueDate.IsZero() {
		payload["due_date"] = task.DueDate.Format("2006-01-02")
	}
	return payload
}

func init() {
	tasksCmd.PersistentFlags().StringVarP(&tasksFile, "file", "f", "tasks.xlsx", "workbook path")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksExportCmd)
	tasksCmd.AddCommand(tasksImportCmd)
	tasksCmd.AddCommand(tasksTemplateCmd)
	rootCmd.AddCommand(tasksCmd)
}
