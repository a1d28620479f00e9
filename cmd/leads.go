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

var (
	leadsFile    string
	leadsOffline bool
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Work with leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads visible to the active session",
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

		if err := loadLeads(ctx, app); err != nil {
			fail(err)
		}

		leads := scope.VisibleLeads(sess, app.Cache.Leads(), nil)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPHONE\tSTATUS\tSOURCE\tLOCATION")
		for _, lead := range leads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				lead.ID, lead.Name, lead.Phone, lead.Status, lead.Source, lead.PreferredLocation)
		}
		w.Flush()
	},
}

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export visible leads to an Excel workbook",
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
		if !app.Sessions.HasPermission(session.ModuleLeads, session.ActionView) {
			fail(internal.NewForbiddenError("your role cannot export leads", internal.ErrCodePermissionDenied))
		}

		if err := loadLeads(ctx, app); err != nil {
			fail(err)
		}
		leads := scope.VisibleLeads(sess, app.Cache.Leads(), nil)

		out, err := os.Create(leadsFile)
		if err != nil {
			fail(err)
		}
		defer out.Close()

		if err := excel.ExportLeads(out, leads); err != nil {
			fail(err)
		}
		fmt.Printf("Exported %d leads to %s\n", len(leads), leadsFile)
	},
}

var leadsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from an Excel workbook",
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
		if !app.Sessions.HasPermission(session.ModuleLeads, session.ActionCreate) {
			fail(internal.NewForbiddenError("your role cannot import leads", internal.ErrCodePermissionDenied))
		}

		in, err := os.Open(leadsFile)
		if err != nil {
			fail(err)
		}
		defer in.Close()

		leads, result, err := excel.ImportLeads(in)
		if err != nil {
			fail(err)
		}

		created := 0
		for _, lead := range leads {
			if _, err := app.Client.Do(ctx, http.MethodPost, "/leads/", leadPayload(lead)); err != nil {
				app.Logger.Warn("failed to create imported lead", "lead", lead.Name, "error", err)
				continue
			}
			created++
		}

		fmt.Printf("Imported %d leads (%d rows skipped, %d rejected by backend)\n",
			created, result.Invalid, result.Valid-created)
	},
}

var leadsTemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write an import template workbook",
	Run: func(cmd *cobra.Command, args []string) {
		out, err := os.Create(leadsFile)
		if err != nil {
			fail(err)
		}
		defer out.Close()

		if err := excel.WriteLeadTemplate(out); err != nil {
			fail(err)
		}
		fmt.Printf("Template written to %s\n", leadsFile)
	},
}

// loadLeads prefers a live sync and falls back to the persisted snapshot
// when the backend is unreachable.
func loadLeads(ctx context.Context, a *app) error {
	if leadsOffline {
		return a.Cache.LoadPersisted()
	}
	if err := a.Cache.Refresh(ctx, false); err != nil {
		a.Logger.Warn("refresh failed, using persisted snapshot", "error", err)
		return a.Cache.LoadPersisted()
	}
	return nil
}

func leadPayload(lead datamodel.Lead) map[string]interface{} {
	payload := map[string]interface{}{
		"name":               lead.Name,
		"phone":              lead.Phone,
		"email":              lead.Email,
		"company":            lead.Address,
		"requirement_type":   string(lead.RequirementType),
		"bhk_requirement":    lead.BHKRequirement,
		"budget_min":         lead.BudgetMin,
		"budget_max":         lead.BudgetMax,
		"preferred_location": lead.PreferredLocation,
		"source":             string(lead.Source),
		"status":             string(lead.Status),
		"notes":              lead.Description,
	}
	if !lead.FollowUpDate.IsZero() {
		payload["follow_up_date"] = lead.FollowUpDate.Format("2006-01-02")
	}
	return payload
}

func init() {
	leadsCmd.PersistentFlags().StringVarP(&leadsFile, "file", "f", "leads.xlsx", "workbook path")
	leadsCmd.PersistentFlags().BoolVar(&leadsOffline, "offline", false, "use the persisted snapshot, skip syncing")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsExportCmd)
	leadsCmd.AddCommand(leadsImportCmd)
	leadsCmd.AddCommand(leadsTemplateCmd)
	rootCmd.AddCommand(leadsCmd)
}
