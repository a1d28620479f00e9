package excel

import (
	"io"

	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
)

var taskColumns = []string{
	"Lead Name *",
	"Lead Phone *",
	"Lead Email",
	"Requirement Type (villa/apartment/house/plot)",
	"BHK (1/2/3/4/5+)",
	"Project ID *",
	"Status (in_progress/site_visit/family_visit/completed/rejected)",
	"Next Action Date (YYYY-MM-DD)",
	"Notes",
}

var taskSampleRows = [][]interface{}{
	{"John Doe", "9876543210", "john@example.com", "apartment", "3", "project-1", "in_progress", "2024-02-15", "Initial contact made"},
	{"Jane Smith", "9123456789", "jane@example.com", "villa", "4", "project-2", "in_progress", "2024-02-20", "Schedule site visit"},
}

func WriteTaskTemplate(w io.Writer) error {
	rows := make([][]interface{}, 0, 1+len(taskSampleRows))
	header := make([]interface{}, len(taskColumns))
	for i, c := range taskColumns {
		header[i] = c
	}
	rows = append(rows, header)
	rows = append(rows, taskSampleRows...)

	widths := make([]float64, len(taskColumns))
	for i := range widths {
		widths[i] = 25
	}
	return writeSheet(w, "Tasks Template", rows, widths)
}

// ExportTasks writes one row per task in the template's column order.
// Requirement and BHK columns stay empty: the canonical task record does
// not carry the originating lead's full profile.
func ExportTasks(w io.Writer, tasks []datamodel.Task) error {
	rows := make([][]interface{}, 0, 1+len(tasks))
	header := make([]interface{}, len(taskColumns))
	for i, c := range taskColumns {
		header[i] = c
	}
	rows = append(rows, header)

	for _, task := range tasks {
		rows = append(rows, []interface{}{
			task.LeadName,
			task.LeadPhone,
			"",
			"",
			"",
			task.ProjectID.String(),
			string(task.Status),
			formatDate(task.DueDate),
			task.Description,
		})
	}

	widths := []float64{20, 15, 25, 15, 8, 20, 15, 14, 40}
	return writeSheet(w, "Tasks", rows, widths)
}

// ImportTasks parses a task workbook. Lead Name, Lead Phone and Project
// ID are required; rows without them are counted and skipped.
func ImportTasks(r io.Reader) ([]datamodel.Task, ImportResult, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, ImportResult{}, err
	}

	var result ImportResult
	tasks := make([]datamodel.Task, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		leadName := cell(row, 0)
		leadPhone := cell(row, 1)
		projectID := cell(row, 5)
		if leadName == "" || leadPhone == "" || projectID == "" {
			result.Invalid++
			continue
		}

		status := datamodel.TaskStatus(normalizeChoice(cell(row, 6)))
		switch status {
		case datamodel.TaskStatusInProgress, datamodel.TaskStatusSiteVisit, datamodel.TaskStatusFamilyVisit, datamodel.TaskStatusCompleted, datamodel.TaskStatusRejected:
		default:
			status = datamodel.TaskStatusInProgress
		}

		tasks = append(tasks, datamodel.Task{
			LeadName:    leadName,
			LeadPhone:   leadPhone,
			ProjectID:   datamodel.ID(projectID),
			Status:      status,
			DueDate:     cellDate(row, 7),
			Description: cell(row, 8),
		})
		result.Valid++
	}

	return tasks, result, nil
}
