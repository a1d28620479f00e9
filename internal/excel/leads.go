package excel

import (
	"io"

	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
)

// leadColumns is the positional layout shared by template, export and
// import. Import addresses cells by index, never by header text.
var leadColumns = []string{
	"Name *",
	"Phone *",
	"Email",
	"Address",
	"Requirement Type (villa/apartment/house/plot)",
	"BHK (1/2/3/4/5+)",
	"Budget Min",
	"Budget Max",
	"Preferred Location",
	"Source (call/walk_in/website/referral)",
	"Status (new/contacted/qualified/converted/lost)",
	"Follow-up Date (YYYY-MM-DD)",
	"Description",
}

var leadSampleRows = [][]interface{}{
	{"John Doe", "9876543210", "john@example.com", "123 Main St", "apartment", "3", "5000000", "8000000", "Downtown", "website", "new", "", "Looking for 3BHK apartment"},
	{"Jane Smith", "9123456789", "jane@example.com", "456 Oak Ave", "villa", "4", "10000000", "15000000", "Suburbs", "referral", "contacted", "2024-02-15", "Family looking for villa"},
}

// WriteLeadTemplate writes an import template with the header and two
// sample rows.
func WriteLeadTemplate(w io.Writer) error {
	rows := make([][]interface{}, 0, 1+len(leadSampleRows))
	header := make([]interface{}, len(leadColumns))
	for i, c := range leadColumns {
		header[i] = c
	}
	rows = append(rows, header)
	rows = append(rows, leadSampleRows...)

	widths := make([]float64, len(leadColumns))
	for i := range widths {
		widths[i] = 25
	}
	return writeSheet(w, "Leads Template", rows, widths)
}

// ExportLeads writes one row per lead in the template's column order so
// an export can be re-imported unchanged.
func ExportLeads(w io.Writer, leads []datamodel.Lead) error {
	rows := make([][]interface{}, 0, 1+len(leads))
	header := make([]interface{}, len(leadColumns))
	for i, c := range leadColumns {
		header[i] = c
	}
	rows = append(rows, header)

	for _, lead := range leads {
		rows = append(rows, []interface{}{
			lead.Name,
			lead.Phone,
			lead.Email,
			lead.Address,
			string(lead.RequirementType),
			lead.BHKRequirement,
			lead.BudgetMin,
			lead.BudgetMax,
			lead.PreferredLocation,
			string(lead.Source),
			string(lead.Status),
			formatDate(lead.FollowUpDate),
			lead.Description,
		})
	}

	widths := []float64{20, 15, 25, 30, 15, 8, 12, 12, 20, 12, 12, 14, 40}
	return writeSheet(w, "Leads", rows, widths)
}

// ImportLeads parses a lead workbook. Name and Phone are required; rows
// without them are counted as invalid and skipped. Optional columns fall
// back to the same defaults the backend applies.
func ImportLeads(r io.Reader) ([]datamodel.Lead, ImportResult, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, ImportResult{}, err
	}

	var result ImportResult
	leads := make([]datamodel.Lead, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		name := cell(row, 0)
		phone := cell(row, 1)
		if name == "" || phone == "" {
			result.Invalid++
			continue
		}

		requirement := datamodel.RequirementType(normalizeChoice(cell(row, 4)))
		switch requirement {
		case datamodel.RequirementVilla, datamodel.RequirementApartment, datamodel.RequirementHouse, datamodel.RequirementPlot:
		default:
			requirement = datamodel.RequirementApartment
		}

		bhk := cell(row, 5)
		switch bhk {
		case "1", "2", "3", "4", "5+":
		default:
			bhk = "2"
		}

		source := datamodel.LeadSource(normalizeChoice(cell(row, 9)))
		switch source {
		case datamodel.LeadSourceCall, datamodel.LeadSourceWalkIn, datamodel.LeadSourceWebsite, datamodel.LeadSourceReferral:
		default:
			source = datamodel.LeadSourceWebsite
		}

		status := datamodel.LeadStatus(normalizeChoice(cell(row, 10)))
		switch status {
		case datamodel.LeadStatusNew, datamodel.LeadStatusContacted, datamodel.LeadStatusQualified, datamodel.LeadStatusConverted, datamodel.LeadStatusLost:
		default:
			status = datamodel.LeadStatusNew
		}

		leads = append(leads, datamodel.Lead{
			Name:              name,
			Phone:             phone,
			Email:             cell(row, 2),
			Address:           cell(row, 3),
			RequirementType:   requirement,
			BHKRequirement:    bhk,
			BudgetMin:         cellInt64(row, 6),
			BudgetMax:         cellInt64(row, 7),
			PreferredLocation: cell(row, 8),
			Source:            source,
			Status:            status,
			FollowUpDate:      cellDate(row, 11),
			Description:       cell(row, 12),
		})
		result.Valid++
	}

	return leads, result, nil
}
