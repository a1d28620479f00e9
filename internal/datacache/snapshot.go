package datacache

import (
	"time"

	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
)

// Snapshot is the complete set of synced collections at one point in
// time. It is replaced wholesale on a successful refresh and never
// merged partially, so readers either see the previous sync or the new
// one, never a mix.
type Snapshot struct {
	Leads         []datamodel.Lead
	Tasks         []datamodel.Task
	Projects      []datamodel.Project
	Announcements []datamodel.Announcement
	Leaves        []datamodel.Leave
	Holidays      []datamodel.Holiday
	Customers     []datamodel.Customer
	LastUpdated   time.Time
}

// Counts returns collection sizes keyed by collection name, for sync
// summaries.
func (s Snapshot) Counts() map[string]int {
	return map[string]int{
		"leads":         len(s.Leads),
		"tasks":         len(s.Tasks),
		"projects":      len(s.Projects),
		"announcements": len(s.Announcements),
		"leaves":        len(s.Leaves),
		"holidays":      len(s.Holidays),
		"customers":     len(s.Customers),
	}
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Leads = append([]datamodel.Lead(nil), s.Leads...)
	out.Tasks = append([]datamodel.Task(nil), s.Tasks...)
	out.Projects = append([]datamodel.Project(nil), s.Projects...)
	out.Announcements = append([]datamodel.Announcement(nil), s.Announcements...)
	out.Leaves = append([]datamodel.Leave(nil), s.Leaves...)
	out.Holidays = append([]datamodel.Holiday(nil), s.Holidays...)
	out.Customers = append([]datamodel.Customer(nil), s.Customers...)
	return out
}
