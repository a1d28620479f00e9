package scope

import (
	"time"

	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
	"github.com/ardiansyahn/crm-backoffice/internal/session"
)

// The view functions are pure: they never mutate the input slices, and
// applying one to its own output yields the same result, so a caller may
// re-filter cached results without double-masking.

// VisibleLeads filters and masks leads for the viewer. Admins see
// everything raw. Managers see the records the policy admits, with
// phone numbers masked. Employees see only leads they created or are
// assigned to, unmasked.
func VisibleLeads(viewer session.Session, leads []datamodel.Lead, policy ManagerPolicy) []datamodel.Lead {
	switch viewer.Role {
	case datamodel.RoleAdmin:
		return append([]datamodel.Lead(nil), leads...)
	case datamodel.RoleManager:
		if policy == nil {
			policy = AllOwners
		}
		out := make([]datamodel.Lead, 0, len(leads))
		for _, lead := range leads {
			if !policy(lead.CreatedBy) && !policy(lead.AssignedTo) {
				continue
			}
			lead.Phone = MaskPhone(lead.Phone)
			out = append(out, lead)
		}
		return out
	case datamodel.RoleEmployee:
		out := make([]datamodel.Lead, 0, len(leads))
		for _, lead := range leads {
			if viewer.UserID.Equal(lead.CreatedBy) || viewer.UserID.Equal(lead.AssignedTo) {
				out = append(out, lead)
			}
		}
		return out
	default:
		return []datamodel.Lead{}
	}
}

// VisibleTasks filters and masks tasks the same way leads are handled;
// the sensitive field here is the embedded lead phone.
func VisibleTasks(viewer session.Session, tasks []datamodel.Task, policy ManagerPolicy) []datamodel.Task {
	switch viewer.Role {
	case datamodel.RoleAdmin:
		return append([]datamodel.Task(nil), tasks...)
	case datamodel.RoleManager:
		if policy == nil {
			policy = AllOwners
		}
		out := make([]datamodel.Task, 0, len(tasks))
		for _, task := range tasks {
			if !policy(task.AssignedTo) {
				continue
			}
			task.LeadPhone = MaskPhone(task.LeadPhone)
			out = append(out, task)
		}
		return out
	case datamodel.RoleEmployee:
		out := make([]datamodel.Task, 0, len(tasks))
		for _, task := range tasks {
			if viewer.UserID.Equal(task.AssignedTo) {
				out = append(out, task)
			}
		}
		return out
	default:
		return []datamodel.Task{}
	}
}

// VisibleCustomers filters and masks customers. Managers keep raw
// phones only on customers they created; employees always see theirs
// raw.
func VisibleCustomers(viewer session.Session, customers []datamodel.Customer, policy ManagerPolicy) []datamodel.Customer {
	switch viewer.Role {
	case datamodel.RoleAdmin:
		return append([]datamodel.Customer(nil), customers...)
	case datamodel.RoleManager:
		if policy == nil {
			policy = AllOwners
		}
		out := make([]datamodel.Customer, 0, len(customers))
		for _, customer := range customers {
			if !policy(customer.CreatedBy) && !policy(customer.AssignedTo) {
				continue
			}
			if !CanViewCustomerPhone(viewer, customer.CreatedBy) {
				customer.Phone = MaskPhone(customer.Phone)
			}
			out = append(out, customer)
		}
		return out
	case datamodel.RoleEmployee:
		out := make([]datamodel.Customer, 0, len(customers))
		for _, customer := range customers {
			if viewer.UserID.Equal(customer.CreatedBy) || viewer.UserID.Equal(customer.AssignedTo) {
				out = append(out, customer)
			}
		}
		return out
	default:
		return []datamodel.Customer{}
	}
}

// VisibleAnnouncements keeps announcements targeted at the viewer's role
// that are active and unexpired.
func VisibleAnnouncements(viewer session.Session, announcements []datamodel.Announcement, now time.Time) []datamodel.Announcement {
	out := make([]datamodel.Announcement, 0, len(announcements))
	for _, a := range announcements {
		if a.VisibleTo(viewer.Role, now) {
			out = append(out, a)
		}
	}
	return out
}
