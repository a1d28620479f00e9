package scope

import (
	"strings"

	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
	"github.com/ardiansyahn/crm-backoffice/internal/session"
)

// ManagerPolicy decides which record owners a manager may see in full.
// The backend already scopes manager responses to their team, so the
// default policy trusts what came back; deployments with broader
// endpoints can narrow it.
type ManagerPolicy func(ownerID datamodel.ID) bool

// TeamOf builds a policy that admits records owned by the given users.
func TeamOf(memberIDs ...datamodel.ID) ManagerPolicy {
	return func(ownerID datamodel.ID) bool {
		for _, id := range memberIDs {
			if id.Equal(ownerID) {
				return true
			}
		}
		return false
	}
}

// AllOwners admits every record the backend returned.
func AllOwners(datamodel.ID) bool { return true }

// MaskPhone hides everything but the last four digits. Values shorter
// than four characters, the empty string included, collapse to the fixed
// placeholder so nothing useful leaks.
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// MaskEmail keeps the first two characters of the local part and the
// full domain.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return email
	}
	local := email[:at]
	if len(local) <= 2 {
		return local + "***" + email[at:]
	}
	return local[:2] + "***" + email[at:]
}

// CanViewCustomerPhone reports whether the viewer sees the customer's
// raw phone number. Admins and employees always do, managers only for
// customers they created themselves.
func CanViewCustomerPhone(viewer session.Session, createdBy datamodel.ID) bool {
	switch viewer.Role {
	case datamodel.RoleAdmin, datamodel.RoleEmployee:
		return true
	case datamodel.RoleManager:
		return viewer.UserID.Equal(createdBy)
	default:
		return false
	}
}
