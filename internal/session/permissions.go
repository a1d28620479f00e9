package session

import "github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"

type Module string

const (
	ModuleLeads     Module = "leads"
	ModuleTasks     Module = "tasks"
	ModuleProjects  Module = "projects"
	ModuleLeaves    Module = "leaves"
	ModuleReports   Module = "reports"
	ModuleUsers     Module = "users"
	ModuleCustomers Module = "customers"
)

type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
)

// rolePermissions is the static grant table. Admin is handled before the
// lookup and never appears here.
var rolePermissions = map[datamodel.Role]map[Module][]Action{
	datamodel.RoleManager: {
		ModuleLeads:     {ActionView, ActionCreate, ActionEdit},
		ModuleTasks:     {ActionView, ActionCreate, ActionEdit},
		ModuleProjects:  {ActionView},
		ModuleLeaves:    {ActionView, ActionApprove},
		ModuleReports:   {ActionView},
		ModuleCustomers: {ActionView},
	},
	datamodel.RoleEmployee: {
		ModuleLeads:     {ActionView, ActionCreate, ActionEdit},
		ModuleTasks:     {ActionView, ActionCreate, ActionEdit},
		ModuleProjects:  {ActionView},
		ModuleLeaves:    {ActionView, ActionCreate},
		ModuleCustomers: {ActionView, ActionCreate, ActionEdit},
	},
}

// HasPermission consults the static table. Admin passes every check,
// an unknown role passes none.
func HasPermission(role datamodel.Role, module Module, action Action) bool {
	if role == datamodel.RoleAdmin {
		return true
	}

	grants, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, granted := range grants[module] {
		if granted == action {
			return true
		}
	}
	return false
}
