// Package permissions manages the platform permission catalog. Keys follow
// the RESOURCE:ACTION format; GLOBAL entries are granted directly to users
// while COMPANY entries flow through company roles.
package permissions

import "github.com/workdeck/backend/internal/models"

// Well-known catalog keys referenced in code.
const (
	KeyCompanyCreate             = "COMPANY:CREATE"
	KeyPlatformManageUsers       = "PLATFORM:MANAGE_USERS"
	KeyPlatformManagePermissions = "PLATFORM:MANAGE_PERMISSIONS"
)

// CatalogEntry is one seedable permission definition.
type CatalogEntry struct {
	Key         string
	Description string
	Scope       models.PermissionScope
}

// BaseCatalog is the set of permissions every deployment starts with. Seeding
// upserts by key, so redeploys pick up description and scope changes.
var BaseCatalog = []CatalogEntry{
	{KeyPlatformManageUsers, "Manage all platform users", models.ScopeGlobal},
	{KeyPlatformManagePermissions, "Manage platform permissions catalog", models.ScopeGlobal},
	{"PLATFORM:VIEW_ANALYTICS", "View platform-wide analytics", models.ScopeGlobal},
	{"PLATFORM:MANAGE_SETTINGS", "Manage platform settings", models.ScopeGlobal},

	{KeyCompanyCreate, "Create companies", models.ScopeGlobal},
	{"COMPANY:EDIT_SETTINGS", "Edit company settings", models.ScopeCompany},
	{"COMPANY:DELETE", "Delete the company", models.ScopeCompany},
	{"COMPANY:VIEW_DETAILS", "View company details", models.ScopeCompany},
	{"COMPANY:VIEW_ANALYTICS", "View company analytics", models.ScopeCompany},
	{"COMPANY:EXPORT_DATA", "Export company data", models.ScopeCompany},

	{"MEMBER:INVITE", "Invite members", models.ScopeCompany},
	{"MEMBER:REMOVE", "Remove members", models.ScopeCompany},
	{"MEMBER:EDIT_ROLE", "Edit member roles", models.ScopeCompany},
	{"MEMBER:VIEW_LIST", "View member list", models.ScopeCompany},
	{"MEMBER:VIEW_DETAILS", "View member details", models.ScopeCompany},

	{"ROLE:CREATE", "Create roles", models.ScopeCompany},
	{"ROLE:EDIT", "Edit roles", models.ScopeCompany},
	{"ROLE:DELETE", "Delete roles", models.ScopeCompany},
	{"ROLE:VIEW", "View roles", models.ScopeCompany},
	{"ROLE:ASSIGN_PERMISSIONS", "Assign permissions to roles", models.ScopeCompany},

	{"INVOICE:CREATE", "Create invoices", models.ScopeCompany},
	{"INVOICE:EDIT", "Edit invoices", models.ScopeCompany},
	{"INVOICE:DELETE", "Delete invoices", models.ScopeCompany},
	{"INVOICE:VIEW", "View invoices", models.ScopeCompany},
	{"INVOICE:APPROVE", "Approve invoices", models.ScopeCompany},
	{"INVOICE:EXPORT", "Export invoice data", models.ScopeCompany},

	{"REPORT:CREATE", "Create reports", models.ScopeCompany},
	{"REPORT:EDIT", "Edit reports", models.ScopeCompany},
	{"REPORT:DELETE", "Delete reports", models.ScopeCompany},
	{"REPORT:VIEW", "View reports", models.ScopeCompany},
	{"REPORT:EXPORT", "Export reports", models.ScopeCompany},
	{"REPORT:SCHEDULE", "Schedule automated reports", models.ScopeCompany},

	{"TIME:TRACK", "Track time entries", models.ScopeCompany},
	{"TIME:EDIT_OWN", "Edit own time entries", models.ScopeCompany},
	{"TIME:EDIT_ALL", "Edit all time entries", models.ScopeCompany},
	{"TIME:APPROVE", "Approve time entries", models.ScopeCompany},
	{"TIME:VIEW_REPORTS", "View time tracking reports", models.ScopeCompany},
	{"TIME:EXPORT", "Export time tracking data", models.ScopeCompany},
}
