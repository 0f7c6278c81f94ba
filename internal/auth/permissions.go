package auth

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

const (
	PermManageUsers           = "manage_users"
	PermManageMasterData      = "manage_master_data"
	PermManageTransactions    = "manage_transactions"
	PermManageReimbursements  = "manage_reimbursements"
	PermSubmitReimbursements  = "submit_reimbursements"
	PermApproveReimbursements = "approve_reimbursements"
	PermRunReconciliation     = "run_reconciliation"
	PermViewReports           = "view_reports"
	PermManageSystem          = "manage_system"
)

var AllPermissions = []string{
	PermManageUsers,
	PermManageMasterData,
	PermManageTransactions,
	PermManageReimbursements,
	PermSubmitReimbursements,
	PermApproveReimbursements,
	PermRunReconciliation,
	PermViewReports,
	PermManageSystem,
}

var rolePermissions = map[string][]string{
	RoleAdmin:    AllPermissions,
	RoleEmployee: {PermSubmitReimbursements},
}

func IsValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsForRole returns a copy of the permissions granted to role. Unknown roles get none.
func PermissionsForRole(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
