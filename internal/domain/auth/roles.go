package auth

import appctx "retailops/internal/core/context"

// Role groups allowed to call each family of operations. super_admin passes
// every check.
var (
	SalesRoles = []string{appctx.RoleAdmin, appctx.RoleManager, appctx.RoleCashier}

	PurchasingRoles = []string{appctx.RoleAdmin, appctx.RoleManager, appctx.RoleInventory}

	InventoryRoles = []string{appctx.RoleAdmin, appctx.RoleManager, appctx.RoleInventory}

	// ReadRoles may query history and stock.
	ReadRoles = []string{
		appctx.RoleAdmin, appctx.RoleManager, appctx.RoleCashier,
		appctx.RoleInventory, appctx.RoleAuditor,
	}
)
