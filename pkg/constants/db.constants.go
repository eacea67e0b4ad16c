package pkgconstants

const (
	DBNameSale      = "saga_sale"
	DBNameInventory = "saga_inventory"
	DBNamePayment   = "saga_payment"

	DBTableName_Sales        = "sales"
	DBTableName_Inventory    = "inventory"
	DBTableName_Reservations = "inventory_reservations"
	DBTableName_Users        = "users"
	DBTableName_Payments     = "payments"
	DBTableName_InboxEvents  = "event_inbox"
)
