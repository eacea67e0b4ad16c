package pkgconstants

import pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"

const (
	EventType_CreatedSale       pkgtypes.EventType = "CREATED_SALE"
	EventType_UpdatedInventory  pkgtypes.EventType = "UPDATED_INVENTORY"
	EventType_ValidatedPayment  pkgtypes.EventType = "VALIDATED_PAYMENT"
	EventType_FailedPayment     pkgtypes.EventType = "FAILED_PAYMENT"
	EventType_RollbackInventory pkgtypes.EventType = "ROLLBACK_INVENTORY"
)

var KnownEventTypes = []pkgtypes.EventType{
	EventType_CreatedSale,
	EventType_UpdatedInventory,
	EventType_ValidatedPayment,
	EventType_FailedPayment,
	EventType_RollbackInventory,
}

func IsKnownEventType(e pkgtypes.EventType) bool {
	for _, known := range KnownEventTypes {
		if known == e {
			return true
		}
	}
	return false
}
