package pkgconstants

type Participant string

const (
	Participant_Sale      Participant = "sale"
	Participant_Inventory Participant = "inventory"
	Participant_Payment   Participant = "payment"
)

const (
	DefaultTopic = "sales"

	ConsumerGroup_Sale      = "sale-service"
	ConsumerGroup_Inventory = "inventory-service"
	ConsumerGroup_Payment   = "payment-service"
)

func ConsumerGroup(p Participant) string {
	switch p {
	case Participant_Sale:
		return ConsumerGroup_Sale
	case Participant_Inventory:
		return ConsumerGroup_Inventory
	case Participant_Payment:
		return ConsumerGroup_Payment
	}
	return string(p) + "-service"
}
