package pkgtypes

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

type SaleStatus string

const (
	SaleStatus_Pending   SaleStatus = "PENDING"
	SaleStatus_Finalized SaleStatus = "FINALIZED"
	SaleStatus_Canceled  SaleStatus = "CANCELED"
)

var saleStatusIDs = map[SaleStatus]int{
	SaleStatus_Pending:   1,
	SaleStatus_Finalized: 2,
	SaleStatus_Canceled:  3,
}

// ID is the numeric form stored in the sales table.
func (s SaleStatus) ID() int {
	return saleStatusIDs[s]
}

func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatus_Finalized || s == SaleStatus_Canceled
}

func SaleStatusFromID(id int) (SaleStatus, error) {
	for status, statusID := range saleStatusIDs {
		if statusID == id {
			return status, nil
		}
	}
	return "", fmt.Errorf("the id %d is not a valid sale status", id)
}

// Sale is the snapshot carried by every envelope.
type Sale struct {
	ID        int64           `json:"id"`
	ProductID int             `json:"productId"`
	UserID    int             `json:"userId"`
	Value     decimal.Decimal `json:"value"`
	Status    SaleStatus      `json:"saleStatus"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Envelope struct {
	Sale      Sale      `json:"sale"`
	SaleEvent EventType `json:"saleEvent"`
}

func NewEnvelope(sale Sale, event EventType) *Envelope {
	return &Envelope{
		Sale:      sale,
		SaleEvent: event,
	}
}

// Key is the partition key; all events of one sale share it.
func (e *Envelope) Key() []byte {
	return []byte(e.SaleID())
}

func (e *Envelope) SaleID() string {
	return strconv.FormatInt(e.Sale.ID, 10)
}
