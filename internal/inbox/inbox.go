package inbox

import (
	"context"
	"time"

	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
)

// Marker records that (SaleID, EventType) was handled and which event it produced.
// Outcome is empty when handling emits nothing.
type Marker struct {
	SaleID    int64              `db:"sale_id"`
	EventType pkgtypes.EventType `db:"event_type"`
	Outcome   pkgtypes.EventType `db:"outcome"`
	CreatedAt time.Time          `db:"created_at"`
}

// Marks is the inbox view of a participant's open transaction.
type Marks interface {
	GetMarker(ctx context.Context, saleID int64, eventType pkgtypes.EventType) (*Marker, bool, error)
	InsertMarker(ctx context.Context, m *Marker) error
}

type Result struct {
	Outcome   pkgtypes.EventType
	Duplicate bool
}

// Guard runs mutate at most once per (saleID, eventType). It must be called inside the
// transaction that holds the mutation, so the marker and the mutation commit together.
// A redelivery returns the outcome recorded the first time without calling mutate.
func Guard(ctx context.Context, marks Marks, saleID int64, eventType pkgtypes.EventType, mutate func() (pkgtypes.EventType, error)) (Result, error) {
	existing, found, err := marks.GetMarker(ctx, saleID, eventType)
	if err != nil {
		return Result{}, err
	}
	if found {
		return Result{Outcome: existing.Outcome, Duplicate: true}, nil
	}

	outcome, err := mutate()
	if err != nil {
		return Result{}, err
	}

	err = marks.InsertMarker(ctx, &Marker{
		SaleID:    saleID,
		EventType: eventType,
		Outcome:   outcome,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: outcome}, nil
}

// Retry reruns tx once when a concurrent handler committed the same marker first;
// the second run sees the marker and takes the duplicate path.
func Retry(ctx context.Context, tx func(ctx context.Context) (Result, error)) (Result, error) {
	res, err := tx(ctx)
	if err != nil && pkgerrors.IsDuplicateKeyError(err) {
		return tx(ctx)
	}
	return res, err
}
