package inbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	pkgconstants "github.com/k-code-yt/saga-choreography/pkg/constants"
	"github.com/k-code-yt/saga-choreography/pkg/db/postgres"
	pkgerrors "github.com/k-code-yt/saga-choreography/pkg/errors"
	pkgtypes "github.com/k-code-yt/saga-choreography/pkg/types"
)

type InboxEventRepo struct {
	tableName string
}

func NewInboxEventRepo() *InboxEventRepo {
	return &InboxEventRepo{
		tableName: pkgconstants.DBTableName_InboxEvents,
	}
}

func (r *InboxEventRepo) Get(ctx context.Context, tx *sqlx.Tx, saleID int64, eventType pkgtypes.EventType) (*Marker, bool, error) {
	query := fmt.Sprintf(`SELECT sale_id, event_type, outcome, created_at FROM %s WHERE sale_id = $1 AND event_type = $2`, r.tableName)
	m := &Marker{}
	err := tx.GetContext(ctx, m, query, saleID, eventType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (r *InboxEventRepo) Insert(ctx context.Context, tx *sqlx.Tx, m *Marker) error {
	query := fmt.Sprintf(`INSERT INTO %s (sale_id, event_type, outcome, created_at) VALUES ($1, $2, $3, $4)`, r.tableName)
	_, err := tx.ExecContext(ctx, query, m.SaleID, m.EventType, m.Outcome, m.CreatedAt)
	if err != nil {
		if postgres.IsDuplicateKeyErr(err) {
			return pkgerrors.NewDuplicateKeyError(err)
		}
		return err
	}
	return nil
}

// TxMarks binds the repo to one open transaction.
type TxMarks struct {
	Repo *InboxEventRepo
	Tx   *sqlx.Tx
}

func (m TxMarks) GetMarker(ctx context.Context, saleID int64, eventType pkgtypes.EventType) (*Marker, bool, error) {
	return m.Repo.Get(ctx, m.Tx, saleID, eventType)
}

func (m TxMarks) InsertMarker(ctx context.Context, marker *Marker) error {
	return m.Repo.Insert(ctx, m.Tx, marker)
}
