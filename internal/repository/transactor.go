package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"gitlab.com/subshare/subshare/internal/database"
	"gitlab.com/subshare/subshare/internal/lifecycle"
)

// NewStores binds every record family to db.
func NewStores(db database.PGXDB) lifecycle.Stores {
	return lifecycle.Stores{
		Listings: NewListingRepository(db),
		Pending:  NewPendingRepository(db),
		Expired:  NewExpiredRepository(db),
		Support:  NewSupportRepository(db),
	}
}

// Transactor runs lifecycle steps inside one database transaction.
type Transactor struct {
	db database.TxBeginner
}

// NewTransactor creates a Transactor. db may be a pool or an open transaction,
// in which case steps run in a savepoint.
func NewTransactor(db database.TxBeginner) *Transactor {
	return &Transactor{db: db}
}

var _ lifecycle.Transactor = (*Transactor)(nil)

// InTx runs fn with stores bound to a new transaction.
func (t *Transactor) InTx(ctx context.Context, fn func(s lifecycle.Stores) error) error {
	return database.RunInTx(ctx, t.db, func(tx pgx.Tx) error {
		return fn(NewStores(tx))
	})
}
