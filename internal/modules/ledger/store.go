// README: Ledger store backed by PostgreSQL. Entries are insert-only.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chauffeur/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Record inserts one ledger entry inside the caller's transaction so the entry
// commits or rolls back together with the order and driver writes.
func (s *Store) Record(ctx context.Context, tx pgx.Tx, e *Entry) error {
	if e.ID == "" {
		e.ID = types.ID(uuid.NewString())
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var driverID *string
	if e.DriverID != nil {
		v := string(*e.DriverID)
		driverID = &v
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (id, order_id, driver_id, type, amount, commission, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.ID), string(e.OrderID), driverID, string(e.Type),
		e.Amount, e.Commission, e.CreatedAt,
	)
	return err
}

// DriverBalance aggregates settled payments for a driver. Commission balance
// lives on the driver row; earnings are derived from the ledger.
func (s *Store) DriverBalance(ctx context.Context, driverID types.ID) (Balance, error) {
	var b Balance
	row := s.db.QueryRow(ctx, `
		SELECT d.commission_balance,
		       COALESCE(SUM(l.amount - l.commission), 0)
		FROM drivers d
		LEFT JOIN ledger_entries l ON l.driver_id = d.id AND l.type = 'payment'
		WHERE d.id = $1
		GROUP BY d.commission_balance`,
		string(driverID),
	)
	if err := row.Scan(&b.CommissionBalance, &b.TotalEarnings); err != nil {
		return Balance{}, err
	}
	return b, nil
}

// History lists a driver's entries, newest first.
func (s *Store) History(ctx context.Context, driverID types.ID, limit, offset int) ([]*Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, driver_id, type, amount, commission, created_at
		FROM ledger_entries
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(driverID), limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var driverID *string
		if err := rows.Scan(&e.ID, &e.OrderID, &driverID, &e.Type, &e.Amount, &e.Commission, &e.CreatedAt); err != nil {
			return nil, err
		}
		if driverID != nil {
			id := types.ID(*driverID)
			e.DriverID = &id
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
