// README: Driver directory backed by PostgreSQL.
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chauffeur/internal/apperr"
	"chauffeur/internal/infra"
	"chauffeur/internal/types"
)

// activeOrderStatuses mirrors the order state machine: any order in one of
// these statuses occupies its driver.
const activeOrderStatuses = `('driver_assigned','confirmed','en_route','arrived','started')`

const driverColumns = `
	id, user_id, car_class, status, rating, total_rides, commission_balance,
	car_model, car_plate, car_year, car_color, created_at, updated_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, d *Driver) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (
			id, user_id, car_class, status, rating, total_rides, commission_balance,
			car_model, car_plate, car_year, car_color, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		string(d.ID), string(d.UserID), string(d.CarClass), string(d.Status),
		d.Rating, d.TotalRides, d.CommissionBalance,
		d.Car.Model, d.Car.Plate, d.Car.Year, d.Car.Color, d.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Driver, error) {
	return s.get(ctx, s.db, id, "")
}

// GetForUpdate locks the driver row for the lifetime of tx. Every transition
// that mutates both an order and its driver goes through this lock, which is
// the serialization point for the one-active-order invariant.
func (s *Store) GetForUpdate(ctx context.Context, tx pgx.Tx, id types.ID) (*Driver, error) {
	return s.get(ctx, tx, id, " FOR UPDATE")
}

func (s *Store) get(ctx context.Context, q infra.Querier, id types.ID, suffix string) (*Driver, error) {
	row := q.QueryRow(ctx, `SELECT`+driverColumns+` FROM drivers WHERE id = $1`+suffix, string(id))
	d, err := scanDriver(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Newf(apperr.CodeNotFound, "driver %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// FindAvailable returns ONLINE drivers of the given class that are not tied to
// an active order for the same pickup slot. The stored status field alone is
// not trusted; drivers referenced by an active order are excluded regardless.
func (s *Store) FindAvailable(ctx context.Context, carClass types.CarClass, pickupAt time.Time) ([]*Driver, error) {
	busyIDs, err := s.busyDriverIDs(ctx, pickupAt)
	if err != nil {
		return nil, err
	}

	query := `SELECT` + driverColumns + ` FROM drivers WHERE car_class = $1 AND status = $2`
	args := []any{string(carClass), string(StatusOnline)}
	if len(busyIDs) > 0 {
		query += ` AND NOT (id = ANY($3))`
		args = append(args, busyIDs)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) busyDriverIDs(ctx context.Context, pickupAt time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT driver_id FROM orders
		WHERE driver_id IS NOT NULL
		  AND pickup_datetime = $1
		  AND status IN `+activeOrderStatuses,
		pickupAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasActiveOrder reports whether the driver is referenced by any active order.
// Runs against q so it can participate in a reservation transaction.
func (s *Store) HasActiveOrder(ctx context.Context, q infra.Querier, driverID types.ID) (bool, error) {
	row := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE driver_id = $1 AND status IN `+activeOrderStatuses+`
		)`, string(driverID),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// SetStatus performs a compare-and-set on the driver status. Returns false
// when the driver was no longer in the expected state.
func (s *Store) SetStatus(ctx context.Context, q infra.Querier, id types.ID, from, to Status) (bool, error) {
	tag, err := q.Exec(ctx, `
		UPDATE drivers SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		string(to), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Complete settles a driver after a finished ride: back to ONLINE, one more
// ride, commission accrued to the balance.
func (s *Store) Complete(ctx context.Context, tx pgx.Tx, id types.ID, commission int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE drivers
		SET status = $1, total_rides = total_rides + 1,
		    commission_balance = commission_balance + $2, updated_at = NOW()
		WHERE id = $3 AND status = $4`,
		string(StatusOnline), commission, string(id), string(StatusBusy),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return apperr.Newf(apperr.CodePersistenceFailure, "driver %s not busy at completion", id)
	}
	return nil
}

func (s *Store) UpdateRating(ctx context.Context, tx pgx.Tx, id types.ID, rating float64) error {
	_, err := tx.Exec(ctx, `
		UPDATE drivers SET rating = $1, updated_at = NOW() WHERE id = $2`,
		rating, string(id),
	)
	return err
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	err := row.Scan(
		&d.ID, &d.UserID, &d.CarClass, &d.Status, &d.Rating, &d.TotalRides,
		&d.CommissionBalance, &d.Car.Model, &d.Car.Plate, &d.Car.Year, &d.Car.Color,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
