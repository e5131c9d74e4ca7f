// README: Order store backed by PostgreSQL. Status writes are compare-and-set
// on (status, status_version) so concurrent transitions cannot both win.
package order

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

const orderColumns = `
	id, order_number, type, status, status_version, client_id, driver_id,
	car_class, pickup_datetime, pickup_address, pickup_lat, pickup_lng,
	dest_address, dest_lat, dest_lng, duration_hours,
	estimated_price, actual_price, commission, payment_type, bonus_payment,
	cancellation_reason, rating, rating_comment,
	start_lat, start_lng, eta,
	created_at, confirmed_at, started_at, completed_at, cancelled_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, q infra.Querier, o *Order) error {
	var dest *types.Address
	if o.DestAddress != nil {
		dest = o.DestAddress
	}
	var destAddr *string
	var destLat, destLng *float64
	if dest != nil {
		destAddr, destLat, destLng = &dest.Address, &dest.Lat, &dest.Lng
	}
	var driverID *string
	if o.DriverID != nil {
		v := string(*o.DriverID)
		driverID = &v
	}
	_, err := q.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, type, status, status_version, client_id, driver_id,
			car_class, pickup_datetime, pickup_address, pickup_lat, pickup_lng,
			dest_address, dest_lat, dest_lng, duration_hours,
			estimated_price, commission, payment_type, bonus_payment, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20, $21
		)`,
		string(o.ID), o.Number, string(o.Type), string(o.Status), o.StatusVersion,
		string(o.ClientID), driverID,
		string(o.CarClass), o.PickupAt, o.PickupAddress.Address, o.PickupAddress.Lat, o.PickupAddress.Lng,
		destAddr, destLat, destLng, o.DurationHours,
		o.EstimatedPrice, o.Commission, string(o.PaymentType), o.BonusPayment, o.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.get(ctx, s.db, id)
}

func (s *Store) get(ctx context.Context, q infra.Querier, id types.ID) (*Order, error) {
	row := q.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, string(id))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Newf(apperr.CodeNotFound, "order %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus is the single write path for status changes. It succeeds only
// when the row still carries the expected (from, version) pair, and stamps the
// per-transition timestamp in the same statement.
func (s *Store) UpdateStatus(ctx context.Context, q infra.Querier, id types.ID, from, to Status, version int, driverID *types.ID) (bool, error) {
	var d *string
	if driverID != nil {
		v := string(*driverID)
		d = &v
	}
	tag, err := q.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    status_version = status_version + 1,
		    driver_id = COALESCE($2, driver_id),
		    confirmed_at = CASE WHEN $1 = 'confirmed' THEN NOW() ELSE confirmed_at END,
		    started_at   = CASE WHEN $1 = 'started'   THEN NOW() ELSE started_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    updated_at = NOW()
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to), d, string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetEnRouteSnapshot stores the driver's departure location and the ETA
// captured at the EN_ROUTE transition.
func (s *Store) SetEnRouteSnapshot(ctx context.Context, tx pgx.Tx, id types.ID, loc *types.Point, eta time.Time) error {
	var lat, lng *float64
	if loc != nil {
		lat, lng = &loc.Lat, &loc.Lng
	}
	_, err := tx.Exec(ctx, `
		UPDATE orders SET start_lat = $1, start_lng = $2, eta = $3, updated_at = NOW()
		WHERE id = $4`,
		lat, lng, eta, string(id),
	)
	return err
}

// SetCompletion records the settled price and optional rating.
func (s *Store) SetCompletion(ctx context.Context, tx pgx.Tx, id types.ID, actualPrice int64, rating *float64, comment *string) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders SET actual_price = $1, rating = $2, rating_comment = $3, updated_at = NOW()
		WHERE id = $4`,
		actualPrice, rating, comment, string(id),
	)
	return err
}

func (s *Store) SetCancellationReason(ctx context.Context, tx pgx.Tx, id types.ID, reason string) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders SET cancellation_reason = $1, updated_at = NOW() WHERE id = $2`,
		reason, string(id),
	)
	return err
}

func (s *Store) AppendEvent(ctx context.Context, q infra.Querier, e *Event) error {
	_, err := q.Exec(ctx, `
		INSERT INTO order_status_events (order_id, from_status, to_status, actor_type, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.OrderID), string(e.From), string(e.To), e.ActorType, idPtr(e.ActorID), e.CreatedAt,
	)
	return err
}

func (s *Store) Events(ctx context.Context, orderID types.ID) ([]*Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, from_status, to_status, actor_type, actor_id, created_at
		FROM order_status_events
		WHERE order_id = $1
		ORDER BY id`,
		string(orderID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		var actorID *string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.From, &e.To, &e.ActorType, &actorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actorID != nil {
			id := types.ID(*actorID)
			e.ActorID = &id
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *Store) HasActiveByClient(ctx context.Context, clientID types.ID) (bool, error) {
	open := append([]Status{StatusCreated}, ActiveStatuses...)
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE client_id = $1 AND status = ANY($2)
		)`, string(clientID), statusStrings(open),
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) ListByClient(ctx context.Context, clientID types.ID, limit, offset int) ([]*Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+orderColumns+` FROM orders
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(clientID), limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var driverID, destAddr, reason, comment *string
	var destLat, destLng, startLat, startLng, rating *float64
	err := row.Scan(
		&o.ID, &o.Number, &o.Type, &o.Status, &o.StatusVersion, &o.ClientID, &driverID,
		&o.CarClass, &o.PickupAt, &o.PickupAddress.Address, &o.PickupAddress.Lat, &o.PickupAddress.Lng,
		&destAddr, &destLat, &destLng, &o.DurationHours,
		&o.EstimatedPrice, &o.ActualPrice, &o.Commission, &o.PaymentType, &o.BonusPayment,
		&reason, &rating, &comment,
		&startLat, &startLng, &o.ETA,
		&o.CreatedAt, &o.ConfirmedAt, &o.StartedAt, &o.CompletedAt, &o.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	if driverID != nil {
		id := types.ID(*driverID)
		o.DriverID = &id
	}
	if destAddr != nil {
		o.DestAddress = &types.Address{Address: *destAddr}
		if destLat != nil {
			o.DestAddress.Lat = *destLat
		}
		if destLng != nil {
			o.DestAddress.Lng = *destLng
		}
	}
	o.CancellationReason = reason
	o.Rating = rating
	o.RatingComment = comment
	if startLat != nil && startLng != nil {
		o.StartLocation = &types.Point{Lat: *startLat, Lng: *startLng}
	}
	return &o, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
