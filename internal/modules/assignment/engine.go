// README: Scoring-based driver assignment. Candidate selection runs outside
// the reservation transaction, so the chosen driver is re-verified under a row
// lock before the order is bound.
package assignment

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chauffeur/internal/apperr"
	"chauffeur/internal/infra"
	"chauffeur/internal/logging"
	"chauffeur/internal/modules/driver"
	"chauffeur/internal/modules/order"
	"chauffeur/internal/notify"
	"chauffeur/internal/types"
)

type Engine struct {
	pool    *pgxpool.Pool
	orders  *order.Store
	cache   *order.Cache
	drivers *driver.Store
	notify  *notify.Queue
	log     logging.Logger
}

func NewEngine(
	pool *pgxpool.Pool,
	orders *order.Store,
	cache *order.Cache,
	drivers *driver.Store,
	queue *notify.Queue,
	log logging.Logger,
) *Engine {
	return &Engine{
		pool:    pool,
		orders:  orders,
		cache:   cache,
		drivers: drivers,
		notify:  queue,
		log:     log,
	}
}

type Result struct {
	Order  *order.Order
	Driver *driver.Driver
}

// Assign picks the best available driver for the order and reserves it. The
// reservation re-checks availability inside the transaction: the candidate
// query is racy by construction and the lock here is the serialization point.
func (e *Engine) Assign(ctx context.Context, orderID types.ID) (*Result, error) {
	o, err := e.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusCreated {
		return nil, apperr.Newf(apperr.CodeInvalidStatusTransition,
			"order is %s, not awaiting assignment", o.Status)
	}

	candidates, err := e.drivers.FindAvailable(ctx, o.CarClass, o.PickupAt)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePersistenceFailure, "query available drivers", err)
	}
	if len(candidates) == 0 {
		return nil, apperr.New(apperr.CodeResourceUnavailable, "no available drivers")
	}

	// Ties keep the query order; the score already encodes the ranking that
	// matters.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score() > candidates[j].Score()
	})
	best := candidates[0]

	var reserved *driver.Driver
	err = infra.WithTx(ctx, e.pool, func(tx pgx.Tx) error {
		d, err := e.drivers.GetForUpdate(ctx, tx, best.ID)
		if err != nil {
			return err
		}
		if d.Status != driver.StatusOnline {
			return apperr.Newf(apperr.CodeResourceUnavailable, "driver %s became unavailable", d.ID)
		}
		busy, err := e.drivers.HasActiveOrder(ctx, tx, d.ID)
		if err != nil {
			return apperr.Wrap(apperr.CodePersistenceFailure, "recheck driver availability", err)
		}
		if busy {
			return apperr.Newf(apperr.CodeResourceUnavailable, "driver %s became unavailable", d.ID)
		}

		ok, err := e.drivers.SetStatus(ctx, tx, d.ID, driver.StatusOnline, driver.StatusBusy)
		if err != nil {
			return apperr.Wrap(apperr.CodePersistenceFailure, "reserve driver", err)
		}
		if !ok {
			return apperr.Newf(apperr.CodeResourceUnavailable, "driver %s became unavailable", d.ID)
		}

		ok, err = e.orders.UpdateStatus(ctx, tx, o.ID, order.StatusCreated, order.StatusDriverAssigned, o.StatusVersion, &d.ID)
		if err != nil {
			return apperr.Wrap(apperr.CodePersistenceFailure, "bind driver to order", err)
		}
		if !ok {
			return apperr.New(apperr.CodeInvalidStatusTransition, "order left CREATED during assignment")
		}

		if err := e.orders.AppendEvent(ctx, tx, &order.Event{
			OrderID:   o.ID,
			From:      order.StatusCreated,
			To:        order.StatusDriverAssigned,
			ActorType: "system",
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return apperr.Wrap(apperr.CodePersistenceFailure, "append assignment event", err)
		}

		d.Status = driver.StatusBusy
		reserved = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.cache.Invalidate(ctx, o.ID)
	o.Status = order.StatusDriverAssigned
	o.StatusVersion++
	o.DriverID = &reserved.ID

	e.enqueueAssigned(ctx, o, reserved)
	e.log.Info("driver assigned",
		logging.String("order_id", string(o.ID)),
		logging.String("driver_id", string(reserved.ID)),
		logging.Float64("score", reserved.Score()))
	return &Result{Order: o, Driver: reserved}, nil
}

// TryAssign runs Assign but treats "nobody available" as a non-event: the
// order simply stays CREATED after creation.
func (e *Engine) TryAssign(ctx context.Context, orderID types.ID) (*Result, error) {
	res, err := e.Assign(ctx, orderID)
	if apperr.Is(err, apperr.CodeResourceUnavailable) {
		e.log.Warn("no driver assigned at creation", logging.String("order_id", string(orderID)))
		e.enqueueUnassigned(ctx, orderID)
		return nil, nil
	}
	return res, err
}

func (e *Engine) enqueueUnassigned(ctx context.Context, orderID types.ID) {
	if e.notify == nil {
		return
	}
	err := e.notify.Enqueue(ctx, notify.Event{
		Type: notify.EventSystem,
		Payload: notify.Payload{
			OrderID: string(orderID),
			Message: "no drivers available, order pending assignment",
		},
	})
	if err != nil {
		e.log.Error("notification enqueue failed",
			logging.String("order_id", string(orderID)),
			logging.Error(err))
	}
}

func (e *Engine) enqueueAssigned(ctx context.Context, o *order.Order, d *driver.Driver) {
	if e.notify == nil {
		return
	}
	err := e.notify.Enqueue(ctx, notify.Event{
		Type: notify.EventOrderStatus,
		Payload: notify.Payload{
			OrderID:  string(o.ID),
			ClientID: string(o.ClientID),
			DriverID: string(d.ID),
			Status:   string(order.StatusDriverAssigned),
			AdditionalData: map[string]any{
				"car_model": d.Car.Model,
				"car_plate": d.Car.Plate,
				"car_color": d.Car.Color,
				"rating":    d.Rating,
			},
		},
	})
	if err != nil {
		e.log.Error("notification enqueue failed",
			logging.String("order_id", string(o.ID)),
			logging.Error(err))
	}
}
