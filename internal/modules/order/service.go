// README: Order service: creation and the status state machine. Every
// transition's side effects run in one transaction spanning the order row, the
// driver row, and the ledger; notifications are enqueued best-effort after
// commit.
package order

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chauffeur/internal/apperr"
	"chauffeur/internal/infra"
	"chauffeur/internal/logging"
	"chauffeur/internal/modules/driver"
	"chauffeur/internal/modules/ledger"
	"chauffeur/internal/modules/pricing"
	"chauffeur/internal/notify"
	"chauffeur/internal/types"
)

// bonusAccrualPercent of the settled price is credited back to the client.
const bonusAccrualPercent = 5

// etaStub replaces the routing collaborator: a flat arrival estimate.
const etaStub = 15 * time.Minute

type Service struct {
	pool    *pgxpool.Pool
	store   *Store
	cache   *Cache
	drivers *driver.Store
	ledger  *ledger.Store
	pricing *pricing.Service
	notify  *notify.Queue
	log     logging.Logger
}

func NewService(
	pool *pgxpool.Pool,
	store *Store,
	cache *Cache,
	drivers *driver.Store,
	ledgerStore *ledger.Store,
	pricingSvc *pricing.Service,
	queue *notify.Queue,
	log logging.Logger,
) *Service {
	return &Service{
		pool:    pool,
		store:   store,
		cache:   cache,
		drivers: drivers,
		ledger:  ledgerStore,
		pricing: pricingSvc,
		notify:  queue,
		log:     log,
	}
}

type CreateCommand struct {
	ClientID       types.ID
	Type           types.OrderType
	CarClass       types.CarClass
	PickupAt       time.Time
	PickupAddress  types.Address
	DestAddress    *types.Address
	DurationHours  int // 0 when absent
	Airport        string
	PaymentType    types.PaymentType
	BonusPayment   int64
	Holiday        bool
	ExtraStops     int
	WaitingMinutes int
}

// TransitionMeta carries the per-transition context: cancellation reason,
// completion rating, late charges, and the driver's reported location.
type TransitionMeta struct {
	Reason            string
	Rating            *float64
	RatingComment     string
	AdditionalCharges int64
	DriverLocation    *types.Point
}

type UpdateStatusCommand struct {
	OrderID   types.ID
	To        Status
	Meta      TransitionMeta
	Principal types.Principal
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if cmd.ClientID == "" {
		return nil, apperr.New(apperr.CodeInvalidRequest, "client id is required")
	}
	if !cmd.Type.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidRequest, "unknown order type %q", cmd.Type)
	}
	if !cmd.CarClass.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidRequest, "unknown car class %q", cmd.CarClass)
	}
	if cmd.PickupAt.Before(time.Now()) {
		return nil, apperr.New(apperr.CodeInvalidRequest, "pickup time is in the past")
	}
	active, err := s.store.HasActiveByClient(ctx, cmd.ClientID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePersistenceFailure, "check active orders", err)
	}
	if active {
		return nil, apperr.New(apperr.CodeInvalidRequest, "client already has an active order")
	}

	quote, err := s.pricing.Quote(pricing.QuoteRequest{
		Type:           cmd.Type,
		CarClass:       cmd.CarClass,
		DurationHours:  cmd.DurationHours,
		Airport:        cmd.Airport,
		PickupTime:     cmd.PickupAt,
		Holiday:        cmd.Holiday,
		ExtraStops:     cmd.ExtraStops,
		WaitingMinutes: cmd.WaitingMinutes,
	})
	if err != nil {
		return nil, err
	}

	if cmd.BonusPayment < 0 || cmd.BonusPayment > quote.FinalPrice {
		return nil, apperr.New(apperr.CodeInvalidRequest, "bonus payment exceeds order price")
	}
	paymentType := cmd.PaymentType
	if paymentType == "" {
		paymentType = types.PaymentCash
	}

	now := time.Now().UTC()
	o := &Order{
		ID:             types.ID(uuid.NewString()),
		Number:         newOrderNumber(now),
		Type:           cmd.Type,
		Status:         StatusCreated,
		ClientID:       cmd.ClientID,
		CarClass:       cmd.CarClass,
		PickupAt:       cmd.PickupAt,
		PickupAddress:  cmd.PickupAddress,
		DestAddress:    cmd.DestAddress,
		EstimatedPrice: quote.FinalPrice,
		Commission:     quote.Commission,
		PaymentType:    paymentType,
		BonusPayment:   cmd.BonusPayment,
		CreatedAt:      now,
	}
	if cmd.DurationHours > 0 {
		d := cmd.DurationHours
		o.DurationHours = &d
	}

	err = infra.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.store.Create(ctx, tx, o); err != nil {
			return apperr.Wrap(apperr.CodePersistenceFailure, "insert order", err)
		}
		if o.BonusPayment > 0 {
			if err := s.ledger.DebitBonus(ctx, tx, o.ClientID, o.BonusPayment); err != nil {
				return err
			}
		}
		return s.store.AppendEvent(ctx, tx, &Event{
			OrderID:   o.ID,
			From:      "",
			To:        StatusCreated,
			ActorType: "client",
			ActorID:   &o.ClientID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.enqueue(ctx, o, StatusCreated, map[string]any{
		"price":        quote.FinalPrice,
		"base_price":   quote.BasePrice,
		"discount":     quote.Discount,
		"payment_type": string(o.PaymentType),
	})
	s.log.Info("order created",
		logging.String("order_id", string(o.ID)),
		logging.String("order_number", o.Number),
		logging.String("type", string(o.Type)),
		logging.Int64("price", o.EstimatedPrice))
	return o, nil
}

// UpdateStatus advances the order through the state machine. Validation runs
// before any mutation; the first failure inside the transaction rolls back
// everything.
func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if cmd.To == StatusDriverAssigned {
		return nil, apperr.New(apperr.CodeInvalidRequest, "driver assignment runs through the assignment engine")
	}
	if o.Status.Terminal() {
		return nil, apperr.Newf(apperr.CodeInvalidStatusTransition, "order is already %s", o.Status)
	}
	if err := s.authorize(ctx, o, cmd.To, cmd.Principal); err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, cmd.To) {
		return nil, apperr.Newf(apperr.CodeInvalidStatusTransition,
			"cannot transition from %s to %s", o.Status, cmd.To)
	}
	if cmd.To == StatusCancelled && reasonRequired[o.Status] && cmd.Meta.Reason == "" {
		return nil, apperr.New(apperr.CodeInvalidRequest, "cancellation reason is required")
	}
	if cmd.Meta.Rating != nil {
		if cmd.To != StatusCompleted {
			return nil, apperr.New(apperr.CodeInvalidRequest, "rating is only accepted at completion")
		}
		if *cmd.Meta.Rating < 1 || *cmd.Meta.Rating > 5 {
			return nil, apperr.New(apperr.CodeInvalidRequest, "rating must be between 1 and 5")
		}
	}
	if cmd.To == StatusCompleted && o.DriverID == nil {
		return nil, apperr.New(apperr.CodeInvalidRequest, "no driver assigned to order")
	}

	extra := map[string]any{}
	err = infra.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		// Lock the driver row first: it is the shared resource between this
		// order's transitions and the assignment engine.
		var d *driver.Driver
		if o.DriverID != nil {
			d, err = s.drivers.GetForUpdate(ctx, tx, *o.DriverID)
			if err != nil {
				return err
			}
		}

		ok, err := s.store.UpdateStatus(ctx, tx, o.ID, o.Status, cmd.To, o.StatusVersion, nil)
		if err != nil {
			return apperr.Wrap(apperr.CodePersistenceFailure, "update order status", err)
		}
		if !ok {
			return apperr.Newf(apperr.CodeInvalidStatusTransition,
				"order status changed concurrently, no longer %s", o.Status)
		}

		switch cmd.To {
		case StatusEnRoute:
			eta := time.Now().UTC().Add(etaStub)
			if err := s.store.SetEnRouteSnapshot(ctx, tx, o.ID, cmd.Meta.DriverLocation, eta); err != nil {
				return apperr.Wrap(apperr.CodePersistenceFailure, "store en-route snapshot", err)
			}
			o.ETA = &eta
			o.StartLocation = cmd.Meta.DriverLocation
			extra["eta"] = eta

		case StatusCompleted:
			if err := s.settleCompletion(ctx, tx, o, d, cmd.Meta, extra); err != nil {
				return err
			}

		case StatusCancelled:
			if d != nil {
				released, err := s.drivers.SetStatus(ctx, tx, d.ID, driver.StatusBusy, driver.StatusOnline)
				if err != nil {
					return apperr.Wrap(apperr.CodePersistenceFailure, "release driver", err)
				}
				if !released {
					s.log.Warn("driver was not busy at cancellation",
						logging.String("driver_id", string(d.ID)),
						logging.String("order_id", string(o.ID)))
				}
			}
			if cmd.Meta.Reason != "" {
				if err := s.store.SetCancellationReason(ctx, tx, o.ID, cmd.Meta.Reason); err != nil {
					return apperr.Wrap(apperr.CodePersistenceFailure, "store cancellation reason", err)
				}
				reason := cmd.Meta.Reason
				o.CancellationReason = &reason
			}
			extra["reason"] = cmd.Meta.Reason
			extra["original_status"] = string(o.Status)
		}

		return s.store.AppendEvent(ctx, tx, &Event{
			OrderID:   o.ID,
			From:      o.Status,
			To:        cmd.To,
			ActorType: string(cmd.Principal.Role),
			ActorID:   &cmd.Principal.UserID,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, o.ID)
	prev := o.Status
	o.Status = cmd.To
	o.StatusVersion++
	s.enqueue(ctx, o, cmd.To, extra)
	s.log.Info("order status updated",
		logging.String("order_id", string(o.ID)),
		logging.String("from", string(prev)),
		logging.String("to", string(cmd.To)))
	return o, nil
}

// settleCompletion finalizes the ride: driver back to ONLINE with one more
// ride, rating folded into the running average, settled price and ledger entry
// written, commission accrued, client bonus credited.
func (s *Service) settleCompletion(ctx context.Context, tx pgx.Tx, o *Order, d *driver.Driver, meta TransitionMeta, extra map[string]any) error {
	if d == nil {
		return apperr.New(apperr.CodeInvalidRequest, "no driver assigned to order")
	}

	actual := o.EstimatedPrice + meta.AdditionalCharges
	var rating *float64
	var comment *string
	if meta.Rating != nil {
		newRating := (d.Rating*float64(d.TotalRides) + *meta.Rating) / float64(d.TotalRides+1)
		newRating = math.Round(newRating*100) / 100
		if err := s.drivers.UpdateRating(ctx, tx, d.ID, newRating); err != nil {
			return apperr.Wrap(apperr.CodePersistenceFailure, "update driver rating", err)
		}
		rating = meta.Rating
		if meta.RatingComment != "" {
			c := meta.RatingComment
			comment = &c
		}
		extra["rating"] = *meta.Rating
	}

	if err := s.drivers.Complete(ctx, tx, d.ID, o.Commission); err != nil {
		return err
	}
	if err := s.store.SetCompletion(ctx, tx, o.ID, actual, rating, comment); err != nil {
		return apperr.Wrap(apperr.CodePersistenceFailure, "store completion", err)
	}
	if err := s.ledger.Record(ctx, tx, &ledger.Entry{
		OrderID:    o.ID,
		DriverID:   &d.ID,
		Type:       ledger.TypePayment,
		Amount:     actual,
		Commission: o.Commission,
	}); err != nil {
		return apperr.Wrap(apperr.CodePersistenceFailure, "record ledger entry", err)
	}

	bonus := actual * bonusAccrualPercent / 100
	if bonus > 0 {
		if err := s.ledger.CreditBonus(ctx, tx, o.ClientID, bonus); err != nil {
			return apperr.Wrap(apperr.CodePersistenceFailure, "credit client bonus", err)
		}
		if err := s.ledger.Record(ctx, tx, &ledger.Entry{
			OrderID: o.ID,
			Type:    ledger.TypeBonus,
			Amount:  bonus,
		}); err != nil {
			return apperr.Wrap(apperr.CodePersistenceFailure, "record bonus entry", err)
		}
	}

	o.ActualPrice = &actual
	extra["final_price"] = actual
	return nil
}

// Cancel is the client-facing cancellation entry point.
func (s *Service) Cancel(ctx context.Context, id types.ID, reason string, principal types.Principal) (*Order, error) {
	return s.UpdateStatus(ctx, UpdateStatusCommand{
		OrderID:   id,
		To:        StatusCancelled,
		Meta:      TransitionMeta{Reason: reason},
		Principal: principal,
	})
}

// Get serves reads through the cache; writes in the same request path have
// already invalidated stale entries.
func (s *Service) Get(ctx context.Context, id types.ID, principal types.Principal) (*Order, error) {
	if o, ok := s.cache.Get(ctx, id); ok {
		if err := s.authorizeRead(ctx, o, principal); err != nil {
			return nil, err
		}
		return o, nil
	}
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, o, principal); err != nil {
		return nil, err
	}
	s.cache.Set(ctx, o)
	return o, nil
}

func (s *Service) ListByClient(ctx context.Context, clientID types.ID, limit, offset int) ([]*Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListByClient(ctx, clientID, limit, offset)
}

// authorize is the capability check at the state machine boundary: plain
// conditional logic, no role metadata.
func (s *Service) authorize(ctx context.Context, o *Order, to Status, p types.Principal) error {
	if p.Role == types.RoleAdmin {
		return nil
	}
	switch to {
	case StatusConfirmed, StatusCancelled:
		if p.Role == types.RoleClient && p.UserID == o.ClientID {
			return nil
		}
		// The assigned driver may also abort the ride; the reason requirement
		// still applies.
		if to == StatusCancelled && p.Role == types.RoleDriver {
			return s.requireAssignedDriver(ctx, o, p)
		}
		return apperr.New(apperr.CodeAuthorizationDenied, "only the order's client may perform this transition")
	case StatusEnRoute, StatusArrived, StatusStarted, StatusCompleted:
		if p.Role != types.RoleDriver {
			return apperr.New(apperr.CodeAuthorizationDenied, "only the assigned driver may perform this transition")
		}
		return s.requireAssignedDriver(ctx, o, p)
	}
	return apperr.Newf(apperr.CodeAuthorizationDenied, "transition to %s is not caller-initiated", to)
}

func (s *Service) requireAssignedDriver(ctx context.Context, o *Order, p types.Principal) error {
	if o.DriverID == nil {
		return apperr.New(apperr.CodeAuthorizationDenied, "order has no assigned driver")
	}
	d, err := s.drivers.Get(ctx, *o.DriverID)
	if err != nil {
		return err
	}
	if d.UserID != p.UserID {
		return apperr.New(apperr.CodeAuthorizationDenied, "caller is not the assigned driver")
	}
	return nil
}

func (s *Service) authorizeRead(ctx context.Context, o *Order, p types.Principal) error {
	if p.Role == types.RoleAdmin || p.UserID == o.ClientID {
		return nil
	}
	if p.Role == types.RoleDriver && o.DriverID != nil {
		if err := s.requireAssignedDriver(ctx, o, p); err == nil {
			return nil
		}
	}
	return apperr.New(apperr.CodeAuthorizationDenied, "order belongs to another client")
}

// enqueue pushes a status notification. Failures are logged and swallowed:
// delivery is best-effort and never rolls back a committed transition.
func (s *Service) enqueue(ctx context.Context, o *Order, status Status, extra map[string]any) {
	if s.notify == nil {
		return
	}
	payload := notify.Payload{
		OrderID:        string(o.ID),
		ClientID:       string(o.ClientID),
		Status:         string(status),
		AdditionalData: extra,
	}
	if o.DriverID != nil {
		payload.DriverID = string(*o.DriverID)
	}
	if err := s.notify.Enqueue(ctx, notify.Event{Type: notify.EventOrderStatus, Payload: payload}); err != nil {
		s.log.Error("notification enqueue failed",
			logging.String("order_id", string(o.ID)),
			logging.String("status", string(status)),
			logging.Error(err))
	}
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("CH-%s-%s", now.Format("20060102"), suffix)
}
