// README: Order aggregate and status definitions.
package order

import (
	"time"

	"chauffeur/internal/types"
)

type Status string

const (
	StatusCreated        Status = "created"
	StatusDriverAssigned Status = "driver_assigned"
	StatusConfirmed      Status = "confirmed"
	StatusEnRoute        Status = "en_route"
	StatusArrived        Status = "arrived"
	StatusStarted        Status = "started"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// AllowedTransitions is the strict whitelist for order status changes.
// Cancellation stays legal from STARTED so an in-progress trip can still be
// aborted; see DESIGN.md for the rationale.
var AllowedTransitions = map[Status][]Status{
	StatusCreated:        {StatusDriverAssigned, StatusCancelled},
	StatusDriverAssigned: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusEnRoute, StatusCancelled},
	StatusEnRoute:        {StatusArrived, StatusCancelled},
	StatusArrived:        {StatusStarted, StatusCancelled},
	StatusStarted:        {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Active statuses occupy a driver: everything but CREATED and the terminals.
var ActiveStatuses = []Status{
	StatusDriverAssigned, StatusConfirmed, StatusEnRoute, StatusArrived, StatusStarted,
}

// reasonRequired lists the statuses from which cancelling demands a reason:
// someone is already committed to the ride.
var reasonRequired = map[Status]bool{
	StatusConfirmed: true,
	StatusEnRoute:   true,
	StatusArrived:   true,
	StatusStarted:   true,
}

type Order struct {
	ID     types.ID
	Number string // human-readable, immutable once assigned
	Type   types.OrderType
	Status Status
	// StatusVersion guards concurrent transitions: every status write is a
	// compare-and-set on (status, status_version).
	StatusVersion int

	ClientID types.ID
	DriverID *types.ID

	CarClass       types.CarClass
	PickupAt       time.Time
	PickupAddress  types.Address
	DestAddress    *types.Address
	DurationHours  *int
	EstimatedPrice int64
	ActualPrice    *int64
	Commission     int64
	PaymentType    types.PaymentType
	BonusPayment   int64

	CancellationReason *string
	Rating             *float64
	RatingComment      *string

	// Snapshot taken at the EN_ROUTE transition.
	StartLocation *types.Point
	ETA           *time.Time

	CreatedAt   time.Time
	ConfirmedAt *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Event is one entry in the order status audit trail.
type Event struct {
	ID        int64
	OrderID   types.ID
	From      Status
	To        Status
	ActorType string // client, driver, system, admin
	ActorID   *types.ID
	CreatedAt time.Time
}
