// README: Immutable financial ledger entries tied to orders and drivers.
package ledger

import (
	"time"

	"chauffeur/internal/types"
)

type EntryType string

const (
	TypePayment EntryType = "payment"
	TypeBonus   EntryType = "bonus"
)

type Entry struct {
	ID         types.ID
	OrderID    types.ID
	DriverID   *types.ID
	Type       EntryType
	Amount     int64
	Commission int64
	CreatedAt  time.Time
}

// Balance is a driver's financial summary: accrued platform commission owed,
// and net earnings across settled payments.
type Balance struct {
	CommissionBalance int64 `json:"commission_balance"`
	TotalEarnings     int64 `json:"total_earnings"`
}
