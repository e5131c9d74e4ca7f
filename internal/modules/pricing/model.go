// README: Quote request/result types for the pricing engine.
package pricing

import (
	"time"

	"chauffeur/internal/types"
)

type QuoteRequest struct {
	Type     types.OrderType
	CarClass types.CarClass

	// DurationHours is required for hourly orders and optional for pre-orders
	// (defaults to 1). Ignored for airport orders.
	DurationHours int

	// Airport is the flat-fee table key (SVO, DME, VKO). Required for airport orders.
	Airport string

	PickupTime     time.Time
	Holiday        bool
	ExtraStops     int
	WaitingMinutes int
}

// Quote is the full price breakdown. FinalPrice already includes every
// surcharge and the minimum-price clamp.
type Quote struct {
	BasePrice        int64  `json:"base_price"`
	Discount         int64  `json:"discount"`
	DiscountPercent  int    `json:"discount_percent"`
	NightSurcharge   int64  `json:"night_surcharge"`
	HolidaySurcharge int64  `json:"holiday_surcharge"`
	ExtraStopCharge  int64  `json:"extra_stop_charge"`
	WaitingCharge    int64  `json:"waiting_charge"`
	FinalPrice       int64  `json:"final_price"`
	Commission       int64  `json:"commission"`
	CancellationFee  int64  `json:"cancellation_fee"`
	Currency         string `json:"currency"`
}
