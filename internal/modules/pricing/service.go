// README: Pricing service computes fare quotes. Pure: no I/O, deterministic
// for identical inputs and configuration.
package pricing

import (
	"math"

	"chauffeur/internal/apperr"
	"chauffeur/internal/config"
	"chauffeur/internal/types"
)

type Service struct {
	cfg config.PricingConfig
}

func NewService(cfg config.PricingConfig) *Service {
	return &Service{cfg: cfg}
}

func (s *Service) Quote(req QuoteRequest) (Quote, error) {
	rates, ok := s.cfg.Classes[req.CarClass]
	if !ok {
		return Quote{}, apperr.Newf(apperr.CodeInvalidRequest, "unknown car class %q", req.CarClass)
	}
	rules := s.cfg.Rules[req.CarClass]

	var q Quote
	q.Currency = types.DefaultCurrency

	switch req.Type {
	case types.OrderAirport:
		fee, ok := rates.Airports[req.Airport]
		if !ok {
			return Quote{}, apperr.Newf(apperr.CodeInvalidRequest, "unknown airport code %q", req.Airport)
		}
		q.BasePrice = fee

	case types.OrderHourly:
		d := req.DurationHours
		if d < rules.MinOrderDuration || d > rules.MaxOrderDuration {
			return Quote{}, apperr.Newf(apperr.CodeInvalidRequest,
				"hourly duration must be between %d and %d hours", rules.MinOrderDuration, rules.MaxOrderDuration)
		}
		q.BasePrice = rates.FirstHour * int64(d)
		q.DiscountPercent = s.discountPercent(d, rules.MaxDiscountPercent)
		q.Discount = roundRatio(q.BasePrice, float64(q.DiscountPercent)/100)

	case types.OrderPreOrder:
		d := req.DurationHours
		if d < 1 {
			d = 1
		}
		extraMinutes := int64(d-1) * 60
		q.BasePrice = rates.FirstHour + roundRatio(extraMinutes*rates.MinuteRate, 1.0/60)

	default:
		return Quote{}, apperr.Newf(apperr.CodeInvalidRequest, "unsupported order type %q", req.Type)
	}

	final := q.BasePrice - q.Discount

	tr := s.cfg.Time[req.CarClass]
	if !req.PickupTime.IsZero() && inNightWindow(req.PickupTime.Hour(), tr.NightHoursStart, tr.NightHoursEnd) {
		q.NightSurcharge = roundRatio(final, tr.NightRateMultiplier-1)
	}
	if req.Holiday {
		q.HolidaySurcharge = roundRatio(final, tr.HolidayRateMultiplier-1)
	}
	if req.ExtraStops > 0 {
		q.ExtraStopCharge = int64(req.ExtraStops) * rules.ExtraStopRate
	}
	if req.WaitingMinutes > 0 {
		q.WaitingCharge = int64(req.WaitingMinutes) * rules.WaitingRatePerMinute
	}

	final += q.NightSurcharge + q.HolidaySurcharge + q.ExtraStopCharge + q.WaitingCharge
	if final < rules.MinPrice {
		final = rules.MinPrice
	}
	q.FinalPrice = final
	q.Commission = s.Commission(final)
	q.CancellationFee = s.CancellationFee(req.CarClass, final)
	return q, nil
}

// Commission is round(price * rate) clamped to the configured bounds.
func (s *Service) Commission(price int64) int64 {
	c := int64(math.Round(float64(price) * s.cfg.Commission.Rate))
	if min := s.cfg.Commission.Min; min > 0 && c < min {
		c = min
	}
	if max := s.cfg.Commission.Max; max > 0 && c > max {
		c = max
	}
	return c
}

// CancellationFee returns the fee charged when a confirmed order is cancelled.
func (s *Service) CancellationFee(carClass types.CarClass, price int64) int64 {
	rules := s.cfg.Rules[carClass]
	return roundRatio(price, float64(rules.CancellationFeePercent)/100)
}

func (s *Service) discountPercent(hours, cap int) int {
	for _, tier := range s.cfg.Discounts {
		if hours >= tier.Hours {
			if tier.Percent > cap {
				return cap
			}
			return tier.Percent
		}
	}
	return 0
}

func roundRatio(amount int64, ratio float64) int64 {
	return int64(math.Round(float64(amount) * ratio))
}

// inNightWindow reports whether hour falls in [start, end), wrapping midnight
// when start > end (e.g. 23..6).
func inNightWindow(hour, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
