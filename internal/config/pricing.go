// README: Per-car-class rate tables, pricing rules, and commission settings.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/cast"

	"chauffeur/internal/types"
)

// CarClassRates holds the base rate table for one car class.
type CarClassRates struct {
	FirstHour  int64
	MinuteRate int64
	Airports   map[string]int64 // flat fees keyed by airport code (SVO, DME, VKO)
}

type PricingRules struct {
	MinOrderDuration       int
	MaxOrderDuration       int
	CancellationFeePercent int
	WaitingRatePerMinute   int64
	ExtraStopRate          int64
	MinPrice               int64
	MaxDiscountPercent     int
}

type TimeRates struct {
	NightRateMultiplier   float64
	HolidayRateMultiplier float64
	NightHoursStart       int // hour 0-23, inclusive
	NightHoursEnd         int // hour 0-23, exclusive; window may wrap midnight
}

type DiscountTier struct {
	Hours   int
	Percent int
}

type CommissionConfig struct {
	Rate float64
	Min  int64 // 0 means no lower bound
	Max  int64 // 0 means no upper bound
}

type PricingConfig struct {
	Classes    map[types.CarClass]CarClassRates
	Rules      map[types.CarClass]PricingRules
	Time       map[types.CarClass]TimeRates
	Discounts  []DiscountTier // descending by Hours
	Commission CommissionConfig
}

func loadPricing() (PricingConfig, error) {
	premium := CarClassRates{
		FirstHour:  envInt64("PREMIUM_FIRST_HOUR", 4200),
		MinuteRate: envInt64("PREMIUM_MINUTE_RATE", 70),
		Airports: map[string]int64{
			"SVO": envInt64("PREMIUM_AIRPORT_SVO", 6000),
			"DME": envInt64("PREMIUM_AIRPORT_DME", 7000),
			"VKO": envInt64("PREMIUM_AIRPORT_VKO", 6000),
		},
	}
	elite := CarClassRates{
		FirstHour:  envInt64("ELITE_FIRST_HOUR", 4800),
		MinuteRate: envInt64("ELITE_MINUTE_RATE", 80),
		Airports: map[string]int64{
			"SVO": envInt64("ELITE_AIRPORT_SVO", 7000),
			"DME": envInt64("ELITE_AIRPORT_DME", 8000),
			"VKO": envInt64("ELITE_AIRPORT_VKO", 7000),
		},
	}

	cfg := PricingConfig{
		Classes: map[types.CarClass]CarClassRates{
			types.ClassPremium:      premium,
			types.ClassPremiumLarge: premium,
			types.ClassElite:        elite,
		},
		Rules: map[types.CarClass]PricingRules{
			types.ClassPremium:      rulesFor(false),
			types.ClassPremiumLarge: rulesFor(false),
			types.ClassElite:        rulesFor(true),
		},
		Time: map[types.CarClass]TimeRates{
			types.ClassPremium:      timeRatesFor(false),
			types.ClassPremiumLarge: timeRatesFor(false),
			types.ClassElite:        timeRatesFor(true),
		},
		Discounts: []DiscountTier{
			{Hours: 12, Percent: envInt("DISCOUNT_12_HOURS", 30)},
			{Hours: 10, Percent: envInt("DISCOUNT_10_HOURS", 25)},
			{Hours: 8, Percent: envInt("DISCOUNT_8_HOURS", 20)},
			{Hours: 6, Percent: envInt("DISCOUNT_6_HOURS", 15)},
			{Hours: 4, Percent: envInt("DISCOUNT_4_HOURS", 10)},
			{Hours: 2, Percent: envInt("DISCOUNT_2_HOURS", 5)},
		},
		Commission: CommissionConfig{
			Rate: envFloat("COMMISSION_RATE", 0.25),
			Min:  envInt64("MIN_COMMISSION_AMOUNT", 0),
			Max:  envInt64("MAX_COMMISSION_AMOUNT", 0),
		},
	}

	if err := cfg.validate(); err != nil {
		return PricingConfig{}, err
	}
	return cfg, nil
}

func rulesFor(elite bool) PricingRules {
	prefix := "PREMIUM"
	if elite {
		prefix = "ELITE"
	}
	minPrice := int64(4200)
	waiting := int64(80)
	extraStop := int64(400)
	if elite {
		minPrice, waiting, extraStop = 4800, 100, 500
	}
	return PricingRules{
		MinOrderDuration:       envInt("MIN_ORDER_DURATION", 2),
		MaxOrderDuration:       envInt("MAX_ORDER_DURATION", 12),
		CancellationFeePercent: envInt("CANCELLATION_FEE", 20),
		WaitingRatePerMinute:   envInt64(prefix+"_WAITING_RATE", waiting),
		ExtraStopRate:          envInt64(prefix+"_EXTRA_STOP_RATE", extraStop),
		MinPrice:               envInt64(prefix+"_MIN_PRICE", minPrice),
		MaxDiscountPercent:     envInt("MAX_DISCOUNT", 30),
	}
}

func timeRatesFor(elite bool) TimeRates {
	base := 1.3
	if elite {
		base = 1.5
	}
	return TimeRates{
		NightRateMultiplier:   envFloat("NIGHT_RATE_MULTIPLIER", base),
		HolidayRateMultiplier: envFloat("HOLIDAY_RATE_MULTIPLIER", base+0.2),
		NightHoursStart:       envInt("NIGHT_HOURS_START", 23),
		NightHoursEnd:         envInt("NIGHT_HOURS_END", 6),
	}
}

// validate treats a broken rate table as a startup-time fatal error rather
// than letting bad numbers surface as runtime pricing bugs.
func (c PricingConfig) validate() error {
	for class, rates := range c.Classes {
		if rates.FirstHour <= 0 {
			return fmt.Errorf("pricing config: %s first hour rate must be positive", class)
		}
		if rates.MinuteRate <= 0 {
			return fmt.Errorf("pricing config: %s minute rate must be positive", class)
		}
		if len(rates.Airports) == 0 {
			return fmt.Errorf("pricing config: %s airport table is empty", class)
		}
		rules, ok := c.Rules[class]
		if !ok {
			return fmt.Errorf("pricing config: %s has no rules", class)
		}
		if rules.MinOrderDuration < 1 || rules.MaxOrderDuration < rules.MinOrderDuration {
			return fmt.Errorf("pricing config: %s duration bounds invalid", class)
		}
		if _, ok := c.Time[class]; !ok {
			return fmt.Errorf("pricing config: %s has no time rates", class)
		}
	}
	if c.Commission.Rate <= 0 || c.Commission.Rate >= 1 {
		return fmt.Errorf("pricing config: commission rate %v out of (0,1)", c.Commission.Rate)
	}
	if c.Commission.Max > 0 && c.Commission.Max < c.Commission.Min {
		return fmt.Errorf("pricing config: commission max below min")
	}
	for i := 1; i < len(c.Discounts); i++ {
		if c.Discounts[i].Hours >= c.Discounts[i-1].Hours {
			return fmt.Errorf("pricing config: discount tiers must descend by hours")
		}
	}
	return nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		return cast.ToInt(v)
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		return cast.ToInt64(v)
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		return cast.ToFloat64(v)
	}
	return def
}
