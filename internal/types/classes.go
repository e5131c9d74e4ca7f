// README: Car class and order type enums shared by pricing, orders, and drivers.
package types

type CarClass string

const (
	ClassPremium      CarClass = "premium"
	ClassPremiumLarge CarClass = "premium_large"
	ClassElite        CarClass = "elite"
)

func (c CarClass) Valid() bool {
	switch c {
	case ClassPremium, ClassPremiumLarge, ClassElite:
		return true
	}
	return false
}

type OrderType string

const (
	OrderPreOrder OrderType = "pre_order"
	OrderHourly   OrderType = "hourly"
	OrderAirport  OrderType = "airport"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderPreOrder, OrderHourly, OrderAirport:
		return true
	}
	return false
}

type PaymentType string

const (
	PaymentCash  PaymentType = "cash"
	PaymentBonus PaymentType = "bonus"
	PaymentMixed PaymentType = "mixed"
)

// Prices are stored as integer amounts of the base currency unit.
const DefaultCurrency = "RUB"
