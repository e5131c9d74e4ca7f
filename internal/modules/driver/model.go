// README: Driver aggregate and driver status graph.
package driver

import (
	"time"

	"chauffeur/internal/types"
)

type Status string

const (
	StatusOffline Status = "offline"
	StatusOnline  Status = "online"
	StatusBusy    Status = "busy"
	StatusBreak   Status = "break"
)

// AllowedTransitions is the fixed driver status graph. BUSY is entered and
// left only by the order lifecycle, never directly by the driver.
var AllowedTransitions = map[Status][]Status{
	StatusOffline: {StatusOnline},
	StatusOnline:  {StatusOffline, StatusBusy, StatusBreak},
	StatusBusy:    {StatusOnline},
	StatusBreak:   {StatusOnline, StatusOffline},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type CarInfo struct {
	Model string `json:"model"`
	Plate string `json:"plate"`
	Year  int    `json:"year"`
	Color string `json:"color"`
}

type Driver struct {
	ID                types.ID
	UserID            types.ID
	CarClass          types.CarClass
	Status            Status
	Rating            float64
	TotalRides        int
	CommissionBalance int64
	Car               CarInfo
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Score ranks a driver for assignment: rating weighted 70%, experience capped
// at 1000 rides weighted 30%.
func (d *Driver) Score() float64 {
	ratingScore := (d.Rating / 5) * 0.7
	experience := float64(d.TotalRides) / 1000
	if experience > 1 {
		experience = 1
	}
	return ratingScore + experience*0.3
}
