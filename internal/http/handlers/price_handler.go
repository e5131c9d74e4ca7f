// README: Price quote handler: returns the estimated price breakdown without
// creating an order.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/modules/pricing"
	"chauffeur/internal/types"
)

type PriceHandler struct {
	pricing *pricing.Service
}

func NewPriceHandler(p *pricing.Service) *PriceHandler {
	return &PriceHandler{pricing: p}
}

type quoteReq struct {
	Type           string    `json:"type" binding:"required"`
	CarClass       string    `json:"car_class" binding:"required"`
	DurationHours  int       `json:"duration_hours"`
	Airport        string    `json:"airport"`
	PickupDatetime time.Time `json:"pickup_datetime"`
	Holiday        bool      `json:"holiday"`
	ExtraStops     int       `json:"extra_stops"`
	WaitingMinutes int       `json:"waiting_minutes"`
}

func (h *PriceHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q, err := h.pricing.Quote(pricing.QuoteRequest{
		Type:           types.OrderType(req.Type),
		CarClass:       types.CarClass(req.CarClass),
		DurationHours:  req.DurationHours,
		Airport:        req.Airport,
		PickupTime:     req.PickupDatetime,
		Holiday:        req.Holiday,
		ExtraStops:     req.ExtraStops,
		WaitingMinutes: req.WaitingMinutes,
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}
