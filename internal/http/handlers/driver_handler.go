// README: Driver handlers: registration, status changes, lookup, earnings.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/http/middleware"
	"chauffeur/internal/modules/driver"
	"chauffeur/internal/modules/ledger"
	"chauffeur/internal/types"
)

type DriverHandler struct {
	drivers *driver.Service
	ledger  *ledger.Store
}

func NewDriverHandler(drivers *driver.Service, ledger *ledger.Store) *DriverHandler {
	return &DriverHandler{drivers: drivers, ledger: ledger}
}

type registerDriverReq struct {
	CarClass string `json:"car_class" binding:"required"`
	CarModel string `json:"car_model" binding:"required"`
	CarPlate string `json:"car_plate" binding:"required"`
	CarYear  int    `json:"car_year"`
	CarColor string `json:"car_color"`
}

func (h *DriverHandler) Register(c *gin.Context) {
	var req registerDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := middleware.GetPrincipal(c)
	d, err := h.drivers.Register(c.Request.Context(), driver.RegisterCommand{
		UserID:   p.UserID,
		CarClass: types.CarClass(req.CarClass),
		Car: driver.CarInfo{
			Model: req.CarModel,
			Plate: req.CarPlate,
			Year:  req.CarYear,
			Color: req.CarColor,
		},
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, driverView(d))
}

func (h *DriverHandler) Get(c *gin.Context) {
	d, err := h.drivers.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, driverView(d))
}

type setDriverStatusReq struct {
	Status string `json:"status" binding:"required"`
}

func (h *DriverHandler) SetStatus(c *gin.Context) {
	var req setDriverStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.drivers.SetStatus(c.Request.Context(),
		types.ID(c.Param("id")), driver.Status(req.Status), middleware.GetPrincipal(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, driverView(d))
}

func (h *DriverHandler) Balance(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	id := types.ID(c.Param("id"))
	d, err := h.drivers.Get(c.Request.Context(), id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if p.Role != types.RoleAdmin && p.UserID != d.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the driver may view own balance"})
		return
	}
	bal, err := h.ledger.DriverBalance(c.Request.Context(), id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"driver_id":          id,
		"commission_balance": bal.CommissionBalance,
		"total_earnings":     bal.TotalEarnings,
	})
}

func (h *DriverHandler) Ledger(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	id := types.ID(c.Param("id"))
	d, err := h.drivers.Get(c.Request.Context(), id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if p.Role != types.RoleAdmin && p.UserID != d.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the driver may view own ledger"})
		return
	}
	entries, err := h.ledger.History(c.Request.Context(), id, 50, 0)
	if err != nil {
		writeAppError(c, err)
		return
	}
	views := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		views = append(views, gin.H{
			"id":         e.ID,
			"order_id":   e.OrderID,
			"type":       e.Type,
			"amount":     e.Amount,
			"commission": e.Commission,
			"created_at": e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": views})
}

func driverView(d *driver.Driver) gin.H {
	return gin.H{
		"id":          d.ID,
		"car_class":   d.CarClass,
		"status":      d.Status,
		"rating":      d.Rating,
		"total_rides": d.TotalRides,
		"car": gin.H{
			"model": d.Car.Model,
			"plate": d.Car.Plate,
			"year":  d.Car.Year,
			"color": d.Car.Color,
		},
	}
}
