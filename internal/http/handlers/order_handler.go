// README: Order handlers: create (with auto-assignment attempt), lookup,
// status transitions, cancellation, and explicit assignment.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/http/middleware"
	"chauffeur/internal/modules/assignment"
	"chauffeur/internal/modules/order"
	"chauffeur/internal/types"
)

type OrderHandler struct {
	orders *order.Service
	assign *assignment.Engine
}

func NewOrderHandler(orders *order.Service, assign *assignment.Engine) *OrderHandler {
	return &OrderHandler{orders: orders, assign: assign}
}

type addressReq struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type createOrderReq struct {
	Type           string      `json:"type" binding:"required"`
	CarClass       string      `json:"car_class" binding:"required"`
	PickupDatetime time.Time   `json:"pickup_datetime" binding:"required"`
	PickupAddress  addressReq  `json:"pickup_address" binding:"required"`
	DestAddress    *addressReq `json:"destination_address"`
	DurationHours  int         `json:"duration_hours"`
	Airport        string      `json:"airport"`
	PaymentType    string      `json:"payment_type"`
	BonusPayment   int64       `json:"bonus_payment"`
	Holiday        bool        `json:"holiday"`
	ExtraStops     int         `json:"extra_stops"`
	WaitingMinutes int         `json:"waiting_minutes"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := middleware.GetPrincipal(c)

	cmd := order.CreateCommand{
		ClientID:       p.UserID,
		Type:           types.OrderType(req.Type),
		CarClass:       types.CarClass(req.CarClass),
		PickupAt:       req.PickupDatetime,
		PickupAddress:  types.Address(req.PickupAddress),
		DurationHours:  req.DurationHours,
		Airport:        req.Airport,
		PaymentType:    types.PaymentType(req.PaymentType),
		BonusPayment:   req.BonusPayment,
		Holiday:        req.Holiday,
		ExtraStops:     req.ExtraStops,
		WaitingMinutes: req.WaitingMinutes,
	}
	if req.DestAddress != nil {
		dest := types.Address(*req.DestAddress)
		cmd.DestAddress = &dest
	}

	o, err := h.orders.Create(c.Request.Context(), cmd)
	if err != nil {
		writeAppError(c, err)
		return
	}

	// Best-effort auto-assignment: an unassignable order just stays CREATED.
	if res, err := h.assign.TryAssign(c.Request.Context(), o.ID); err == nil && res != nil {
		o = res.Order
	}

	c.JSON(http.StatusCreated, orderView(o))
}

func (h *OrderHandler) Get(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	o, err := h.orders.Get(c.Request.Context(), types.ID(c.Param("id")), p)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderView(o))
}

func (h *OrderHandler) List(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	orders, err := h.orders.ListByClient(c.Request.Context(), p.UserID, 20, 0)
	if err != nil {
		writeAppError(c, err)
		return
	}
	views := make([]gin.H, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderView(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": views})
}

type updateStatusReq struct {
	Status            string   `json:"status" binding:"required"`
	Reason            string   `json:"reason"`
	Rating            *float64 `json:"rating"`
	RatingComment     string   `json:"rating_comment"`
	AdditionalCharges int64    `json:"additional_charges"`
	DriverLat         *float64 `json:"driver_lat"`
	DriverLng         *float64 `json:"driver_lng"`
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	meta := order.TransitionMeta{
		Reason:            req.Reason,
		Rating:            req.Rating,
		RatingComment:     req.RatingComment,
		AdditionalCharges: req.AdditionalCharges,
	}
	if req.DriverLat != nil && req.DriverLng != nil {
		meta.DriverLocation = &types.Point{Lat: *req.DriverLat, Lng: *req.DriverLng}
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), order.UpdateStatusCommand{
		OrderID:   types.ID(c.Param("id")),
		To:        order.Status(req.Status),
		Meta:      meta,
		Principal: middleware.GetPrincipal(c),
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderView(o))
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	var req cancelReq
	_ = c.ShouldBindJSON(&req)
	o, err := h.orders.Cancel(c.Request.Context(), types.ID(c.Param("id")), req.Reason, middleware.GetPrincipal(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderView(o))
}

// Assign triggers driver assignment for a pending order.
func (h *OrderHandler) Assign(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p.Role != types.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}
	res, err := h.assign.Assign(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":  orderView(res.Order),
		"driver": driverView(res.Driver),
	})
}

func orderView(o *order.Order) gin.H {
	v := gin.H{
		"id":              o.ID,
		"order_number":    o.Number,
		"type":            o.Type,
		"status":          o.Status,
		"car_class":       o.CarClass,
		"pickup_datetime": o.PickupAt,
		"pickup_address":  o.PickupAddress,
		"estimated_price": o.EstimatedPrice,
		"commission":      o.Commission,
		"payment_type":    o.PaymentType,
		"bonus_payment":   o.BonusPayment,
		"created_at":      o.CreatedAt,
	}
	if o.DriverID != nil {
		v["driver_id"] = *o.DriverID
	}
	if o.DestAddress != nil {
		v["destination_address"] = *o.DestAddress
	}
	if o.DurationHours != nil {
		v["duration_hours"] = *o.DurationHours
	}
	if o.ActualPrice != nil {
		v["actual_price"] = *o.ActualPrice
	}
	if o.CancellationReason != nil {
		v["cancellation_reason"] = *o.CancellationReason
	}
	if o.Rating != nil {
		v["rating"] = *o.Rating
	}
	if o.ETA != nil {
		v["eta"] = *o.ETA
	}
	return v
}
