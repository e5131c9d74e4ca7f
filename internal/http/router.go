// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chauffeur/internal/http/handlers"
	"chauffeur/internal/http/middleware"
	"chauffeur/internal/logging"
	"chauffeur/internal/modules/assignment"
	"chauffeur/internal/modules/driver"
	"chauffeur/internal/modules/ledger"
	"chauffeur/internal/modules/order"
	"chauffeur/internal/modules/pricing"
)

type RouterDeps struct {
	Orders     *order.Service
	Drivers    *driver.Service
	Pricing    *pricing.Service
	Ledger     *ledger.Store
	Assignment *assignment.Engine
	Log        logging.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Principal())

	orderHandler := handlers.NewOrderHandler(deps.Orders, deps.Assignment)
	api.POST("/orders", orderHandler.Create)
	api.GET("/orders", orderHandler.List)
	api.GET("/orders/:id", orderHandler.Get)
	api.PATCH("/orders/:id/status", orderHandler.UpdateStatus)
	api.POST("/orders/:id/cancel", orderHandler.Cancel)
	api.POST("/orders/:id/assign", orderHandler.Assign)

	driverHandler := handlers.NewDriverHandler(deps.Drivers, deps.Ledger)
	api.POST("/drivers", driverHandler.Register)
	api.GET("/drivers/:id", driverHandler.Get)
	api.PATCH("/drivers/:id/status", driverHandler.SetStatus)
	api.GET("/drivers/:id/balance", driverHandler.Balance)
	api.GET("/drivers/:id/ledger", driverHandler.Ledger)

	priceHandler := handlers.NewPriceHandler(deps.Pricing)
	api.POST("/prices/quote", priceHandler.Quote)

	return r
}
