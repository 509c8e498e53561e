package routes

import (
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/controllers"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/middleware"
	"github.com/gin-gonic/gin"
)

// initAdminRoutes initializes all admin-related routes
func initAdminRoutes(router *gin.RouterGroup, deps Deps) {
	_, orders := newControllers(deps)
	reports := controllers.NewRefundReportController(deps.Store)

	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(deps.JWTSecret, deps.Store), middleware.AdminMiddleware(), mutationGuard(deps))
	{
		// Order lifecycle
		admin.GET("/order-statuses", orders.ListStatuses)
		admin.GET("/orders/:id", orders.GetOrder)
		admin.GET("/orders/:id/statuses", orders.AvailableStatuses)
		admin.PATCH("/orders/:id/status", orders.UpdateStatus)
		admin.POST("/orders/:id/items/:item_id/return/review", orders.ReviewItemReturn)
		admin.POST("/orders/:id/coupon/recalculate", orders.RecalculateCoupon)

		// Reports
		admin.GET("/refunds/export", reports.ExportRefunds)
	}
}
