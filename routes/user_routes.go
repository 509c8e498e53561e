package routes

import (
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/controllers"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/middleware"
	"github.com/gin-gonic/gin"
)

// initUserRoutes initializes all customer order routes
func initUserRoutes(router *gin.RouterGroup, deps Deps) {
	orders, _ := newControllers(deps)
	wallet := controllers.NewWalletController(deps.Store)

	user := router.Group("/user")
	user.Use(middleware.AuthMiddleware(deps.JWTSecret, deps.Store), mutationGuard(deps))
	{
		// Orders
		user.GET("/orders/:id", orders.GetOrder)
		user.GET("/orders/:id/refund-preview", orders.RefundPreview)
		user.POST("/orders/:id/cancel", orders.CancelOrder)
		user.POST("/orders/:id/return", orders.RequestReturn)
		user.POST("/orders/:id/items/:item_id/cancel", orders.CancelItem)
		user.POST("/orders/:id/items/:item_id/return", orders.RequestItemReturn)

		// Wallet
		user.GET("/wallet", wallet.GetWallet)

		if notificationsEnabled(deps) {
			user.GET("/notifications/ws", controllers.NewNotificationController(deps.Hub).Stream)
		}
	}
}
