package routes

import (
	"net/http"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/controllers"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/middleware"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/repository"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/services"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Deps is everything the router needs. main builds it once.
type Deps struct {
	Orders         *services.OrderService
	Store          repository.Store
	Hub            *services.Hub
	Idempotency    middleware.IdempotencyStore
	IdempotencyTTL time.Duration
	JWTSecret      string
	SessionSecret  string
	SecureCookies  bool
}

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.CORSMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())

	store := cookie.NewStore([]byte(deps.SessionSecret))
	store.Options(sessions.Options{
		MaxAge:   60 * 60 * 24, // 1 day
		Path:     "/",
		Secure:   deps.SecureCookies,
		HttpOnly: true,
	})
	router.Use(sessions.Sessions("derryworld", store))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/v1")
	{
		initUserRoutes(api, deps)
		initAdminRoutes(api, deps)
	}

	router.NoRoute(func(c *gin.Context) {
		utils.NotFound(c, "Route not found")
	})

	return router
}

func mutationGuard(deps Deps) gin.HandlerFunc {
	if deps.Idempotency == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.Idempotency(deps.Idempotency, deps.IdempotencyTTL)
}

func notificationsEnabled(deps Deps) bool {
	return deps.Hub != nil
}

func newControllers(deps Deps) (*controllers.OrderController, *controllers.AdminOrderController) {
	return controllers.NewOrderController(deps.Orders), controllers.NewAdminOrderController(deps.Orders)
}
