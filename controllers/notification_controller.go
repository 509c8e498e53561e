package controllers

import (
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/middleware"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/services"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	hub *services.Hub
}

func NewNotificationController(hub *services.Hub) *NotificationController {
	return &NotificationController{hub: hub}
}

// Stream upgrades to a websocket and pushes the user's order events until
// the client disconnects.
func (ctl *NotificationController) Stream(c *gin.Context) {
	userID := c.GetUint(middleware.ContextUserID)
	utils.LogInfo("Notification stream opened for user ID: %d", userID)
	if err := ctl.hub.Subscribe(c.Writer, c.Request, userID); err != nil {
		utils.LogError("Notification stream for user ID: %d ended: %v", userID, err)
		return
	}
	utils.LogDebug("Notification stream closed for user ID: %d", userID)
}
