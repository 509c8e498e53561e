package controllers

import (
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/services"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gin-gonic/gin"
)

// OrderController serves the customer side of the order lifecycle.
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// GetOrder returns an order with the statuses it may move to next
func (ctl *OrderController) GetOrder(c *gin.Context) {
	utils.LogInfo("GetOrder called")
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := ctl.orders.GetOrder(c.Request.Context(), orderID, actionContext(c, ""))
	if err != nil {
		utils.LogError("Failed to load order - Order ID: %d: %v", orderID, err)
		respondError(c, err)
		return
	}
	utils.Success(c, "Order retrieved successfully", toOrderResponse(order))
}

// RefundPreview shows what cancelling the order now would refund
func (ctl *OrderController) RefundPreview(c *gin.Context) {
	utils.LogInfo("RefundPreview called")
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	preview, err := ctl.orders.PreviewRefund(c.Request.Context(), orderID, c.Query("reason"), actionContext(c, ""))
	if err != nil {
		utils.LogError("Failed to preview refund - Order ID: %d: %v", orderID, err)
		respondError(c, err)
		return
	}
	utils.Success(c, "Refund preview calculated", preview)
}

// CancelOrder cancels every active item of the order and refunds them
func (ctl *OrderController) CancelOrder(c *gin.Context) {
	utils.LogInfo("CancelOrder called")
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actx := actionContext(c, bindReason(c))
	utils.LogDebug("Cancelling order - Order ID: %d, User ID: %d", orderID, actx.ActorID)

	res, err := ctl.orders.CancelOrder(c.Request.Context(), orderID, actx)
	if err != nil {
		utils.LogError("Order cancellation failed - Order ID: %d: %v", orderID, err)
		respondError(c, err)
		return
	}
	utils.Success(c, res.Message, toActionResponse(res))
}

// CancelItem cancels a single item of a pending or processing order
func (ctl *OrderController) CancelItem(c *gin.Context) {
	utils.LogInfo("CancelItem called")
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}
	actx := actionContext(c, bindReason(c))
	utils.LogDebug("Cancelling item - Order ID: %d, Item ID: %d", orderID, itemID)

	res, err := ctl.orders.CancelItem(c.Request.Context(), orderID, itemID, actx)
	if err != nil {
		utils.LogError("Item cancellation failed - Order ID: %d, Item ID: %d: %v", orderID, itemID, err)
		respondError(c, err)
		return
	}
	utils.Success(c, res.Message, toActionResponse(res))
}

// RequestItemReturn asks for a single delivered item to be returned
func (ctl *OrderController) RequestItemReturn(c *gin.Context) {
	utils.LogInfo("RequestItemReturn called")
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	res, err := ctl.orders.RequestItemReturn(c.Request.Context(), orderID, itemID, actionContext(c, bindReason(c)))
	if err != nil {
		utils.LogError("Item return request failed - Order ID: %d, Item ID: %d: %v", orderID, itemID, err)
		respondError(c, err)
		return
	}
	utils.Success(c, res.Message, toActionResponse(res))
}

// RequestReturn asks for the whole delivered order to be returned
func (ctl *OrderController) RequestReturn(c *gin.Context) {
	utils.LogInfo("RequestReturn called")
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	res, err := ctl.orders.RequestReturn(c.Request.Context(), orderID, actionContext(c, bindReason(c)))
	if err != nil {
		utils.LogError("Order return request failed - Order ID: %d: %v", orderID, err)
		respondError(c, err)
		return
	}
	utils.Success(c, res.Message, toActionResponse(res))
}
