package controllers

import (
	"strings"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/services"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gin-gonic/gin"
)

// AdminOrderController serves the admin side of the order lifecycle.
type AdminOrderController struct {
	orders *services.OrderService
}

func NewAdminOrderController(orders *services.OrderService) *AdminOrderController {
	return &AdminOrderController{orders: orders}
}

// ListStatuses returns every order status and its allowed next statuses
func (ctl *AdminOrderController) ListStatuses(c *gin.Context) {
	utils.LogInfo("ListStatuses called")
	transitions := make(map[string][]string)
	for _, status := range services.OrderStatuses() {
		transitions[status] = services.GetAvailableStatuses(status)
	}
	utils.Success(c, "Order statuses retrieved successfully", gin.H{
		"statuses":    services.OrderStatuses(),
		"transitions": transitions,
	})
}

// AvailableStatuses returns the statuses an order may move to next
func (ctl *AdminOrderController) AvailableStatuses(c *gin.Context) {
	utils.LogInfo("AvailableStatuses called")
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
	utils.Success(c, "Available statuses retrieved successfully", gin.H{
		"order_id":           order.ID,
		"current_status":     order.OrderStatus,
		"available_statuses": services.GetAvailableStatuses(order.OrderStatus),
		"terminal":           services.IsTerminalStatus(order.OrderStatus),
	})
}

// GetOrder returns any order
func (ctl *AdminOrderController) GetOrder(c *gin.Context) {
	utils.LogInfo("AdminGetOrder called")
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

// UpdateStatus moves an order to a new status and runs its side effects
func (ctl *AdminOrderController) UpdateStatus(c *gin.Context) {
	utils.LogInfo("AdminUpdateOrderStatus called")
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid status in request: %v", err)
		utils.BadRequest(c, "Status is required", nil)
		return
	}

	target, found := canonicalStatus(req.Status)
	if !found {
		utils.LogError("Unknown status requested - Order ID: %d, Status: %s", orderID, req.Status)
		utils.BadRequest(c, "Invalid status value", gin.H{"valid_statuses": services.OrderStatuses()})
		return
	}
	utils.LogDebug("Requested status update - Order ID: %d, Status: %s", orderID, target)

	res, err := ctl.orders.ApplyTransition(c.Request.Context(), orderID, target, actionContext(c, req.Reason))
	if err != nil {
		utils.LogError("Status update failed - Order ID: %d: %v", orderID, err)
		respondError(c, err)
		return
	}
	utils.Success(c, res.Message, toActionResponse(res))
}

func canonicalStatus(s string) (string, bool) {
	for _, status := range services.OrderStatuses() {
		if strings.EqualFold(status, strings.TrimSpace(s)) {
			return status, true
		}
	}
	return "", false
}

// Review actions
const (
	ReviewActionApprove = "approve"
	ReviewActionReject  = "reject"
)

// ReviewItemReturn approves or rejects a pending item return
func (ctl *AdminOrderController) ReviewItemReturn(c *gin.Context) {
	utils.LogInfo("ReviewItemReturn called")
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action" binding:"required,oneof=approve reject"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid review request - Order ID: %d, Item ID: %d: %v", orderID, itemID, err)
		utils.BadRequest(c, "Action must be approve or reject", nil)
		return
	}
	if req.Action == ReviewActionReject && strings.TrimSpace(req.Reason) == "" {
		utils.BadRequest(c, "Reason is required when rejecting a return", nil)
		return
	}

	res, err := ctl.orders.ReviewItemReturn(c.Request.Context(), orderID, itemID, req.Action == ReviewActionApprove, actionContext(c, req.Reason))
	if err != nil {
		utils.LogError("Return review failed - Order ID: %d, Item ID: %d: %v", orderID, itemID, err)
		respondError(c, err)
		return
	}
	utils.Success(c, res.Message, toActionResponse(res))
}

// RecalculateCoupon re-derives the coupon discount of the order's active items
func (ctl *AdminOrderController) RecalculateCoupon(c *gin.Context) {
	utils.LogInfo("RecalculateCoupon called")
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	recalc, err := ctl.orders.RecalculateCoupon(c.Request.Context(), orderID)
	if err != nil {
		utils.LogError("Coupon recalculation failed - Order ID: %d: %v", orderID, err)
		respondError(c, err)
		return
	}
	utils.Success(c, "Coupon discount recalculated", recalc)
}
