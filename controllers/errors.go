package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/middleware"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/services"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gin-gonic/gin"
)

// toAppError maps order engine errors onto HTTP statuses.
func toAppError(err error) *utils.AppError {
	switch {
	case services.IsValidationError(err):
		return utils.BadRequestError("Invalid order data", err)
	case errors.Is(err, services.ErrInvalidTransition):
		return utils.BadRequestError("Action not allowed for the current order status", err)
	case errors.Is(err, services.ErrInvalidItemState):
		return utils.BadRequestError("Action not allowed for the current item status", err)
	case errors.Is(err, services.ErrReturnWindowExpired):
		return utils.BadRequestError("Return window has expired", err)
	case errors.Is(err, services.ErrPaymentNotCompleted):
		return utils.ConflictError("Payment has not been completed for this order", err)
	case errors.Is(err, services.ErrOrderNotFound):
		return utils.NotFoundError("Order not found", err)
	case errors.Is(err, services.ErrItemNotFound):
		return utils.NotFoundError("Order item not found", err)
	case errors.Is(err, services.ErrForbidden):
		return utils.ForbiddenError("You are not authorized to access this order", nil)
	case errors.Is(err, services.ErrRefundDispatchFailure):
		return utils.NewAppError(http.StatusInternalServerError, "Refund could not be processed, no changes were made", err)
	}
	return utils.NewAppError(http.StatusInternalServerError, "Something went wrong, please try again", err)
}

func respondError(c *gin.Context, err error) {
	utils.RespondWithError(c, toAppError(err))
}

func actionContext(c *gin.Context, reason string) services.ActionContext {
	return services.ActionContext{
		ActorID: c.GetUint(middleware.ContextUserID),
		IsAdmin: c.GetBool(middleware.ContextIsAdmin),
		Reason:  reason,
	}
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		utils.LogError("Invalid %s format: %s", param, c.Param(param))
		utils.BadRequest(c, "Invalid "+param, nil)
		return 0, false
	}
	return uint(id), true
}

// reasonRequest is the optional body of cancel and return calls.
type reasonRequest struct {
	Reason string `json:"reason"`
}

func bindReason(c *gin.Context) string {
	var req reasonRequest
	if c.Request.ContentLength == 0 {
		return ""
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogDebug("Ignoring unreadable reason body: %v", err)
		return ""
	}
	return req.Reason
}
