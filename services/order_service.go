package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/repository"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
)

const (
	DefaultItemReturnWindow  = 15 * time.Minute
	DefaultOrderReturnWindow = 7 * 24 * time.Hour
)

// ActionContext identifies who is acting on an order and why.
type ActionContext struct {
	ActorID uint
	IsAdmin bool
	Reason  string
}

// ActionResult is returned by every order mutation.
type ActionResult struct {
	Success              bool          `json:"success"`
	Message              string        `json:"message"`
	Order                *models.Order `json:"-"`
	PreviousStatus       string        `json:"previous_status"`
	RefundAmount         float64       `json:"refund_amount"`
	WalletTransactionIDs []uint        `json:"wallet_transaction_ids,omitempty"`
	Diagnostics          []ItemFailure `json:"diagnostics,omitempty"`
}

func (r *ActionResult) addRefund(res *RefundResult) {
	if res == nil || !res.Success || res.RefundAmount <= 0 {
		return
	}
	r.RefundAmount = utils.RoundMoney(r.RefundAmount + res.RefundAmount)
	if res.WalletTransactionID != 0 {
		r.WalletTransactionIDs = append(r.WalletTransactionIDs, res.WalletTransactionID)
	}
}

// OrderServiceConfig carries the return windows. Zero values use the defaults.
type OrderServiceConfig struct {
	ItemReturnWindow  time.Duration
	OrderReturnWindow time.Duration
}

// OrderService drives the order lifecycle: status transitions, item
// cancellations and returns, and the refunds and coupon reallocation they
// trigger. Every mutation runs under the store's per-order lock.
type OrderService struct {
	store             repository.Store
	refunds           *RefundService
	notifier          Notifier
	itemReturnWindow  time.Duration
	orderReturnWindow time.Duration
	now               func() time.Time
}

func NewOrderService(store repository.Store, refunds *RefundService, notifier Notifier, cfg OrderServiceConfig) *OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.ItemReturnWindow <= 0 {
		cfg.ItemReturnWindow = DefaultItemReturnWindow
	}
	if cfg.OrderReturnWindow <= 0 {
		cfg.OrderReturnWindow = DefaultOrderReturnWindow
	}
	return &OrderService{
		store:             store,
		refunds:           refunds,
		notifier:          notifier,
		itemReturnWindow:  cfg.ItemReturnWindow,
		orderReturnWindow: cfg.OrderReturnWindow,
		now:               time.Now,
	}
}

func (s *OrderService) withOrder(ctx context.Context, orderID uint, fn func(tx repository.Tx, order *models.Order) error) error {
	err := s.store.WithOrder(ctx, orderID, fn)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	return err
}

// GetOrder returns the order if the actor may see it.
func (s *OrderService) GetOrder(ctx context.Context, orderID uint, actx ActionContext) (*models.Order, error) {
	order, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
		}
		return nil, err
	}
	if err := checkOwner(order, actx); err != nil {
		return nil, err
	}
	return order, nil
}

// ApplyTransition moves the order to target and runs the side effects of
// that status: a lump wallet refund on cancellation, per-item refunds on a
// completed return, and the delivery timestamp on delivery.
func (s *OrderService) ApplyTransition(ctx context.Context, orderID uint, target string, actx ActionContext) (*ActionResult, error) {
	utils.LogInfo("ApplyTransition called - Order ID: %d, Target: %s, Actor: %d", orderID, target, actx.ActorID)

	var result *ActionResult
	err := s.withOrder(ctx, orderID, func(tx repository.Tx, order *models.Order) error {
		prev := order.OrderStatus
		if !CanTransition(prev, target) {
			return fmt.Errorf("%w: order %d cannot move from %s to %s", ErrInvalidTransition, order.ID, prev, target)
		}
		if awaitingPayment(order) {
			return fmt.Errorf("%w: order %d is still awaiting online payment", ErrPaymentNotCompleted, order.ID)
		}

		res := &ActionResult{PreviousStatus: prev}
		now := s.now()
		switch target {
		case models.OrderStatusCancelled:
			if err := s.cancelWithLumpRefund(ctx, tx, order, reasonOr(actx.Reason, "Cancelled by admin"), res, now); err != nil {
				return err
			}
		case models.OrderStatusReturnCompleted:
			if err := s.completeReturn(ctx, tx, order, reasonOr(actx.Reason, order.ReturnReason, "Order returned"), res, now); err != nil {
				return err
			}
		case models.OrderStatusDelivered:
			order.DeliveryDate = &now
			if order.IsCOD() {
				order.PaymentStatus = models.PaymentStatusPaid
			}
		case models.OrderStatusReturnRequested:
			order.ReturnReason = reasonOr(actx.Reason, order.ReturnReason)
			order.ReturnRequestedAt = &now
		}

		order.OrderStatus = target
		if target != models.OrderStatusCancelled {
			applyCouponRecalculation(order)
		}
		if err := tx.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order %d: %w", order.ID, err)
		}

		res.Success = true
		res.Order = order
		res.Message = fmt.Sprintf("Order status updated from %s to %s", prev, target)
		result = res
		return nil
	})
	if err != nil {
		utils.LogError("Status transition failed - Order ID: %d, Target: %s: %v", orderID, target, err)
		return nil, err
	}

	utils.LogInfo("Order status updated - Order ID: %d, %s -> %s, Refund: %.2f, Diagnostics: %d",
		orderID, result.PreviousStatus, target, result.RefundAmount, len(result.Diagnostics))
	s.notifyOutcome(ctx, result.Order, result.RefundAmount, target)
	return result, nil
}

// awaitingPayment reports an online order whose payment never cleared and
// that nobody has acted on yet.
func awaitingPayment(order *models.Order) bool {
	if order.PaymentMethod != models.PaymentMethodOnline || order.IsPaid() {
		return false
	}
	if order.OrderStatus != models.OrderStatusPending {
		return false
	}
	for _, item := range order.Items {
		if (item.Status != "" && item.Status != models.ItemStatusActive) || item.ReturnStatus != "" || item.RefundStatus != "" {
			return false
		}
	}
	return true
}

// cancelWithLumpRefund restocks and cancels every active item, then credits
// the order total to the wallet in one entry when the order was paid online
// or by wallet.
func (s *OrderService) cancelWithLumpRefund(ctx context.Context, tx repository.Tx, order *models.Order, reason string, res *ActionResult, now time.Time) error {
	for i := range order.Items {
		item := &order.Items[i]
		if !item.IsActive() {
			continue
		}
		if err := restock(ctx, tx, item); err != nil {
			return err
		}
		item.Status = models.ItemStatusCancelled
		item.CancelReason = reasonOr(item.CancelReason, reason)
	}
	order.CancelReason = reason
	order.CancelledAt = &now

	if !order.IsCOD() && order.IsPaid() {
		refund, err := s.refunds.ProcessLumpRefund(ctx, tx, order, order.Total, reason)
		if err != nil {
			return err
		}
		res.addRefund(refund)
		if refund.Success {
			order.PaymentStatus = models.PaymentStatusRefunded
		}
	}

	order.CouponDiscount = 0
	recomputeTotals(order)
	return nil
}

// completeReturn restocks and refunds every remaining item of an order whose
// return was approved. Items that could not be refunded are reported in the
// diagnostics; a failed money movement aborts the whole return.
func (s *OrderService) completeReturn(ctx context.Context, tx repository.Tx, order *models.Order, reason string, res *ActionResult, now time.Time) error {
	for i := range order.Items {
		item := &order.Items[i]
		if !item.IsActive() {
			continue
		}
		if err := restock(ctx, tx, item); err != nil {
			return err
		}

		switch {
		case order.IsCOD():
			attributeCoupon(order, item)
			item.RefundAmount = 0
			item.RefundStatus = models.RefundStatusCompleted
			item.RefundDate = &now
		case !order.IsPaid():
			attributeCoupon(order, item)
			res.Diagnostics = append(res.Diagnostics, ItemFailure{ItemID: item.ID, Reason: "payment not completed, nothing to refund"})
		default:
			refund, err := s.refunds.ProcessItemRefund(ctx, tx, order, item, reason)
			switch {
			case IsValidationError(err):
				res.Diagnostics = append(res.Diagnostics, ItemFailure{ItemID: item.ID, Reason: err.Error()})
			case err != nil:
				return err
			case !refund.Success:
				res.Diagnostics = append(res.Diagnostics, ItemFailure{ItemID: item.ID, Reason: refund.Message})
			default:
				res.addRefund(refund)
			}
		}

		item.Status = models.ItemStatusReturned
		if item.ReturnStatus == "" || item.ReturnStatus == models.ReturnStatusPending {
			item.ReturnStatus = models.ReturnStatusApproved
		}
	}
	if res.RefundAmount > 0 {
		order.PaymentStatus = models.PaymentStatusRefunded
	}
	return nil
}

// CancelItem cancels one item of an order that has not shipped yet. A paid
// item is refunded with its share of the coupon; cancelling the last active
// item closes the order.
func (s *OrderService) CancelItem(ctx context.Context, orderID, itemID uint, actx ActionContext) (*ActionResult, error) {
	utils.LogInfo("CancelItem called - Order ID: %d, Item ID: %d, Actor: %d", orderID, itemID, actx.ActorID)
	reason := reasonOr(actx.Reason, "Item cancelled")

	var result *ActionResult
	err := s.withOrder(ctx, orderID, func(tx repository.Tx, order *models.Order) error {
		if err := checkOwner(order, actx); err != nil {
			return err
		}
		if order.OrderStatus != models.OrderStatusPending && order.OrderStatus != models.OrderStatusProcessing {
			return fmt.Errorf("%w: items can only be cancelled before shipping, order %d is %s", ErrInvalidTransition, order.ID, order.OrderStatus)
		}
		item := order.FindItem(itemID)
		if item == nil {
			return fmt.Errorf("%w: item %d in order %d", ErrItemNotFound, itemID, order.ID)
		}
		if item.Status == models.ItemStatusCancelled {
			return fmt.Errorf("%w: item %d is already cancelled", ErrInvalidItemState, item.ID)
		}
		if !item.IsActive() {
			return fmt.Errorf("%w: item %d is %s", ErrInvalidItemState, item.ID, item.Status)
		}
		if err := ValidateRefundInputs(order, item); err != nil {
			return err
		}

		res := &ActionResult{PreviousStatus: order.OrderStatus}
		now := s.now()
		if err := restock(ctx, tx, item); err != nil {
			return err
		}
		if order.IsCOD() || order.IsPaid() {
			refund, err := s.refunds.ProcessItemRefund(ctx, tx, order, item, reason)
			if err != nil {
				return err
			}
			if !refund.Success {
				attributeCoupon(order, item)
			}
			res.addRefund(refund)
		} else {
			attributeCoupon(order, item)
		}
		item.Status = models.ItemStatusCancelled
		item.CancelReason = reason

		if !hasActiveItems(order) {
			order.OrderStatus = models.OrderStatusCancelled
			order.CancelReason = reason
			order.CancelledAt = &now
			order.CouponDiscount = 0
			recomputeTotals(order)
			if order.OrderLevelRefund > 0 {
				order.PaymentStatus = models.PaymentStatusRefunded
			}
			utils.LogInfo("Last active item cancelled, order closed - Order ID: %d", order.ID)
		} else {
			applyCouponRecalculation(order)
		}

		if err := tx.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order %d: %w", order.ID, err)
		}
		res.Success = true
		res.Order = order
		res.Message = "Item cancelled successfully"
		result = res
		return nil
	})
	if err != nil {
		utils.LogError("Item cancellation failed - Order ID: %d, Item ID: %d: %v", orderID, itemID, err)
		return nil, err
	}

	utils.LogInfo("Item cancelled - Order ID: %d, Item ID: %d, Refund: %.2f", orderID, itemID, result.RefundAmount)
	s.notifyOutcome(ctx, result.Order, result.RefundAmount, models.ItemStatusCancelled)
	return result, nil
}

// RequestItemReturn opens a return for one delivered item. Only allowed
// within the item return window after delivery.
func (s *OrderService) RequestItemReturn(ctx context.Context, orderID, itemID uint, actx ActionContext) (*ActionResult, error) {
	utils.LogInfo("RequestItemReturn called - Order ID: %d, Item ID: %d, Actor: %d", orderID, itemID, actx.ActorID)

	var result *ActionResult
	err := s.withOrder(ctx, orderID, func(tx repository.Tx, order *models.Order) error {
		if err := checkOwner(order, actx); err != nil {
			return err
		}
		if order.OrderStatus != models.OrderStatusDelivered {
			return fmt.Errorf("%w: only delivered orders accept item returns, order %d is %s", ErrInvalidTransition, order.ID, order.OrderStatus)
		}
		item := order.FindItem(itemID)
		if item == nil {
			return fmt.Errorf("%w: item %d in order %d", ErrItemNotFound, itemID, order.ID)
		}
		if item.Status != models.ItemStatusActive && item.Status != "" {
			return fmt.Errorf("%w: item %d is %s", ErrInvalidItemState, item.ID, item.Status)
		}
		if err := s.checkReturnWindow(order, s.itemReturnWindow); err != nil {
			return err
		}

		item.Status = models.ItemStatusReturnRequested
		item.ReturnStatus = models.ReturnStatusPending
		item.ReturnReason = reasonOr(actx.Reason, "Item return requested")
		applyCouponRecalculation(order)
		if err := tx.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order %d: %w", order.ID, err)
		}
		result = &ActionResult{
			Success:        true,
			Message:        "Return request submitted",
			Order:          order,
			PreviousStatus: order.OrderStatus,
		}
		return nil
	})
	if err != nil {
		utils.LogError("Item return request failed - Order ID: %d, Item ID: %d: %v", orderID, itemID, err)
		return nil, err
	}
	utils.LogInfo("Item return requested - Order ID: %d, Item ID: %d", orderID, itemID)
	return result, nil
}

// ReviewItemReturn approves or rejects a pending item return. Approval
// restocks and refunds as one unit; a failed refund leaves the request
// pending. Rejection puts the item back to Delivered.
func (s *OrderService) ReviewItemReturn(ctx context.Context, orderID, itemID uint, approve bool, actx ActionContext) (*ActionResult, error) {
	utils.LogInfo("ReviewItemReturn called - Order ID: %d, Item ID: %d, Approve: %t", orderID, itemID, approve)

	var result *ActionResult
	err := s.withOrder(ctx, orderID, func(tx repository.Tx, order *models.Order) error {
		item := order.FindItem(itemID)
		if item == nil {
			return fmt.Errorf("%w: item %d in order %d", ErrItemNotFound, itemID, order.ID)
		}
		if item.ReturnStatus != models.ReturnStatusPending {
			return fmt.Errorf("%w: item %d has no pending return", ErrInvalidItemState, item.ID)
		}

		res := &ActionResult{PreviousStatus: order.OrderStatus}
		if approve {
			if err := ValidateRefundInputs(order, item); err != nil {
				return err
			}
			if err := restock(ctx, tx, item); err != nil {
				return err
			}
			reason := reasonOr(actx.Reason, item.ReturnReason, "Item returned")
			if order.IsCOD() || order.IsPaid() {
				refund, err := s.refunds.ProcessItemRefund(ctx, tx, order, item, reason)
				if err != nil {
					return err
				}
				if !refund.Success {
					attributeCoupon(order, item)
				}
				res.addRefund(refund)
			} else {
				attributeCoupon(order, item)
			}
			item.Status = models.ItemStatusReturned
			item.ReturnStatus = models.ReturnStatusApproved
			res.Message = "Return approved"
		} else {
			item.Status = models.ItemStatusDelivered
			item.ReturnStatus = models.ReturnStatusRejected
			item.ReturnRejectReason = reasonOr(actx.Reason, "Return rejected")
			res.Message = "Return rejected"
		}

		applyCouponRecalculation(order)
		if err := tx.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order %d: %w", order.ID, err)
		}
		res.Success = true
		res.Order = order
		result = res
		return nil
	})
	if err != nil {
		utils.LogError("Return review failed - Order ID: %d, Item ID: %d: %v", orderID, itemID, err)
		return nil, err
	}

	utils.LogInfo("Return reviewed - Order ID: %d, Item ID: %d, Approved: %t, Refund: %.2f", orderID, itemID, approve, result.RefundAmount)
	if result.RefundAmount > 0 {
		s.notifyOutcome(ctx, result.Order, result.RefundAmount, models.ItemStatusReturned)
	} else {
		s.notify(ctx, Event{
			Type:    EventReturnReviewed,
			UserID:  result.Order.UserID,
			OrderID: result.Order.ID,
			Message: result.Message,
		})
	}
	return result, nil
}

// CancelOrder is the customer's whole-order cancellation. Paid orders are
// refunded item by item so every item keeps its coupon share. Items whose
// refund fails stay active and the order keeps its status, so the
// cancellation can be retried for them. When no item could be refunded the
// whole cancellation is rolled back.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint, actx ActionContext) (*ActionResult, error) {
	utils.LogInfo("CancelOrder called - Order ID: %d, Actor: %d", orderID, actx.ActorID)
	reason := reasonOr(actx.Reason, "Cancelled by customer")

	var result *ActionResult
	err := s.withOrder(ctx, orderID, func(tx repository.Tx, order *models.Order) error {
		if err := checkOwner(order, actx); err != nil {
			return err
		}
		prev := order.OrderStatus
		if !CanTransition(prev, models.OrderStatusCancelled) {
			return fmt.Errorf("%w: order %d cannot be cancelled while %s", ErrInvalidTransition, order.ID, prev)
		}

		res := &ActionResult{PreviousStatus: prev}
		now := s.now()
		failed := make(map[uint]bool)
		if !order.IsCOD() && order.IsPaid() {
			refund, err := s.refunds.ProcessOrderRefund(ctx, tx, order, RefundReasonCancellation)
			if err != nil {
				return err
			}
			if len(refund.Failures) > 0 && refund.ItemsProcessed == 0 {
				return fmt.Errorf("%w: %d item refund(s) failed and none succeeded for order %d",
					ErrRefundDispatchFailure, len(refund.Failures), order.ID)
			}
			res.RefundAmount = refund.TotalRefund
			res.WalletTransactionIDs = refund.WalletTransactionIDs
			res.Diagnostics = refund.Failures
			for _, f := range refund.Failures {
				failed[f.ItemID] = true
			}
			if refund.Success && len(failed) == 0 {
				order.PaymentStatus = models.PaymentStatusRefunded
			}
		} else {
			for i := range order.Items {
				if order.Items[i].IsActive() {
					attributeCoupon(order, &order.Items[i])
				}
			}
		}

		for i := range order.Items {
			item := &order.Items[i]
			if !item.IsActive() || failed[item.ID] {
				continue
			}
			if err := restock(ctx, tx, item); err != nil {
				return err
			}
			item.Status = models.ItemStatusCancelled
			item.CancelReason = reason
		}

		if len(failed) > 0 {
			applyCouponRecalculation(order)
			res.Message = fmt.Sprintf("Order partially cancelled, %d item(s) could not be refunded and remain active", len(failed))
		} else {
			order.OrderStatus = models.OrderStatusCancelled
			order.CancelReason = reason
			order.CancelledAt = &now
			order.CouponDiscount = 0
			recomputeTotals(order)
			res.Success = true
			res.Message = "Order cancelled successfully"
		}

		if err := tx.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order %d: %w", order.ID, err)
		}
		res.Order = order
		result = res
		return nil
	})
	if err != nil {
		utils.LogError("Order cancellation failed - Order ID: %d: %v", orderID, err)
		return nil, err
	}

	if result.Success {
		utils.LogInfo("Order cancelled - Order ID: %d, Refund: %.2f, Failures: %d", orderID, result.RefundAmount, len(result.Diagnostics))
	} else {
		utils.LogError("Order partially cancelled - Order ID: %d, Refund: %.2f, Failures: %d", orderID, result.RefundAmount, len(result.Diagnostics))
	}
	s.notifyOutcome(ctx, result.Order, result.RefundAmount, result.Order.OrderStatus)
	return result, nil
}

// RequestReturn asks for the whole order to be returned. Only allowed within
// the order return window after delivery.
func (s *OrderService) RequestReturn(ctx context.Context, orderID uint, actx ActionContext) (*ActionResult, error) {
	utils.LogInfo("RequestReturn called - Order ID: %d, Actor: %d", orderID, actx.ActorID)

	var result *ActionResult
	err := s.withOrder(ctx, orderID, func(tx repository.Tx, order *models.Order) error {
		if err := checkOwner(order, actx); err != nil {
			return err
		}
		prev := order.OrderStatus
		if !CanTransition(prev, models.OrderStatusReturnRequested) {
			return fmt.Errorf("%w: order %d cannot be returned while %s", ErrInvalidTransition, order.ID, prev)
		}
		if err := s.checkReturnWindow(order, s.orderReturnWindow); err != nil {
			return err
		}

		now := s.now()
		order.OrderStatus = models.OrderStatusReturnRequested
		order.ReturnReason = reasonOr(actx.Reason, "Order return requested")
		order.ReturnRequestedAt = &now
		applyCouponRecalculation(order)
		if err := tx.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order %d: %w", order.ID, err)
		}
		result = &ActionResult{
			Success:        true,
			Message:        "Return request submitted",
			Order:          order,
			PreviousStatus: prev,
		}
		return nil
	})
	if err != nil {
		utils.LogError("Order return request failed - Order ID: %d: %v", orderID, err)
		return nil, err
	}
	utils.LogInfo("Order return requested - Order ID: %d", orderID)
	return result, nil
}

// RecalculateCoupon reallocates the coupon over the active items and
// persists the result.
func (s *OrderService) RecalculateCoupon(ctx context.Context, orderID uint) (*CouponRecalculation, error) {
	var out CouponRecalculation
	err := s.withOrder(ctx, orderID, func(tx repository.Tx, order *models.Order) error {
		out = applyCouponRecalculation(order)
		return tx.SaveOrder(ctx, order)
	})
	if err != nil {
		utils.LogError("Coupon recalculation failed - Order ID: %d: %v", orderID, err)
		return nil, err
	}
	utils.LogInfo("Coupon recalculated - Order ID: %d, %.2f -> %.2f", orderID, out.PreviousDiscount, out.NewCouponDiscount)
	return &out, nil
}

// ItemRefundPreview is the refund an item would receive if cancelled now.
type ItemRefundPreview struct {
	ItemID    uint            `json:"item_id"`
	Name      string          `json:"name"`
	Breakdown RefundBreakdown `json:"breakdown"`
}

// RefundPreview shows what a cancellation or return would pay out.
type RefundPreview struct {
	OrderID      uint                `json:"order_id"`
	Reason       string              `json:"reason"`
	RefundAmount float64             `json:"refund_amount"`
	Refundable   bool                `json:"refundable"`
	Items        []ItemRefundPreview `json:"items"`
}

// PreviewRefund computes the whole-order and per-item refunds without
// changing anything.
func (s *OrderService) PreviewRefund(ctx context.Context, orderID uint, reason string, actx ActionContext) (*RefundPreview, error) {
	order, err := s.GetOrder(ctx, orderID, actx)
	if err != nil {
		return nil, err
	}
	reason = reasonOr(reason, RefundReasonCancellation)
	preview := &RefundPreview{
		OrderID:      order.ID,
		Reason:       reason,
		RefundAmount: CalculateOrderRefund(order, reason),
		Refundable:   !order.IsCOD() && order.IsPaid(),
		Items:        []ItemRefundPreview{},
	}
	for i := range order.Items {
		item := &order.Items[i]
		if !item.IsActive() {
			continue
		}
		preview.Items = append(preview.Items, ItemRefundPreview{
			ItemID:    item.ID,
			Name:      item.Name,
			Breakdown: CalculateItemRefund(order, item),
		})
	}
	return preview, nil
}

func (s *OrderService) checkReturnWindow(order *models.Order, window time.Duration) error {
	if order.DeliveryDate == nil {
		return fmt.Errorf("%w: order %d has no delivery date", ErrInvalidItemState, order.ID)
	}
	elapsed := s.now().Sub(*order.DeliveryDate)
	if elapsed > window {
		return fmt.Errorf("%w: return window of %s has expired, %.0f minutes elapsed since delivery",
			ErrReturnWindowExpired, formatWindow(window), elapsed.Minutes())
	}
	return nil
}

func formatWindow(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%d days", int(d/(24*time.Hour)))
	}
	return fmt.Sprintf("%.0f minutes", d.Minutes())
}

func (s *OrderService) notifyOutcome(ctx context.Context, order *models.Order, refund float64, status string) {
	if order == nil {
		return
	}
	if refund > 0 {
		s.notify(ctx, Event{
			Type:    EventRefundCredited,
			UserID:  order.UserID,
			OrderID: order.ID,
			Amount:  refund,
			Message: fmt.Sprintf("A refund of %s has been issued for order #%d", utils.FormatMoney(refund), order.ID),
		})
		return
	}
	if order.OrderStatus == models.OrderStatusCancelled {
		s.notify(ctx, Event{
			Type:    EventOrderCancelled,
			UserID:  order.UserID,
			OrderID: order.ID,
			Message: fmt.Sprintf("Order #%d was cancelled (%s)", order.ID, status),
		})
	}
}

func (s *OrderService) notify(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = s.now()
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		utils.LogError("Notification failed - Type: %s, User ID: %d, Order ID: %d: %v", event.Type, event.UserID, event.OrderID, err)
	}
}

func checkOwner(order *models.Order, actx ActionContext) error {
	if actx.IsAdmin || order.UserID == actx.ActorID {
		return nil
	}
	return fmt.Errorf("%w: order %d, user %d", ErrForbidden, order.ID, actx.ActorID)
}

func restock(ctx context.Context, tx repository.Tx, item *models.OrderItem) error {
	if err := tx.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
		return fmt.Errorf("restock product %d for item %d: %w", item.ProductID, item.ID, err)
	}
	utils.LogDebug("Restocked product %d by %d", item.ProductID, item.Quantity)
	return nil
}

func hasActiveItems(order *models.Order) bool {
	for i := range order.Items {
		if order.Items[i].IsActive() {
			return true
		}
	}
	return false
}

func reasonOr(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
