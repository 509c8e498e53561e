package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/repository"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
)

// RefundPolicy selects where non-COD refunds are sent.
type RefundPolicy string

const (
	// RefundPolicyWallet credits every non-COD refund to the user's wallet.
	RefundPolicyWallet RefundPolicy = "wallet"
	// RefundPolicyGateway reverses online payments through the gateway when
	// a payment reference is known, and falls back to the wallet otherwise.
	RefundPolicyGateway RefundPolicy = "gateway"
)

// Refund methods reported in results.
const (
	RefundMethodWallet  = "wallet"
	RefundMethodGateway = "gateway"
	RefundMethodNone    = "none"
)

// RefundResult is the outcome of a single refund dispatch.
type RefundResult struct {
	Success             bool            `json:"success"`
	Message             string          `json:"message"`
	RefundAmount        float64         `json:"refund_amount"`
	Method              string          `json:"method"`
	WalletTransactionID uint            `json:"wallet_transaction_id,omitempty"`
	ExternalRefundID    string          `json:"external_refund_id,omitempty"`
	WalletBalance       float64         `json:"wallet_balance,omitempty"`
	Breakdown           RefundBreakdown `json:"breakdown"`
}

// ItemFailure records an item whose refund could not be dispatched during a
// whole-order refund.
type ItemFailure struct {
	ItemID uint   `json:"item_id"`
	Reason string `json:"reason"`
}

// OrderRefundResult aggregates a whole-order refund.
type OrderRefundResult struct {
	Success              bool          `json:"success"`
	Message              string        `json:"message"`
	TotalRefund          float64       `json:"total_refund"`
	ItemsProcessed       int           `json:"items_processed"`
	WalletTransactionIDs []uint        `json:"wallet_transaction_ids,omitempty"`
	Failures             []ItemFailure `json:"failures,omitempty"`
}

// RefundService moves refunded money back to the customer and keeps the
// order's refund bookkeeping in step.
type RefundService struct {
	gateway PaymentGateway
	policy  RefundPolicy
	now     func() time.Time
}

// NewRefundService builds a dispatcher. gateway may be nil, in which case the
// gateway policy behaves like the wallet policy.
func NewRefundService(gateway PaymentGateway, policy RefundPolicy) *RefundService {
	if policy == "" {
		policy = RefundPolicyWallet
	}
	return &RefundService{gateway: gateway, policy: policy, now: time.Now}
}

// ValidateRefundInputs checks the order and item shape before any refund work.
func ValidateRefundInputs(order *models.Order, item *models.OrderItem) error {
	if order == nil || order.ID == 0 {
		return invalid("order.id", "order id is required")
	}
	if len(order.Items) == 0 {
		return invalid("order.items", "order %d has no items", order.ID)
	}
	if item == nil {
		return nil
	}
	if item.ID == 0 {
		return invalid("item.id", "item id is required")
	}
	if math.IsNaN(item.Price) || math.IsInf(item.Price, 0) || item.Price < 0 {
		return invalid("item.price", "item %d has invalid price %v", item.ID, item.Price)
	}
	if item.Quantity <= 0 {
		return invalid("item.quantity", "item %d has invalid quantity %d", item.ID, item.Quantity)
	}
	return nil
}

// ProcessItemRefund refunds one item, records a refund transaction and
// persists the order. A refund that would move nothing is reported with
// Success false and no mutation. Dispatch failures are returned wrapped in
// ErrRefundDispatchFailure; the caller's transaction must then roll back.
func (s *RefundService) ProcessItemRefund(ctx context.Context, tx repository.Tx, order *models.Order, item *models.OrderItem, reason string) (*RefundResult, error) {
	utils.LogInfo("Processing item refund - Order ID: %d, Item ID: %d, Reason: %s", order.ID, item.ID, reason)
	if err := ValidateRefundInputs(order, item); err != nil {
		utils.LogError("Refund validation failed - Order ID: %d: %v", order.ID, err)
		return nil, err
	}

	result, err := s.refundItem(ctx, tx, order, item, reason)
	if err != nil || !result.Success {
		return result, err
	}

	if result.RefundAmount > 0 {
		order.RefundTransactions = append(order.RefundTransactions, s.transactionFor(order, result, reason, &item.ID))
	}
	if err := tx.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("save order %d after item refund: %w", order.ID, err)
	}
	utils.LogInfo("Item refund completed - Order ID: %d, Item ID: %d, Amount: %.2f, Method: %s",
		order.ID, item.ID, result.RefundAmount, result.Method)
	return result, nil
}

// refundItem computes and dispatches one item's refund and stamps the item
// and order counters. It does not persist or append to the refund log.
func (s *RefundService) refundItem(ctx context.Context, tx repository.Tx, order *models.Order, item *models.OrderItem, reason string) (*RefundResult, error) {
	if item.RefundStatus == models.RefundStatusCompleted {
		utils.LogDebug("Item already refunded - Order ID: %d, Item ID: %d", order.ID, item.ID)
		return &RefundResult{Message: "Item has already been refunded", Method: RefundMethodNone}, nil
	}

	ensureCouponBaseline(order)
	b := CalculateItemRefund(order, item)
	if b.RefundAmount <= 0 {
		utils.LogDebug("Nothing to refund - Order ID: %d, Item ID: %d, Coupon share: %.2f", order.ID, item.ID, b.ItemCouponDiscount)
		return &RefundResult{
			Message:   "No refundable amount for this item",
			Method:    RefundMethodNone,
			Breakdown: b,
		}, nil
	}

	now := s.now()
	result := &RefundResult{Success: true, Breakdown: b}

	switch {
	case order.IsCOD():
		// Cash was never collected online: only the coupon bookkeeping moves.
		s.stampItem(order, item, b, 0, models.RefundStatusNotApplicable, now)
		result.Method = RefundMethodNone
		result.Message = "Cash on delivery order, no refund required"
		return result, nil

	case s.policy == RefundPolicyGateway && s.gateway != nil &&
		order.PaymentMethod == models.PaymentMethodOnline && order.PaymentID != "":
		refundID, err := s.gateway.Refund(ctx, order.PaymentID, utils.ToMinorUnits(b.RefundAmount))
		if err != nil {
			utils.LogError("Gateway refund failed - Order ID: %d, Item ID: %d: %v", order.ID, item.ID, err)
			return nil, fmt.Errorf("%w: gateway refund for item %d: %v", ErrRefundDispatchFailure, item.ID, err)
		}
		result.Method = RefundMethodGateway
		result.ExternalRefundID = refundID
		result.Message = "Refund initiated to original payment method"

	default:
		entry := &models.WalletTransaction{
			Amount:         b.RefundAmount,
			Type:           models.TransactionTypeRefund,
			Description:    itemRefundDescription(item, b, reason),
			OrderID:        &order.ID,
			Reference:      fmt.Sprintf("REFUND-ORDER-%d-ITEM-%d", order.ID, item.ID),
			Status:         models.TransactionStatusCompleted,
			OriginalAmount: b.ItemTotal,
			CouponDiscount: b.ItemCouponDiscount,
			CouponRatio:    b.CouponRatio,
		}
		balance, err := tx.CreditWallet(ctx, order.UserID, entry)
		if err != nil {
			utils.LogError("Wallet credit failed - Order ID: %d, Item ID: %d: %v", order.ID, item.ID, err)
			return nil, fmt.Errorf("%w: wallet credit for item %d: %v", ErrRefundDispatchFailure, item.ID, err)
		}
		result.Method = RefundMethodWallet
		result.WalletTransactionID = entry.ID
		result.WalletBalance = balance
		result.Message = "Refund credited to wallet"
		order.WalletRefund = utils.RoundMoney(order.WalletRefund + b.RefundAmount)
	}

	s.stampItem(order, item, b, b.RefundAmount, models.RefundStatusCompleted, now)
	order.OrderLevelRefund = utils.RoundMoney(order.OrderLevelRefund + b.RefundAmount)
	result.RefundAmount = b.RefundAmount
	return result, nil
}

func (s *RefundService) stampItem(order *models.Order, item *models.OrderItem, b RefundBreakdown, amount float64, status string, at time.Time) {
	share := b.ItemCouponDiscount
	item.RefundAmount = amount
	item.ItemCouponDiscount = &share
	item.CouponRatio = b.CouponRatio
	item.RefundStatus = status
	item.RefundDate = &at
	order.CouponDiscount = b.RemainingCouponDiscount
}

func (s *RefundService) transactionFor(order *models.Order, result *RefundResult, reason string, itemID *uint) models.RefundTransaction {
	rt := models.RefundTransaction{
		OrderID:          order.ID,
		Type:             models.RefundTypeWallet,
		Amount:           result.RefundAmount,
		Reason:           reason,
		OrderItemID:      itemID,
		ExternalRefundID: result.ExternalRefundID,
		Status:           models.RefundStatusCompleted,
	}
	if result.Method == RefundMethodGateway {
		rt.Type = models.RefundTypeRazorpay
	}
	if result.WalletTransactionID != 0 {
		rt.WalletTxnRefs = strconv.FormatUint(uint64(result.WalletTransactionID), 10)
	}
	return rt
}

func itemRefundDescription(item *models.OrderItem, b RefundBreakdown, reason string) string {
	desc := fmt.Sprintf("Refund for %s (item #%d): %s", item.Name, item.ID, reason)
	if b.ItemCouponDiscount > 0 {
		desc += fmt.Sprintf(" (item total %.2f, coupon share %.2f, ratio %.2f%%)",
			b.ItemTotal, b.ItemCouponDiscount, b.CouponRatio*100)
	}
	return desc
}

// ProcessOrderRefund refunds every active item individually, so each keeps
// its own coupon share, then records one consolidated refund transaction and
// zeroes the order's coupon discount. Item failures are collected and do not
// stop the remaining items.
func (s *RefundService) ProcessOrderRefund(ctx context.Context, tx repository.Tx, order *models.Order, reason string) (*OrderRefundResult, error) {
	utils.LogInfo("Processing order refund - Order ID: %d, Reason: %s", order.ID, reason)
	if err := ValidateRefundInputs(order, nil); err != nil {
		utils.LogError("Refund validation failed - Order ID: %d: %v", order.ID, err)
		return nil, err
	}

	out := &OrderRefundResult{}
	var walletRefs, externalRefs []string
	method := RefundMethodWallet
	for i := range order.Items {
		item := &order.Items[i]
		if item.Status != models.ItemStatusActive && item.Status != "" {
			continue
		}
		if err := ValidateRefundInputs(order, item); err != nil {
			out.Failures = append(out.Failures, ItemFailure{ItemID: item.ID, Reason: err.Error()})
			continue
		}
		savepoint := fmt.Sprintf("refund_item_%d", item.ID)
		if err := tx.SavePoint(ctx, savepoint); err != nil {
			logIssuedGatewayRefunds(order.ID, externalRefs)
			return nil, fmt.Errorf("%w: %v", ErrRefundDispatchFailure, err)
		}
		res, err := s.refundItem(ctx, tx, order, item, reason)
		if err != nil {
			utils.LogError("Item refund failed during order refund - Order ID: %d, Item ID: %d: %v", order.ID, item.ID, err)
			out.Failures = append(out.Failures, ItemFailure{ItemID: item.ID, Reason: err.Error()})
			if rbErr := tx.RollbackTo(ctx, savepoint); rbErr != nil {
				logIssuedGatewayRefunds(order.ID, externalRefs)
				return nil, fmt.Errorf("%w: %v", ErrRefundDispatchFailure, rbErr)
			}
			continue
		}
		if !res.Success || res.RefundAmount <= 0 {
			continue
		}
		out.ItemsProcessed++
		out.TotalRefund = utils.RoundMoney(out.TotalRefund + res.RefundAmount)
		if res.WalletTransactionID != 0 {
			out.WalletTransactionIDs = append(out.WalletTransactionIDs, res.WalletTransactionID)
			walletRefs = append(walletRefs, strconv.FormatUint(uint64(res.WalletTransactionID), 10))
		}
		if res.ExternalRefundID != "" {
			method = RefundMethodGateway
			externalRefs = append(externalRefs, res.ExternalRefundID)
		}
	}

	order.CouponDiscount = 0
	if out.TotalRefund <= 0 {
		out.Message = "No refundable items found"
		utils.LogError("Order refund produced nothing - Order ID: %d, Failures: %d", order.ID, len(out.Failures))
		return out, nil
	}

	rt := models.RefundTransaction{
		OrderID:          order.ID,
		Type:             models.RefundTypeWallet,
		Amount:           out.TotalRefund,
		Reason:           reason,
		WalletTxnRefs:    strings.Join(walletRefs, ","),
		ExternalRefundID: strings.Join(externalRefs, ","),
		Status:           models.RefundStatusCompleted,
	}
	if method == RefundMethodGateway {
		rt.Type = models.RefundTypeRazorpay
	}
	order.RefundTransactions = append(order.RefundTransactions, rt)
	if err := tx.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("save order %d after order refund: %w", order.ID, err)
	}

	out.Success = true
	out.Message = fmt.Sprintf("Refunded %d item(s)", out.ItemsProcessed)
	utils.LogInfo("Order refund completed - Order ID: %d, Total: %.2f, Items: %d, Failures: %d",
		order.ID, out.TotalRefund, out.ItemsProcessed, len(out.Failures))
	return out, nil
}

// logIssuedGatewayRefunds records external refunds that already left the
// gateway when the surrounding transaction can no longer be committed.
func logIssuedGatewayRefunds(orderID uint, refs []string) {
	if len(refs) == 0 {
		return
	}
	utils.LogError("Gateway refunds issued before transaction abort - Order ID: %d, Refs: %s", orderID, strings.Join(refs, ","))
}

// ProcessLumpRefund credits amount to the user's wallet as a single entry for
// the whole order.
func (s *RefundService) ProcessLumpRefund(ctx context.Context, tx repository.Tx, order *models.Order, amount float64, reason string) (*RefundResult, error) {
	amount = utils.RoundMoney(amount)
	if amount <= 0 {
		return &RefundResult{Message: "No refundable amount", Method: RefundMethodNone}, nil
	}
	utils.LogInfo("Processing lump refund - Order ID: %d, Amount: %.2f", order.ID, amount)

	entry := &models.WalletTransaction{
		Amount:         amount,
		Type:           models.TransactionTypeRefund,
		Description:    fmt.Sprintf("Refund for order #%d: %s", order.ID, reason),
		OrderID:        &order.ID,
		Reference:      fmt.Sprintf("REFUND-ORDER-%d", order.ID),
		Status:         models.TransactionStatusCompleted,
		OriginalAmount: amount,
	}
	balance, err := tx.CreditWallet(ctx, order.UserID, entry)
	if err != nil {
		utils.LogError("Wallet credit failed - Order ID: %d: %v", order.ID, err)
		return nil, fmt.Errorf("%w: wallet credit for order %d: %v", ErrRefundDispatchFailure, order.ID, err)
	}

	result := &RefundResult{
		Success:             true,
		Message:             "Order total credited to wallet",
		RefundAmount:        amount,
		Method:              RefundMethodWallet,
		WalletTransactionID: entry.ID,
		WalletBalance:       balance,
	}
	order.WalletRefund = utils.RoundMoney(order.WalletRefund + amount)
	order.OrderLevelRefund = utils.RoundMoney(order.OrderLevelRefund + amount)
	order.RefundTransactions = append(order.RefundTransactions, s.transactionFor(order, result, reason, nil))
	if err := tx.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("save order %d after lump refund: %w", order.ID, err)
	}
	return result, nil
}
