package services

import (
	"fmt"
	"math"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/shopspring/decimal"
)

// RefundReasonCancellation makes CalculateOrderRefund count every item.
const RefundReasonCancellation = "Cancellation"

var hundred = decimal.NewFromInt(100)

// RefundBreakdown is the coupon attribution and refund due for one item.
type RefundBreakdown struct {
	ItemTotal               float64 `json:"item_total"`
	ItemCouponDiscount      float64 `json:"item_coupon_discount"`
	RefundAmount            float64 `json:"refund_amount"`
	CouponRatio             float64 `json:"coupon_ratio"`
	RemainingCouponDiscount float64 `json:"remaining_coupon_discount"`
	TotalCouponAmount       float64 `json:"total_coupon_amount"`
	TotalOrderValue         float64 `json:"total_order_value"`
	// Error is set when the calculation could not be completed and the
	// breakdown fell back to a full refund with no coupon attribution.
	Error string `json:"error,omitempty"`
}

// CalculateItemRefund attributes the order's coupon to item in proportion to
// its share of the full order value and returns the refund due. It never
// fails: on any computation fault it returns a full refund of the item total.
func CalculateItemRefund(order *models.Order, item *models.OrderItem) (b RefundBreakdown) {
	defer func() {
		if r := recover(); r != nil {
			b = fallbackBreakdown(order, item, fmt.Errorf("%v", r))
		}
	}()

	itemTotal := lineTotal(item)
	totalOrderValue := orderValue(order.Items, false)
	if !totalOrderValue.IsPositive() {
		return fallbackBreakdown(order, item, fmt.Errorf("order %d has no value", order.ID))
	}

	totalCoupon := totalCouponAmount(order, totalOrderValue)
	share := itemTotal.Mul(totalCoupon).Div(totalOrderValue).Round(2)
	if share.GreaterThan(itemTotal) {
		share = itemTotal
	}
	if share.IsNegative() {
		share = decimal.Zero
	}

	refund := decimal.Max(decimal.Zero, itemTotal.Sub(share))
	ratio := decimal.Zero
	if itemTotal.IsPositive() {
		ratio = share.Div(itemTotal)
	}
	remaining := decimal.Max(decimal.Zero, decimal.NewFromFloat(order.CouponDiscount).Sub(share))

	return RefundBreakdown{
		ItemTotal:               money(itemTotal),
		ItemCouponDiscount:      money(share),
		RefundAmount:            money(refund),
		CouponRatio:             ratio.Round(4).InexactFloat64(),
		RemainingCouponDiscount: money(remaining),
		TotalCouponAmount:       money(totalCoupon),
		TotalOrderValue:         money(totalOrderValue),
	}
}

func fallbackBreakdown(order *models.Order, item *models.OrderItem, cause error) RefundBreakdown {
	utils.LogError("Refund calculation fell back to full refund - Order ID: %d, Item ID: %d: %v", order.ID, item.ID, cause)
	itemTotal := math.Round(item.Price*float64(item.Quantity)*100) / 100
	return RefundBreakdown{
		ItemTotal:               itemTotal,
		RefundAmount:            itemTotal,
		RemainingCouponDiscount: order.CouponDiscount,
		Error:                   cause.Error(),
	}
}

// totalCouponAmount resolves the full-order coupon baseline, in priority
// order: the recorded original amount, the coupon rule, the rate implied by
// items already attributed, and finally the current order discount.
func totalCouponAmount(order *models.Order, totalOrderValue decimal.Decimal) decimal.Decimal {
	if order.TotalCoupon > 0 {
		return decimal.NewFromFloat(order.TotalCoupon)
	}

	if order.HasCoupon() {
		c := order.AppliedCoupon
		value := decimal.NewFromFloat(c.DiscountValue)
		if c.DiscountType == models.DiscountTypePercentage {
			amount := totalOrderValue.Mul(value).Div(hundred)
			if c.MaxDiscount > 0 {
				amount = decimal.Min(amount, decimal.NewFromFloat(c.MaxDiscount))
			}
			return amount
		}
		return value
	}

	attributed, attributedValue := decimal.Zero, decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		if item.ItemCouponDiscount == nil {
			continue
		}
		attributed = attributed.Add(decimal.NewFromFloat(*item.ItemCouponDiscount))
		attributedValue = attributedValue.Add(lineTotal(item))
	}
	if attributedValue.IsPositive() {
		return attributed.Div(attributedValue).Mul(totalOrderValue)
	}

	return decimal.NewFromFloat(order.CouponDiscount)
}

// CalculateOrderRefund returns the whole-order refund: the value of the
// eligible items less the offer and coupon discounts, taken once.
func CalculateOrderRefund(order *models.Order, reason string) float64 {
	sum := decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		if reason != RefundReasonCancellation && item.Status != models.ItemStatusActive {
			continue
		}
		sum = sum.Add(lineTotal(item))
	}
	sum = sum.Sub(decimal.NewFromFloat(order.OfferDiscount)).
		Sub(decimal.NewFromFloat(order.CouponDiscount))
	return money(decimal.Max(decimal.Zero, sum))
}

func lineTotal(item *models.OrderItem) decimal.Decimal {
	return decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func orderValue(items []models.OrderItem, activeOnly bool) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		if activeOnly && !items[i].IsActive() {
			continue
		}
		total = total.Add(lineTotal(&items[i]))
	}
	return total
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
