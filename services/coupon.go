package services

import (
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/shopspring/decimal"
)

// CouponRecalculation is the coupon discount that still applies to the
// order's active items.
type CouponRecalculation struct {
	NewCouponDiscount  float64 `json:"new_coupon_discount"`
	PreviousDiscount   float64 `json:"previous_discount"`
	TotalCouponAmount  float64 `json:"total_coupon_amount"`
	ActiveItemsTotal   float64 `json:"active_items_total"`
	OriginalOrderValue float64 `json:"original_order_value"`
}

// RecalculateOrderCoupon applies the original coupon rate, measured against
// the full order value, to the active items. It does not modify order.
func RecalculateOrderCoupon(order *models.Order) CouponRecalculation {
	totalValue := orderValue(order.Items, false)
	active := orderValue(order.Items, true)

	out := CouponRecalculation{
		PreviousDiscount:   order.CouponDiscount,
		ActiveItemsTotal:   money(active),
		OriginalOrderValue: money(totalValue),
	}
	if !totalValue.IsPositive() || !active.IsPositive() {
		return out
	}

	totalCoupon := totalCouponAmount(order, totalValue)
	discount := totalCoupon.Mul(active).Div(totalValue)
	discount = decimal.Min(decimal.Max(decimal.Zero, discount), active)

	out.TotalCouponAmount = money(totalCoupon)
	out.NewCouponDiscount = money(discount)
	return out
}

// ensureCouponBaseline records the full-order coupon amount before the first
// reallocation so later recomputations start from the same baseline.
func ensureCouponBaseline(order *models.Order) {
	if order.TotalCoupon > 0 {
		return
	}
	totalValue := orderValue(order.Items, false)
	if !totalValue.IsPositive() {
		return
	}
	if baseline := money(totalCouponAmount(order, totalValue)); baseline > 0 {
		order.TotalCoupon = baseline
	}
}

func applyCouponRecalculation(order *models.Order) CouponRecalculation {
	ensureCouponBaseline(order)
	result := RecalculateOrderCoupon(order)
	if result.NewCouponDiscount != order.CouponDiscount {
		utils.LogDebug("Coupon discount reallocated - Order ID: %d, %.2f -> %.2f",
			order.ID, order.CouponDiscount, result.NewCouponDiscount)
	}
	order.CouponDiscount = result.NewCouponDiscount
	recomputeTotals(order)
	return result
}

// attributeCoupon stamps the item's coupon share without moving money. Items
// already attributed keep their recorded share.
func attributeCoupon(order *models.Order, item *models.OrderItem) RefundBreakdown {
	ensureCouponBaseline(order)
	b := CalculateItemRefund(order, item)
	if item.ItemCouponDiscount == nil {
		share := b.ItemCouponDiscount
		item.ItemCouponDiscount = &share
		item.CouponRatio = b.CouponRatio
	}
	return b
}

// recomputeTotals derives order.Total from the active items. The delivery
// charge is dropped once nothing is left to deliver.
func recomputeTotals(order *models.Order) {
	active := orderValue(order.Items, true)
	if !active.IsPositive() {
		order.Total = 0
		return
	}
	net := decimal.Max(decimal.Zero, active.Sub(decimal.NewFromFloat(order.CouponDiscount)))
	order.Total = money(net.Add(decimal.NewFromFloat(order.DeliveryCharge)))
}
