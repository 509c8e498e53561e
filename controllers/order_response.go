package controllers

import (
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/services"
)

type OrderItemResponse struct {
	ID                 uint     `json:"id"`
	ProductID          uint     `json:"product_id"`
	Name               string   `json:"name"`
	Price              float64  `json:"price"`
	Quantity           int      `json:"quantity"`
	Total              float64  `json:"total"`
	Status             string   `json:"status"`
	ReturnStatus       string   `json:"return_status,omitempty"`
	RefundAmount       float64  `json:"refund_amount"`
	RefundStatus       string   `json:"refund_status,omitempty"`
	ItemCouponDiscount *float64 `json:"item_coupon_discount,omitempty"`
}

type OrderResponse struct {
	ID                uint                `json:"id"`
	Status            string              `json:"status"`
	PaymentMethod     string              `json:"payment_method"`
	PaymentStatus     string              `json:"payment_status"`
	CouponCode        string              `json:"coupon_code,omitempty"`
	CouponDiscount    float64             `json:"coupon_discount"`
	DeliveryCharge    float64             `json:"delivery_charge"`
	Total             float64             `json:"total"`
	WalletRefund      float64             `json:"wallet_refund"`
	DeliveryDate      *time.Time          `json:"delivery_date,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	AvailableStatuses []string            `json:"available_statuses"`
	Items             []OrderItemResponse `json:"items"`
}

type ActionResponse struct {
	Result *services.ActionResult `json:"result"`
	Order  *OrderResponse         `json:"order,omitempty"`
}

func toOrderResponse(order *models.Order) *OrderResponse {
	if order == nil {
		return nil
	}
	resp := &OrderResponse{
		ID:                order.ID,
		Status:            order.OrderStatus,
		PaymentMethod:     order.PaymentMethod,
		PaymentStatus:     order.PaymentStatus,
		CouponCode:        order.AppliedCoupon.Code,
		CouponDiscount:    order.CouponDiscount,
		DeliveryCharge:    order.DeliveryCharge,
		Total:             order.Total,
		WalletRefund:      order.WalletRefund,
		DeliveryDate:      order.DeliveryDate,
		CreatedAt:         order.CreatedAt,
		AvailableStatuses: services.GetAvailableStatuses(order.OrderStatus),
		Items:             make([]OrderItemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			Name:               item.Name,
			Price:              item.Price,
			Quantity:           item.Quantity,
			Total:              item.LineTotal(),
			Status:             item.Status,
			ReturnStatus:       item.ReturnStatus,
			RefundAmount:       item.RefundAmount,
			RefundStatus:       item.RefundStatus,
			ItemCouponDiscount: item.ItemCouponDiscount,
		})
	}
	return resp
}

func toActionResponse(res *services.ActionResult) ActionResponse {
	return ActionResponse{Result: res, Order: toOrderResponse(res.Order)}
}
