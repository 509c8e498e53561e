package models

import (
	"time"
)

// Order status constants
const (
	OrderStatusPending         = "Pending"
	OrderStatusProcessing      = "Processing"
	OrderStatusShipped         = "Shipped"
	OrderStatusDelivered       = "Delivered"
	OrderStatusReturnRequested = "Return Requested"
	OrderStatusReturnApproved  = "Return Approved"
	OrderStatusReturnRejected  = "Return Rejected"
	OrderStatusReturnCompleted = "Return Completed"
	OrderStatusCancelled       = "Cancelled"
)

// Order item status constants
const (
	ItemStatusActive          = "Active"
	ItemStatusCancelled       = "Cancelled"
	ItemStatusReturnRequested = "Return Requested"
	ItemStatusReturnApproved  = "Return Approved"
	ItemStatusReturned        = "Returned"
	ItemStatusReturnCompleted = "Return Completed"
	ItemStatusDelivered       = "Delivered"
)

// Return status constants
const (
	ReturnStatusPending  = "Pending"
	ReturnStatusApproved = "Approved"
	ReturnStatusRejected = "Rejected"
)

// Payment method constants
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
	PaymentMethodWallet = "wallet"
)

// Payment status constants
const (
	PaymentStatusPending   = "Pending"
	PaymentStatusPaid      = "Paid"
	PaymentStatusCompleted = "Completed"
	PaymentStatusFailed    = "Failed"
	PaymentStatusRefunded  = "Refunded"
)

// Refund status constants
const (
	RefundStatusPending       = "Pending"
	RefundStatusCompleted     = "Completed"
	RefundStatusFailed        = "Failed"
	RefundStatusNotApplicable = "Not Applicable"
)

// Refund transaction types
const (
	RefundTypeWallet   = "Wallet"
	RefundTypeRazorpay = "Razorpay"
)

// AppliedCoupon is the coupon rule snapshot taken at checkout. An empty Code
// means no coupon was applied.
type AppliedCoupon struct {
	Code          string  `json:"code"`
	DiscountType  string  `json:"discount_type"` // "percentage" or "flat"
	DiscountValue float64 `json:"discount_value"`
	MaxDiscount   float64 `json:"max_discount"`
}

// Coupon discount types
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFlat       = "flat"
)

type Order struct {
	ID                 uint                `gorm:"primaryKey" json:"id"`
	UserID             uint                `json:"user_id" gorm:"index;not null"`
	OrderStatus        string              `json:"order_status" gorm:"column:status;default:Pending"`
	PaymentMethod      string              `json:"payment_method"`
	PaymentStatus      string              `json:"payment_status" gorm:"default:Pending"`
	PaymentID          string              `json:"payment_id,omitempty"` // gateway payment reference
	OfferDiscount      float64             `json:"offer_discount"`
	CouponDiscount     float64             `json:"coupon_discount"`
	AppliedCoupon      AppliedCoupon       `json:"applied_coupon" gorm:"embedded;embeddedPrefix:coupon_"`
	TotalCoupon        float64             `json:"total_coupon"` // original full-order coupon amount, 0 when unknown
	DeliveryCharge     float64             `json:"delivery_charge"`
	Total              float64             `json:"total"`
	WalletRefund       float64             `json:"wallet_refund"`
	OrderLevelRefund   float64             `json:"order_level_refund"`
	CancelReason       string              `json:"cancel_reason,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	ReturnReason       string              `json:"return_reason,omitempty"`
	ReturnRequestedAt  *time.Time          `json:"return_requested_at,omitempty"`
	DeliveryDate       *time.Time          `json:"delivery_date,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	Items              []OrderItem         `json:"items" gorm:"foreignKey:OrderID"`
	RefundTransactions []RefundTransaction `json:"refund_transactions" gorm:"foreignKey:OrderID"`
}

// HasCoupon reports whether a coupon rule snapshot is attached to the order.
func (o *Order) HasCoupon() bool {
	return o.AppliedCoupon.Code != ""
}

// IsCOD reports whether the order is cash on delivery.
func (o *Order) IsCOD() bool {
	return o.PaymentMethod == PaymentMethodCOD
}

// IsPaid reports whether money was actually collected for the order.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid || o.PaymentStatus == PaymentStatusCompleted
}

// FindItem returns a pointer into o.Items so callers can mutate the item in place.
func (o *Order) FindItem(itemID uint) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

type OrderItem struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	OrderID            uint       `json:"order_id" gorm:"index"`
	ProductID          uint       `json:"product_id"`
	Name               string     `json:"name"`
	Price              float64    `json:"price"` // unit price after offers, before coupon
	Quantity           int        `json:"quantity"`
	Status             string     `json:"status" gorm:"default:Active"`
	CancelReason       string     `json:"cancel_reason,omitempty"`
	ReturnStatus       string     `json:"return_status,omitempty"`
	ReturnReason       string     `json:"return_reason,omitempty"`
	ReturnRejectReason string     `json:"return_reject_reason,omitempty"`
	RefundAmount       float64    `json:"refund_amount"`
	RefundStatus       string     `json:"refund_status,omitempty"`
	RefundDate         *time.Time `json:"refund_date,omitempty"`
	ItemCouponDiscount *float64   `json:"item_coupon_discount,omitempty"`
	CouponRatio        float64    `json:"coupon_ratio"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// LineTotal is price * quantity.
func (i *OrderItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// IsActive reports whether the item still counts toward the order total.
// Items without a status are treated as active.
func (i *OrderItem) IsActive() bool {
	return i.Status != ItemStatusCancelled &&
		i.Status != ItemStatusReturned &&
		i.Status != ItemStatusReturnCompleted
}

// RefundTransaction is one entry of the append-only refund log of an order.
type RefundTransaction struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	OrderID          uint      `json:"order_id" gorm:"index"`
	Type             string    `json:"type"` // Wallet, Razorpay
	Amount           float64   `json:"amount"`
	Reason           string    `json:"reason"`
	OrderItemID      *uint     `json:"order_item_id,omitempty"`
	ExternalRefundID string    `json:"external_refund_id,omitempty"`
	WalletTxnRefs    string    `json:"wallet_transaction_refs,omitempty"` // comma separated wallet transaction ids
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}
