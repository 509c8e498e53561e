package services

import (
	"context"
	"fmt"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	razorpay "github.com/razorpay/razorpay-go"
)

// PaymentGateway reverses a captured payment. Amounts are in minor units.
type PaymentGateway interface {
	Refund(ctx context.Context, paymentID string, amountMinor int64) (string, error)
}

// RazorpayGateway issues refunds through the Razorpay payments API.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(key, secret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(key, secret)}
}

func (g *RazorpayGateway) Refund(_ context.Context, paymentID string, amountMinor int64) (string, error) {
	utils.LogInfo("Creating Razorpay refund - Payment ID: %s, Amount: %d paise", paymentID, amountMinor)
	data := map[string]interface{}{
		"speed": "normal",
	}
	resp, err := g.client.Payment.Refund(paymentID, int(amountMinor), data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay refund for payment %s: %w", paymentID, err)
	}
	id, ok := resp["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay refund for payment %s: response without id", paymentID)
	}
	utils.LogInfo("Razorpay refund created - Payment ID: %s, Refund ID: %s", paymentID, id)
	return id, nil
}
