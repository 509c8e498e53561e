package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	customer = ActionContext{ActorID: testUserID, Reason: "Changed my mind"}
	admin    = ActionContext{ActorID: 1, IsAdmin: true}
)

func TestGetAvailableStatuses(t *testing.T) {
	assert.Equal(t, []string{models.OrderStatusProcessing, models.OrderStatusCancelled}, GetAvailableStatuses(models.OrderStatusPending))
	assert.Equal(t, []string{models.OrderStatusReturnApproved, models.OrderStatusReturnRejected}, GetAvailableStatuses(models.OrderStatusReturnRequested))
	assert.Empty(t, GetAvailableStatuses(models.OrderStatusCancelled))
	assert.Empty(t, GetAvailableStatuses("Lost"))

	statuses := GetAvailableStatuses(models.OrderStatusPending)
	statuses[0] = models.OrderStatusDelivered
	assert.Equal(t, models.OrderStatusProcessing, GetAvailableStatuses(models.OrderStatusPending)[0])

	assert.True(t, IsTerminalStatus(models.OrderStatusReturnCompleted))
	assert.False(t, IsTerminalStatus(models.OrderStatusShipped))
}

func TestApplyTransitionRejectsIllegalTransitions(t *testing.T) {
	store := newTestStore(t)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)
	ctx := context.Background()

	for _, from := range OrderStatuses() {
		order := seedOrder(t, store, from, models.PaymentMethodWallet, models.PaymentStatusPaid)
		for _, to := range OrderStatuses() {
			if CanTransition(from, to) {
				continue
			}
			_, err := svc.ApplyTransition(ctx, order.ID, to, admin)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
			assert.Equal(t, from, reload(t, store, order.ID).OrderStatus)
		}
	}
}

func TestApplyTransitionUnknownOrder(t *testing.T) {
	store := newTestStore(t)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	_, err := svc.ApplyTransition(context.Background(), 999, models.OrderStatusProcessing, admin)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestApplyTransitionBlocksUnpaidOnlineOrder(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusPending, models.PaymentMethodOnline, models.PaymentStatusPending)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	_, err := svc.ApplyTransition(context.Background(), order.ID, models.OrderStatusProcessing, admin)
	require.ErrorIs(t, err, ErrPaymentNotCompleted)
	assert.Equal(t, models.OrderStatusPending, reload(t, store, order.ID).OrderStatus)
}

func TestApplyTransitionCancelCreditsOrderTotalOnce(t *testing.T) {
	store := newTestStore(t)
	order := store.CreateOrder(models.Order{
		UserID:        testUserID,
		OrderStatus:   models.OrderStatusPending,
		PaymentMethod: models.PaymentMethodOnline,
		PaymentStatus: models.PaymentStatusPaid,
		Total:         700,
		Items: []models.OrderItem{
			{ProductID: productA, Price: 300, Quantity: 1},
			{ProductID: productB, Price: 200, Quantity: 2},
		},
	})
	notifier := &recordingNotifier{}
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), notifier)
	ctx := context.Background()

	result, err := svc.ApplyTransition(ctx, order.ID, models.OrderStatusCancelled, ActionContext{ActorID: 1, IsAdmin: true, Reason: "Kitchen closed"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 700.0, result.RefundAmount)
	assert.Equal(t, models.OrderStatusPending, result.PreviousStatus)

	assert.Equal(t, initialStock+1, stockOf(t, store, productA))
	assert.Equal(t, initialStock+2, stockOf(t, store, productB))
	assert.Equal(t, 700.0, walletBalance(t, store, testUserID))

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.OrderStatusCancelled, saved.OrderStatus)
	assert.Equal(t, models.PaymentStatusRefunded, saved.PaymentStatus)
	assert.Equal(t, "Kitchen closed", saved.CancelReason)
	assert.NotNil(t, saved.CancelledAt)
	assert.Equal(t, 0.0, saved.Total)
	assert.Len(t, saved.RefundTransactions, 1)
	for _, item := range saved.Items {
		assert.Equal(t, models.ItemStatusCancelled, item.Status)
	}

	_, err = svc.ApplyTransition(ctx, order.ID, models.OrderStatusCancelled, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 700.0, walletBalance(t, store, testUserID))
	assert.Equal(t, initialStock+1, stockOf(t, store, productA))

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventRefundCredited, events[0].Type)
	assert.Equal(t, 700.0, events[0].Amount)
}

func TestApplyTransitionCancelCashOnDeliveryMovesNoMoney(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusProcessing, models.PaymentMethodCOD, models.PaymentStatusPending)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	result, err := svc.ApplyTransition(context.Background(), order.ID, models.OrderStatusCancelled, admin)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.RefundAmount)
	assert.Equal(t, 0.0, walletBalance(t, store, testUserID))

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.PaymentStatusPending, saved.PaymentStatus)
	assert.Equal(t, 0.0, saved.CouponDiscount)
	assert.Equal(t, initialStock+1, stockOf(t, store, productC))
}

func TestApplyTransitionDelivered(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusShipped, models.PaymentMethodCOD, models.PaymentStatusPending)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	_, err := svc.ApplyTransition(context.Background(), order.ID, models.OrderStatusDelivered, admin)
	require.NoError(t, err)

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.OrderStatusDelivered, saved.OrderStatus)
	require.NotNil(t, saved.DeliveryDate)
	assert.True(t, saved.DeliveryDate.Equal(testNow))
	assert.Equal(t, models.PaymentStatusPaid, saved.PaymentStatus)
}

func TestApplyTransitionReturnCompletedRefundsEveryItem(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusReturnApproved, models.PaymentMethodWallet, models.PaymentStatusPaid)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	result, err := svc.ApplyTransition(context.Background(), order.ID, models.OrderStatusReturnCompleted, admin)
	require.NoError(t, err)
	assert.Equal(t, 720.0, result.RefundAmount)
	assert.Len(t, result.WalletTransactionIDs, 3)
	assert.Empty(t, result.Diagnostics)
	assert.Equal(t, 720.0, walletBalance(t, store, testUserID))

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.OrderStatusReturnCompleted, saved.OrderStatus)
	assert.Equal(t, models.PaymentStatusRefunded, saved.PaymentStatus)
	assert.Equal(t, 0.0, saved.CouponDiscount)
	assert.Equal(t, 0.0, saved.Total)
	for _, item := range saved.Items {
		assert.Equal(t, models.ItemStatusReturned, item.Status)
		assert.Equal(t, models.ReturnStatusApproved, item.ReturnStatus)
	}
	assert.Equal(t, initialStock+2, stockOf(t, store, productB))
}

func TestApplyTransitionReturnCompletedCashOnDelivery(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusReturnApproved, models.PaymentMethodCOD, models.PaymentStatusPaid)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	result, err := svc.ApplyTransition(context.Background(), order.ID, models.OrderStatusReturnCompleted, admin)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.RefundAmount)
	assert.Equal(t, 0.0, walletBalance(t, store, testUserID))

	for _, item := range reload(t, store, order.ID).Items {
		assert.Equal(t, models.RefundStatusCompleted, item.RefundStatus)
		assert.Equal(t, 0.0, item.RefundAmount)
		assert.Equal(t, initialStock+item.Quantity, stockOf(t, store, item.ProductID))
	}
}

func TestApplyTransitionReturnCompletedReportsUnrefundedItems(t *testing.T) {
	store := newTestStore(t)
	order := store.CreateOrder(models.Order{
		UserID:        testUserID,
		OrderStatus:   models.OrderStatusReturnApproved,
		PaymentMethod: models.PaymentMethodWallet,
		PaymentStatus: models.PaymentStatusPaid,
		Items: []models.OrderItem{
			{ProductID: productA, Price: 50, Quantity: 0},
			{ProductID: productB, Price: 350, Quantity: 1},
		},
	})
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	result, err := svc.ApplyTransition(context.Background(), order.ID, models.OrderStatusReturnCompleted, admin)
	require.NoError(t, err)
	assert.Equal(t, 350.0, result.RefundAmount)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, order.Items[0].ID, result.Diagnostics[0].ItemID)
}

func TestCancelItemRefundsShareAndReallocatesCoupon(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusProcessing, models.PaymentMethodWallet, models.PaymentStatusPaid)
	notifier := &recordingNotifier{}
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), notifier)
	ctx := context.Background()

	result, err := svc.CancelItem(ctx, order.ID, order.Items[0].ID, customer)
	require.NoError(t, err)
	assert.Equal(t, 270.0, result.RefundAmount)

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.ItemStatusCancelled, saved.Items[0].Status)
	assert.Equal(t, "Changed my mind", saved.Items[0].CancelReason)
	assert.Equal(t, 50.0, saved.CouponDiscount)
	assert.Equal(t, 450.0, saved.Total)
	assert.Equal(t, models.OrderStatusProcessing, saved.OrderStatus)
	assert.Equal(t, initialStock+1, stockOf(t, store, productA))

	_, err = svc.CancelItem(ctx, order.ID, order.Items[0].ID, customer)
	assert.ErrorIs(t, err, ErrInvalidItemState)

	_, err = svc.CancelItem(ctx, order.ID, order.Items[1].ID, customer)
	require.NoError(t, err)
	_, err = svc.CancelItem(ctx, order.ID, order.Items[2].ID, customer)
	require.NoError(t, err)

	saved = reload(t, store, order.ID)
	assert.Equal(t, models.OrderStatusCancelled, saved.OrderStatus)
	assert.Equal(t, models.PaymentStatusRefunded, saved.PaymentStatus)
	assert.Equal(t, 0.0, saved.CouponDiscount)
	assert.Equal(t, 0.0, saved.Total)
	assert.Equal(t, 720.0, saved.OrderLevelRefund)
	assert.Equal(t, 720.0, walletBalance(t, store, testUserID))

	events := notifier.Events()
	require.Len(t, events, 3)
	assert.Equal(t, 270.0, events[0].Amount)
}

func TestCancelItemGuards(t *testing.T) {
	store := newTestStore(t)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)
	ctx := context.Background()

	shipped := seedOrder(t, store, models.OrderStatusShipped, models.PaymentMethodWallet, models.PaymentStatusPaid)
	_, err := svc.CancelItem(ctx, shipped.ID, shipped.Items[0].ID, customer)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	pending := seedOrder(t, store, models.OrderStatusPending, models.PaymentMethodWallet, models.PaymentStatusPaid)
	_, err = svc.CancelItem(ctx, pending.ID, pending.Items[0].ID, ActionContext{ActorID: otherUserID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CancelItem(ctx, pending.ID, 9999, customer)
	assert.ErrorIs(t, err, ErrItemNotFound)

	assert.Equal(t, initialStock, stockOf(t, store, productA))
	assert.Equal(t, 0.0, walletBalance(t, store, testUserID))
}

func TestCancelItemOnUnpaidOrderRefundsNothing(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusPending, models.PaymentMethodOnline, models.PaymentStatusPending)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	result, err := svc.CancelItem(context.Background(), order.ID, order.Items[0].ID, customer)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.RefundAmount)
	assert.Equal(t, 0.0, walletBalance(t, store, testUserID))

	saved := reload(t, store, order.ID)
	assert.Equal(t, 50.0, saved.CouponDiscount)
	require.NotNil(t, saved.Items[0].ItemCouponDiscount)
	assert.Equal(t, 30.0, *saved.Items[0].ItemCouponDiscount)
	assert.Empty(t, saved.RefundTransactions)
}

func TestConcurrentItemCancellationsKeepTotalsConsistent(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusProcessing, models.PaymentMethodWallet, models.PaymentStatusPaid)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CancelItem(context.Background(), order.ID, order.Items[i].ID, customer)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	saved := reload(t, store, order.ID)
	assert.Equal(t, 10.0, saved.CouponDiscount)
	assert.Equal(t, 90.0, saved.Total)
	assert.Equal(t, 630.0, saved.OrderLevelRefund)
	assert.Equal(t, 630.0, walletBalance(t, store, testUserID))
	assert.Len(t, saved.RefundTransactions, 2)
}

func deliveredOrder(t *testing.T, store *repository.MemoryStore, deliveredAgo time.Duration) *models.Order {
	t.Helper()
	delivered := testNow.Add(-deliveredAgo)
	return store.CreateOrder(models.Order{
		UserID:         testUserID,
		OrderStatus:    models.OrderStatusDelivered,
		PaymentMethod:  models.PaymentMethodWallet,
		PaymentStatus:  models.PaymentStatusPaid,
		TotalCoupon:    80,
		CouponDiscount: 80,
		Total:          720,
		DeliveryDate:   &delivered,
		Items:          sampleItems(),
	})
}

func TestReturnWindows(t *testing.T) {
	store := newTestStore(t)
	order := deliveredOrder(t, store, 20*time.Minute)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)
	ctx := context.Background()

	_, err := svc.RequestItemReturn(ctx, order.ID, order.Items[0].ID, customer)
	require.ErrorIs(t, err, ErrReturnWindowExpired)
	assert.Contains(t, err.Error(), "15 minutes")
	assert.Equal(t, models.ItemStatusActive, reload(t, store, order.ID).Items[0].Status)

	result, err := svc.RequestReturn(ctx, order.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, result.PreviousStatus)

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.OrderStatusReturnRequested, saved.OrderStatus)
	assert.Equal(t, "Changed my mind", saved.ReturnReason)
	assert.NotNil(t, saved.ReturnRequestedAt)

	late := deliveredOrder(t, store, 8*24*time.Hour)
	_, err = svc.RequestReturn(ctx, late.ID, customer)
	require.ErrorIs(t, err, ErrReturnWindowExpired)
	assert.Contains(t, err.Error(), "7 days")
}

func TestReviewItemReturnApprove(t *testing.T) {
	store := newTestStore(t)
	order := deliveredOrder(t, store, 5*time.Minute)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)
	ctx := context.Background()
	itemID := order.Items[0].ID

	_, err := svc.RequestItemReturn(ctx, order.ID, itemID, customer)
	require.NoError(t, err)
	saved := reload(t, store, order.ID)
	assert.Equal(t, models.ItemStatusReturnRequested, saved.Items[0].Status)
	assert.Equal(t, models.ReturnStatusPending, saved.Items[0].ReturnStatus)

	result, err := svc.ReviewItemReturn(ctx, order.ID, itemID, true, admin)
	require.NoError(t, err)
	assert.Equal(t, 270.0, result.RefundAmount)

	saved = reload(t, store, order.ID)
	assert.Equal(t, models.ItemStatusReturned, saved.Items[0].Status)
	assert.Equal(t, models.ReturnStatusApproved, saved.Items[0].ReturnStatus)
	assert.Equal(t, 50.0, saved.CouponDiscount)
	assert.Equal(t, 450.0, saved.Total)
	assert.Equal(t, initialStock+1, stockOf(t, store, productA))
	assert.Equal(t, 270.0, walletBalance(t, store, testUserID))

	_, err = svc.ReviewItemReturn(ctx, order.ID, itemID, true, admin)
	assert.ErrorIs(t, err, ErrInvalidItemState)
	assert.Equal(t, 270.0, walletBalance(t, store, testUserID))
}

func TestReviewItemReturnReject(t *testing.T) {
	store := newTestStore(t)
	order := deliveredOrder(t, store, 5*time.Minute)
	notifier := &recordingNotifier{}
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), notifier)
	ctx := context.Background()
	itemID := order.Items[1].ID

	_, err := svc.RequestItemReturn(ctx, order.ID, itemID, customer)
	require.NoError(t, err)

	_, err = svc.ReviewItemReturn(ctx, order.ID, itemID, false, ActionContext{ActorID: 1, IsAdmin: true, Reason: "Item was consumed"})
	require.NoError(t, err)

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.ItemStatusDelivered, saved.Items[1].Status)
	assert.Equal(t, models.ReturnStatusRejected, saved.Items[1].ReturnStatus)
	assert.Equal(t, "Item was consumed", saved.Items[1].ReturnRejectReason)
	assert.Equal(t, 80.0, saved.CouponDiscount)
	assert.Equal(t, initialStock, stockOf(t, store, productB))

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventReturnReviewed, events[0].Type)
}

func TestReviewItemReturnRollsBackWhenRefundFails(t *testing.T) {
	store := newTestStore(t)
	delivered := testNow.Add(-5 * time.Minute)
	order := store.CreateOrder(models.Order{
		UserID:         testUserID,
		OrderStatus:    models.OrderStatusDelivered,
		PaymentMethod:  models.PaymentMethodOnline,
		PaymentStatus:  models.PaymentStatusPaid,
		PaymentID:      "pay_9",
		TotalCoupon:    80,
		CouponDiscount: 80,
		DeliveryDate:   &delivered,
		Items:          sampleItems(),
	})
	refunds := NewRefundService(&fakeGateway{err: errors.New("timeout")}, RefundPolicyGateway)
	svc := newTestOrderService(store, refunds, nil)
	ctx := context.Background()
	itemID := order.Items[0].ID

	_, err := svc.RequestItemReturn(ctx, order.ID, itemID, customer)
	require.NoError(t, err)

	_, err = svc.ReviewItemReturn(ctx, order.ID, itemID, true, admin)
	require.ErrorIs(t, err, ErrRefundDispatchFailure)

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.ItemStatusReturnRequested, saved.Items[0].Status)
	assert.Equal(t, models.ReturnStatusPending, saved.Items[0].ReturnStatus)
	assert.Equal(t, 80.0, saved.CouponDiscount)
	assert.Equal(t, initialStock, stockOf(t, store, productA))
}

func TestCancelOrderRefundsPerItem(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusPending, models.PaymentMethodWallet, models.PaymentStatusPaid)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)
	ctx := context.Background()

	result, err := svc.CancelOrder(ctx, order.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, 720.0, result.RefundAmount)
	assert.Len(t, result.WalletTransactionIDs, 3)

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.OrderStatusCancelled, saved.OrderStatus)
	assert.Equal(t, models.PaymentStatusRefunded, saved.PaymentStatus)
	assert.Equal(t, 0.0, saved.CouponDiscount)
	assert.Equal(t, 0.0, saved.Total)
	require.Len(t, saved.RefundTransactions, 1)
	for _, item := range saved.Items {
		assert.Equal(t, models.ItemStatusCancelled, item.Status)
		assert.Equal(t, initialStock+item.Quantity, stockOf(t, store, item.ProductID))
	}

	_, err = svc.CancelOrder(ctx, order.ID, customer)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 720.0, walletBalance(t, store, testUserID))
}

func seedOnlineOrder(t *testing.T, store *repository.MemoryStore) *models.Order {
	t.Helper()
	return store.CreateOrder(models.Order{
		UserID:         testUserID,
		OrderStatus:    models.OrderStatusPending,
		PaymentMethod:  models.PaymentMethodOnline,
		PaymentStatus:  models.PaymentStatusPaid,
		PaymentID:      "pay_42",
		TotalCoupon:    80,
		CouponDiscount: 80,
		Total:          720,
		Items:          sampleItems(),
	})
}

func TestCancelOrderRollsBackWhenNoRefundSucceeds(t *testing.T) {
	store := newTestStore(t)
	order := seedOnlineOrder(t, store)
	gateway := &fakeGateway{err: errors.New("gateway down")}
	svc := newTestOrderService(store, NewRefundService(gateway, RefundPolicyGateway), nil)
	ctx := context.Background()

	_, err := svc.CancelOrder(ctx, order.ID, customer)
	require.ErrorIs(t, err, ErrRefundDispatchFailure)
	assert.Len(t, gateway.calls, 3)

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.OrderStatusPending, saved.OrderStatus)
	assert.Equal(t, models.PaymentStatusPaid, saved.PaymentStatus)
	assert.Equal(t, 80.0, saved.CouponDiscount)
	assert.Empty(t, saved.RefundTransactions)
	for _, item := range saved.Items {
		assert.Equal(t, models.ItemStatusActive, item.Status)
		assert.Empty(t, item.RefundStatus)
		assert.Equal(t, initialStock, stockOf(t, store, item.ProductID))
	}

	_, err = svc.CancelOrder(ctx, order.ID, customer)
	assert.ErrorIs(t, err, ErrRefundDispatchFailure)
}

func TestCancelOrderKeepsFailedItemsOpenForRetry(t *testing.T) {
	store := newTestStore(t)
	order := seedOnlineOrder(t, store)
	gateway := &fakeGateway{err: errors.New("gateway timeout"), failOn: 2, refundID: "rfnd_1"}
	svc := newTestOrderService(store, NewRefundService(gateway, RefundPolicyGateway), nil)
	ctx := context.Background()

	result, err := svc.CancelOrder(ctx, order.ID, customer)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 360.0, result.RefundAmount)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, order.Items[1].ID, result.Diagnostics[0].ItemID)

	saved := reload(t, store, order.ID)
	assert.Equal(t, models.OrderStatusPending, saved.OrderStatus)
	assert.Equal(t, models.PaymentStatusPaid, saved.PaymentStatus)
	assert.Equal(t, models.ItemStatusCancelled, saved.Items[0].Status)
	assert.Equal(t, models.ItemStatusActive, saved.Items[1].Status)
	assert.Equal(t, models.ItemStatusCancelled, saved.Items[2].Status)
	assert.Equal(t, 40.0, saved.CouponDiscount)
	assert.Equal(t, 360.0, saved.Total)
	assert.Equal(t, initialStock+1, stockOf(t, store, productA))
	assert.Equal(t, initialStock, stockOf(t, store, productB))

	gateway.err = nil
	result, err = svc.CancelOrder(ctx, order.ID, customer)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 360.0, result.RefundAmount)
	assert.Len(t, gateway.calls, 4)
	assert.Equal(t, int64(36000), gateway.calls[3].amount)

	saved = reload(t, store, order.ID)
	assert.Equal(t, models.OrderStatusCancelled, saved.OrderStatus)
	assert.Equal(t, models.PaymentStatusRefunded, saved.PaymentStatus)
	assert.Equal(t, initialStock+2, stockOf(t, store, productB))
	assert.Equal(t, 0.0, walletBalance(t, store, testUserID))
}

func TestCancelOrderAfterPartialCancellation(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusProcessing, models.PaymentMethodWallet, models.PaymentStatusPaid)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)
	ctx := context.Background()

	_, err := svc.CancelItem(ctx, order.ID, order.Items[1].ID, customer)
	require.NoError(t, err)

	result, err := svc.CancelOrder(ctx, order.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, 360.0, result.RefundAmount)
	assert.Equal(t, 720.0, walletBalance(t, store, testUserID))
	assert.Equal(t, initialStock+2, stockOf(t, store, productB))
}

func TestRecalculateCoupon(t *testing.T) {
	store := newTestStore(t)
	order := store.CreateOrder(models.Order{
		UserID:         testUserID,
		OrderStatus:    models.OrderStatusProcessing,
		PaymentMethod:  models.PaymentMethodWallet,
		PaymentStatus:  models.PaymentStatusPaid,
		CouponDiscount: 80,
		Items: []models.OrderItem{
			{ProductID: productA, Price: 300, Quantity: 1, Status: models.ItemStatusCancelled},
			{ProductID: productB, Price: 200, Quantity: 2},
			{ProductID: productC, Price: 100, Quantity: 1},
		},
	})
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	first, err := svc.RecalculateCoupon(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, first.NewCouponDiscount)

	second, err := svc.RecalculateCoupon(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, second.NewCouponDiscount)
	assert.Equal(t, 80.0, reload(t, store, order.ID).TotalCoupon)
}

func TestPreviewRefund(t *testing.T) {
	store := newTestStore(t)
	order := seedOrder(t, store, models.OrderStatusPending, models.PaymentMethodWallet, models.PaymentStatusPaid)
	svc := newTestOrderService(store, NewRefundService(nil, RefundPolicyWallet), nil)

	preview, err := svc.PreviewRefund(context.Background(), order.ID, "", customer)
	require.NoError(t, err)
	assert.Equal(t, RefundReasonCancellation, preview.Reason)
	assert.Equal(t, 720.0, preview.RefundAmount)
	assert.True(t, preview.Refundable)
	require.Len(t, preview.Items, 3)
	assert.Equal(t, 270.0, preview.Items[0].Breakdown.RefundAmount)

	_, err = svc.PreviewRefund(context.Background(), order.ID, "", ActionContext{ActorID: otherUserID})
	assert.ErrorIs(t, err, ErrForbidden)
}
