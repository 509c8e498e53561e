package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testUserID  uint = 7
	otherUserID uint = 8

	productA uint = 101
	productB uint = 102
	productC uint = 103

	initialStock = 10
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	for _, id := range []uint{productA, productB, productC} {
		store.AddProduct(models.Product{ID: id, Name: "Dish", Price: 100, Stock: initialStock, IsActive: true})
	}
	store.AddUser(models.User{Model: gorm.Model{ID: testUserID}, Username: "asha", Email: "asha@example.com", FirstName: "Asha"})
	return store
}

// sampleItems is the 300x1, 200x2, 100x1 order used across the tests.
func sampleItems() []models.OrderItem {
	return []models.OrderItem{
		{ProductID: productA, Name: "Biryani", Price: 300, Quantity: 1},
		{ProductID: productB, Name: "Paneer Tikka", Price: 200, Quantity: 2},
		{ProductID: productC, Name: "Lassi", Price: 100, Quantity: 1},
	}
}

// seedOrder stores the sample order with an 80 coupon and returns it.
func seedOrder(t *testing.T, store *repository.MemoryStore, status, method, paymentStatus string) *models.Order {
	t.Helper()
	order := store.CreateOrder(models.Order{
		UserID:         testUserID,
		OrderStatus:    status,
		PaymentMethod:  method,
		PaymentStatus:  paymentStatus,
		TotalCoupon:    80,
		CouponDiscount: 80,
		AppliedCoupon:  models.AppliedCoupon{Code: "FEAST10", DiscountType: models.DiscountTypePercentage, DiscountValue: 10},
		Total:          720,
		Items:          sampleItems(),
	})
	require.NotZero(t, order.ID)
	return order
}

func reload(t *testing.T, store *repository.MemoryStore, orderID uint) *models.Order {
	t.Helper()
	order, err := store.FindOrder(context.Background(), orderID)
	require.NoError(t, err)
	return order
}

func stockOf(t *testing.T, store *repository.MemoryStore, productID uint) int {
	t.Helper()
	p, ok := store.Product(productID)
	require.True(t, ok)
	return p.Stock
}

func walletBalance(t *testing.T, store *repository.MemoryStore, userID uint) float64 {
	t.Helper()
	w, _, err := store.FindWallet(context.Background(), userID)
	if errors.Is(err, repository.ErrWalletNotFound) {
		return 0
	}
	require.NoError(t, err)
	return w.Balance
}

func newTestOrderService(store repository.Store, refunds *RefundService, notifier Notifier) *OrderService {
	svc := NewOrderService(store, refunds, notifier, OrderServiceConfig{})
	svc.now = func() time.Time { return testNow }
	refunds.now = func() time.Time { return testNow }
	return svc
}

type fakeGateway struct {
	mu       sync.Mutex
	calls    []gatewayCall
	err      error
	failOn   int
	refundID string
}

type gatewayCall struct {
	paymentID string
	amount    int64
}

func (g *fakeGateway) Refund(_ context.Context, paymentID string, amountMinor int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, gatewayCall{paymentID: paymentID, amount: amountMinor})
	if g.err != nil && (g.failOn == 0 || g.failOn == len(g.calls)) {
		return "", g.err
	}
	return g.refundID, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, e Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

// stubTx is a Tx whose wallet credits can be made to fail on a given call.
type stubTx struct {
	credits    []models.WalletTransaction
	failOn     int
	calls      int
	saves      int
	restock    map[uint]int
	savepoints []string
	rollbacks  []string
	marks      map[string]int
}

func (s *stubTx) SavePoint(_ context.Context, name string) error {
	if s.marks == nil {
		s.marks = make(map[string]int)
	}
	s.marks[name] = len(s.credits)
	s.savepoints = append(s.savepoints, name)
	return nil
}

func (s *stubTx) RollbackTo(_ context.Context, name string) error {
	mark, ok := s.marks[name]
	if !ok {
		return errors.New("unknown savepoint " + name)
	}
	s.credits = s.credits[:mark]
	s.rollbacks = append(s.rollbacks, name)
	return nil
}

func (s *stubTx) SaveOrder(context.Context, *models.Order) error {
	s.saves++
	return nil
}

func (s *stubTx) IncrementStock(_ context.Context, productID uint, delta int) error {
	if s.restock == nil {
		s.restock = make(map[uint]int)
	}
	s.restock[productID] += delta
	return nil
}

func (s *stubTx) CreditWallet(_ context.Context, _ uint, entry *models.WalletTransaction) (float64, error) {
	s.calls++
	if s.calls == s.failOn {
		return 0, errors.New("wallet unavailable")
	}
	entry.ID = uint(len(s.credits) + 1)
	s.credits = append(s.credits, *entry)
	var balance float64
	for _, c := range s.credits {
		balance += c.Amount
	}
	return balance, nil
}
