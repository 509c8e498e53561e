package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
)

// MemoryStore is an in-process Store used for local runs (STORE=memory) and
// tests. Orders are serialized by a per-order mutex; wallet and stock writes
// are applied immediately and undone if the surrounding WithOrder fails.
type MemoryStore struct {
	mu         sync.Mutex
	orderLocks map[uint]*sync.Mutex
	orders     map[uint]*models.Order
	products   map[uint]*models.Product
	users      map[uint]*models.User
	wallets    map[uint]*models.Wallet // keyed by user id
	walletTxns map[uint][]models.WalletTransaction
	refunds    []models.RefundTransaction
	nextID     uint
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orderLocks: make(map[uint]*sync.Mutex),
		orders:     make(map[uint]*models.Order),
		products:   make(map[uint]*models.Product),
		users:      make(map[uint]*models.User),
		wallets:    make(map[uint]*models.Wallet),
		walletTxns: make(map[uint][]models.WalletTransaction),
		now:        time.Now,
	}
}

func (s *MemoryStore) id() uint {
	s.nextID++
	return s.nextID
}

// AddProduct stores a product, assigning an ID when it has none.
func (s *MemoryStore) AddProduct(p models.Product) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	s.products[p.ID] = &p
	out := p
	return &out
}

// Product returns a copy of the stored product.
func (s *MemoryStore) Product(id uint) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, false
	}
	return *p, true
}

// AddUser stores a user, assigning an ID when it has none.
func (s *MemoryStore) AddUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[u.ID] = &u
	out := u
	return &out
}

// CreateOrder stores a new order and returns a copy carrying the assigned IDs.
func (s *MemoryStore) CreateOrder(order models.Order) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := cloneOrder(&order)
	if o.ID == 0 {
		o.ID = s.id()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	s.assignIDs(o)
	s.orders[o.ID] = o
	return cloneOrder(o)
}

func (s *MemoryStore) assignIDs(o *models.Order) {
	for i := range o.Items {
		if o.Items[i].ID == 0 {
			o.Items[i].ID = s.id()
		}
		o.Items[i].OrderID = o.ID
		if o.Items[i].Status == "" {
			o.Items[i].Status = models.ItemStatusActive
		}
	}
	for i := range o.RefundTransactions {
		rt := &o.RefundTransactions[i]
		if rt.ID == 0 {
			rt.ID = s.id()
			rt.OrderID = o.ID
			if rt.CreatedAt.IsZero() {
				rt.CreatedAt = s.now()
			}
			s.refunds = append(s.refunds, *rt)
		}
	}
}

func (s *MemoryStore) lockFor(orderID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.orderLocks[orderID]
	if !ok {
		l = &sync.Mutex{}
		s.orderLocks[orderID] = l
	}
	return l
}

func (s *MemoryStore) WithOrder(ctx context.Context, orderID uint, fn func(tx Tx, order *models.Order) error) error {
	lock := s.lockFor(orderID)
	lock.Lock()
	defer lock.Unlock()

	order, err := s.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}

	tx := &memoryTx{store: s}
	if err := fn(tx, order); err != nil {
		tx.rollback()
		return err
	}
	tx.commit()
	return nil
}

func (s *MemoryStore) FindOrder(_ context.Context, orderID uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) FindWallet(_ context.Context, userID uint) (*models.Wallet, []models.WalletTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[userID]
	if !ok {
		return nil, nil, ErrWalletNotFound
	}
	wallet := *w
	txns := append([]models.WalletTransaction(nil), s.walletTxns[w.ID]...)
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].ID > txns[j].ID })
	return &wallet, txns, nil
}

func (s *MemoryStore) FindUser(_ context.Context, userID uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (s *MemoryStore) ListRefundTransactions(_ context.Context, from, to time.Time) ([]models.RefundTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RefundTransaction
	for _, rt := range s.refunds {
		if !rt.CreatedAt.Before(from) && rt.CreatedAt.Before(to) {
			out = append(out, rt)
		}
	}
	return out, nil
}

type memoryTx struct {
	store   *MemoryStore
	pending *models.Order
	undo    []func()
	marks   map[string]int
}

func (t *memoryTx) SaveOrder(_ context.Context, order *models.Order) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	// IDs are assigned on the caller's order so later saves in the same
	// transaction update rather than duplicate the new rows.
	for i := range order.Items {
		if order.Items[i].ID == 0 {
			order.Items[i].ID = t.store.id()
		}
	}
	for i := range order.RefundTransactions {
		rt := &order.RefundTransactions[i]
		if rt.ID == 0 {
			rt.ID = t.store.id()
			rt.OrderID = order.ID
			rt.CreatedAt = t.store.now()
		}
	}
	order.UpdatedAt = t.store.now()
	t.pending = cloneOrder(order)
	return nil
}

func (t *memoryTx) IncrementStock(_ context.Context, productID uint, delta int) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	p, ok := t.store.products[productID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	p.Stock += delta
	t.undo = append(t.undo, func() { p.Stock -= delta })
	return nil
}

func (t *memoryTx) CreditWallet(_ context.Context, userID uint, entry *models.WalletTransaction) (float64, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	w, ok := t.store.wallets[userID]
	if !ok {
		w = &models.Wallet{ID: t.store.id(), UserID: userID, CreatedAt: t.store.now()}
		t.store.wallets[userID] = w
		t.undo = append(t.undo, func() {
			delete(t.store.wallets, userID)
			delete(t.store.walletTxns, w.ID)
		})
	}
	w.Balance += entry.Amount
	w.UpdatedAt = t.store.now()

	entry.ID = t.store.id()
	entry.WalletID = w.ID
	entry.CreatedAt = t.store.now()
	t.store.walletTxns[w.ID] = append(t.store.walletTxns[w.ID], *entry)

	amount, txnID := entry.Amount, entry.ID
	t.undo = append(t.undo, func() {
		w.Balance -= amount
		txns := t.store.walletTxns[w.ID]
		for i := range txns {
			if txns[i].ID == txnID {
				t.store.walletTxns[w.ID] = append(txns[:i], txns[i+1:]...)
				break
			}
		}
	})
	return w.Balance, nil
}

func (t *memoryTx) SavePoint(_ context.Context, name string) error {
	if t.marks == nil {
		t.marks = make(map[string]int)
	}
	t.marks[name] = len(t.undo)
	return nil
}

func (t *memoryTx) RollbackTo(_ context.Context, name string) error {
	mark, ok := t.marks[name]
	if !ok {
		return fmt.Errorf("savepoint %s does not exist", name)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := len(t.undo) - 1; i >= mark; i-- {
		t.undo[i]()
	}
	t.undo = t.undo[:mark]
	return nil
}

func (t *memoryTx) commit() {
	if t.pending == nil {
		return
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	known := make(map[uint]bool)
	if prev, ok := t.store.orders[t.pending.ID]; ok {
		for _, rt := range prev.RefundTransactions {
			known[rt.ID] = true
		}
	}
	for _, rt := range t.pending.RefundTransactions {
		if !known[rt.ID] {
			t.store.refunds = append(t.store.refunds, rt)
		}
	}
	t.store.orders[t.pending.ID] = t.pending
}

func (t *memoryTx) rollback() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

func cloneOrder(o *models.Order) *models.Order {
	out := *o
	out.Items = make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		if item.ItemCouponDiscount != nil {
			v := *item.ItemCouponDiscount
			item.ItemCouponDiscount = &v
		}
		out.Items[i] = item
	}
	out.RefundTransactions = append([]models.RefundTransaction(nil), o.RefundTransactions...)
	return &out
}
