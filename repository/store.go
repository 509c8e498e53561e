package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Store is the persistence boundary of the order engine.
type Store interface {
	// WithOrder loads the order, its items and its refund log under an
	// exclusive per-order lock and runs fn inside one transaction. Any error
	// returned by fn rolls back every write made through tx.
	WithOrder(ctx context.Context, orderID uint, fn func(tx Tx, order *models.Order) error) error

	FindOrder(ctx context.Context, orderID uint) (*models.Order, error)
	FindWallet(ctx context.Context, userID uint) (*models.Wallet, []models.WalletTransaction, error)
	FindUser(ctx context.Context, userID uint) (*models.User, error)
	ListRefundTransactions(ctx context.Context, from, to time.Time) ([]models.RefundTransaction, error)
}

// Tx is the set of writes available while an order is locked.
type Tx interface {
	SaveOrder(ctx context.Context, order *models.Order) error

	// IncrementStock adjusts product stock by delta as a single atomic update.
	IncrementStock(ctx context.Context, productID uint, delta int) error

	// CreditWallet finds or creates the user's wallet, adds entry.Amount to the
	// balance atomically, appends entry to the wallet log and returns the new
	// balance. entry.ID and entry.WalletID are filled in.
	CreditWallet(ctx context.Context, userID uint, entry *models.WalletTransaction) (float64, error)

	// SavePoint marks the current state of the transaction. RollbackTo undoes
	// every write made after the named mark and leaves the transaction usable.
	SavePoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
}
