package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps orders, wallets and inventory in postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) WithOrder(ctx context.Context, orderID uint, fn func(tx Tx, order *models.Order) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		// Row lock first; children are loaded separately because postgres
		// rejects FOR UPDATE on the outer side of the preload joins.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order %d: %w", orderID, err)
		}
		if err := loadOrderChildren(tx, &order); err != nil {
			return err
		}
		return fn(&gormTx{db: tx}, &order)
	})
}

func (s *GormStore) FindOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	db := s.db.WithContext(ctx)
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := loadOrderChildren(db, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func loadOrderChildren(db *gorm.DB, order *models.Order) error {
	if err := db.Where("order_id = ?", order.ID).Order("id").Find(&order.Items).Error; err != nil {
		return fmt.Errorf("load items of order %d: %w", order.ID, err)
	}
	if err := db.Where("order_id = ?", order.ID).Order("id").Find(&order.RefundTransactions).Error; err != nil {
		return fmt.Errorf("load refunds of order %d: %w", order.ID, err)
	}
	return nil
}

func (s *GormStore) FindWallet(ctx context.Context, userID uint) (*models.Wallet, []models.WalletTransaction, error) {
	db := s.db.WithContext(ctx)
	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrWalletNotFound
		}
		return nil, nil, err
	}
	var txns []models.WalletTransaction
	if err := db.Where("wallet_id = ?", wallet.ID).Order("created_at DESC").Find(&txns).Error; err != nil {
		return nil, nil, err
	}
	return &wallet, txns, nil
}

func (s *GormStore) FindUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) ListRefundTransactions(ctx context.Context, from, to time.Time) ([]models.RefundTransaction, error) {
	var refunds []models.RefundTransaction
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at").
		Find(&refunds).Error
	return refunds, err
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) SaveOrder(ctx context.Context, order *models.Order) error {
	return t.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(order).Error
}

func (t *gormTx) IncrementStock(ctx context.Context, productID uint, delta int) error {
	res := t.db.WithContext(ctx).Unscoped().
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	return nil
}

func (t *gormTx) CreditWallet(ctx context.Context, userID uint, entry *models.WalletTransaction) (float64, error) {
	db := t.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.Wallet{UserID: userID}).Error; err != nil {
		return 0, fmt.Errorf("create wallet for user %d: %w", userID, err)
	}

	if err := db.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		UpdateColumn("balance", gorm.Expr("balance + ?", entry.Amount)).Error; err != nil {
		return 0, fmt.Errorf("credit wallet of user %d: %w", userID, err)
	}

	var wallet models.Wallet
	if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return 0, err
	}

	entry.WalletID = wallet.ID
	if err := db.Create(entry).Error; err != nil {
		return 0, fmt.Errorf("record wallet transaction: %w", err)
	}
	return wallet.Balance, nil
}

func (t *gormTx) SavePoint(ctx context.Context, name string) error {
	if err := t.db.WithContext(ctx).SavePoint(name).Error; err != nil {
		return fmt.Errorf("savepoint %s: %w", name, err)
	}
	return nil
}

func (t *gormTx) RollbackTo(ctx context.Context, name string) error {
	if err := t.db.WithContext(ctx).RollbackTo(name).Error; err != nil {
		return fmt.Errorf("rollback to savepoint %s: %w", name, err)
	}
	return nil
}
