package config

import (
	"context"
	"fmt"
	"time"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB connects to postgres and migrates the order engine schema.
func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	utils.LogInfo("Connected to database %s on %s:%s", cfg.DBName, cfg.DBHost, cfg.DBPort)

	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Order{},
		&models.OrderItem{},
		&models.RefundTransaction{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// NewRedisClient returns nil when REDIS_ADDR is unset.
func NewRedisClient(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}
	utils.LogInfo("Connected to redis on %s", cfg.RedisAddr)
	return client, nil
}
