package controllers

import (
	"context"
	"errors"

	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/middleware"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/models"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/repository"
	"github.com/Meghamegha2003/DERRY-WORLD-RESTAURANT-sub001/utils"
	"github.com/gin-gonic/gin"
)

// WalletFinder loads a user's wallet and its log.
type WalletFinder interface {
	FindWallet(ctx context.Context, userID uint) (*models.Wallet, []models.WalletTransaction, error)
}

type WalletController struct {
	wallets WalletFinder
}

func NewWalletController(wallets WalletFinder) *WalletController {
	return &WalletController{wallets: wallets}
}

// GetWallet returns the balance and refund credits of the current user
func (ctl *WalletController) GetWallet(c *gin.Context) {
	utils.LogInfo("GetWallet called")
	userID := c.GetUint(middleware.ContextUserID)

	wallet, txns, err := ctl.wallets.FindWallet(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrWalletNotFound) {
		utils.LogDebug("No wallet yet for user ID: %d", userID)
		utils.Success(c, "Wallet retrieved successfully", gin.H{
			"balance":      0.0,
			"transactions": []models.WalletTransaction{},
		})
		return
	}
	if err != nil {
		utils.LogError("Failed to load wallet for user ID: %d: %v", userID, err)
		utils.InternalServerError(c, "Failed to load wallet", nil)
		return
	}
	if txns == nil {
		txns = []models.WalletTransaction{}
	}
	utils.Success(c, "Wallet retrieved successfully", gin.H{
		"balance":      wallet.Balance,
		"transactions": txns,
	})
}
