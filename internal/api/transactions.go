package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // Cache key building
	"time"     // Cache TTL

	"github.com/Arunmathur01/xcoinpay/internal/domain" // Importing domain models
	"github.com/Arunmathur01/xcoinpay/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// CreateTransactionRequest records one investment attempt. The token
// arithmetic (tokens, bonus, total) is supplied by the caller and stored
// as-is; the ledger does not recompute it.
type CreateTransactionRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`                            // Invested USD amount
	Tokens      float64 `json:"tokens" binding:"required,gt=0"`                            // Base tokens purchased
	BonusTokens float64 `json:"bonusTokens" binding:"gte=0"`                               // Bonus tokens granted
	TotalTokens float64 `json:"totalTokens" binding:"required,gt=0"`                       // Caller-computed total
	TxHash      string  `json:"txHash"`                                                    // On-chain hash, unverified
	Status      string  `json:"status" binding:"omitempty,oneof=pending completed failed"` // Defaults to completed
}

// CreateTransactionHandler appends one transaction for the authenticated
// user. KYC approval is not checked here; the presentation layer gates
// access to the purchase flow.
func CreateTransactionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User // The wallet address is snapshotted from the user row
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		status := req.Status
		if status == "" {
			status = domain.TxStatusCompleted // Default to completed if not specified
		}
		tx := domain.Transaction{
			UserID:        user.ID,
			Amount:        req.Amount,
			Tokens:        req.Tokens,
			BonusTokens:   req.BonusTokens,
			TotalTokens:   req.TotalTokens,
			TxHash:        req.TxHash,
			Status:        status,
			WalletAddress: user.WalletAddress,
		}
		if err := db.Create(&tx).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,
				"amount":  req.Amount,
				"error":   err.Error(),
			}).Error("Failed to create transaction")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":      user.ID,
			"tx_id":        tx.ID,
			"amount":       tx.Amount,
			"total_tokens": tx.TotalTokens,
			"status":       tx.Status,
		}).Info("Transaction recorded")
		// Invalidate the caller's cached transaction list
		_ = utils.DeleteCache(context.Background(), rdb, txCacheKey(user.ID))
		c.JSON(http.StatusCreated, gin.H{
			"message":     "Transaction created successfully",
			"transaction": tx,
		})
	}
}

// ListTransactionsHandler returns all of the caller's transactions,
// newest first
func ListTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background()
		cacheKey := txCacheKey(userID.(uint))
		var cached []domain.Transaction
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"transactions": cached, "cached": true})
			return
		}
		var transactions []domain.Transaction
		if err := db.Where("user_id = ?", userID).
			Order("created_at desc").
			Find(&transactions).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, transactions, 60*time.Second)
		c.JSON(http.StatusOK, gin.H{"transactions": transactions, "cached": false})
	}
}

// txCacheKey builds the per-user transaction list cache key
func txCacheKey(userID uint) string {
	return "txhistory:user:" + strconv.FormatUint(uint64(userID), 10)
}
