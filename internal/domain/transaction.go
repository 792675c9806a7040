package domain

import "time"

// Transaction status values.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Transaction Model — append-only record of one investment attempt.
// Token arithmetic is caller-supplied and stored as-is.
type Transaction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`            // Primary key
	UserID        uint      `gorm:"not null;index" json:"userId"`    // Foreign key to User
	Amount        float64   `gorm:"not null" json:"amount"`          // Invested amount in USD
	Tokens        float64   `gorm:"not null" json:"tokens"`          // Base tokens purchased
	BonusTokens   float64   `gorm:"not null" json:"bonusTokens"`     // Bonus tokens granted
	TotalTokens   float64   `gorm:"not null" json:"totalTokens"`     // Tokens + bonus, as supplied by the caller
	TxHash        string    `json:"txHash"`                          // On-chain transaction hash, unverified
	Status        string    `gorm:"default:pending" json:"status"`   // pending, completed, failed
	WalletAddress string    `json:"walletAddress"`                   // User's wallet at creation time
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"` // Timestamp of creation
}
