package domain

import "time"

// KYC status values mirrored on the User record.
const (
	KycStatusNone     = "none"     // No submission yet
	KycStatusPending  = "pending"  // Awaiting owner review
	KycStatusApproved = "approved" // Owner approved the latest submission
	KycStatusRejected = "rejected" // Owner rejected the latest submission
)

// KycSnapshot is the denormalized copy of the latest submission kept on the
// User row for quick reference. The Kyc record stays authoritative.
type KycSnapshot struct {
	FullName    string `json:"fullName"`    // Full legal name
	DateOfBirth string `json:"dateOfBirth"` // Date of birth (YYYY-MM-DD)
	Nationality string `json:"nationality"` // Nationality
	PassportID  string `json:"passportId"`  // Passport / ID number
	Country     string `json:"country"`     // Country of residence
	Address     string `json:"address"`     // Street address
	City        string `json:"city"`        // City
	PostalCode  string `json:"postalCode"`  // Postal code
}

// User Model
type User struct {
	ID            uint        `gorm:"primaryKey" json:"id"`                        // Primary key
	Name          string      `gorm:"not null" json:"name"`                        // Display name
	Email         string      `gorm:"unique;not null" json:"email"`                // Unique login email
	Password      string      `gorm:"not null" json:"-"`                           // bcrypt hash, never serialized
	KycCompleted  bool        `gorm:"default:false" json:"kycCompleted"`           // True iff KycStatus is approved
	KycStatus     string      `gorm:"default:none" json:"kycStatus"`               // none, pending, approved, rejected
	KycData       KycSnapshot `gorm:"embedded;embeddedPrefix:kyc_" json:"kycData"` // Snapshot of the latest submission
	WalletAddress string      `json:"walletAddress"`                               // Connected wallet address
	WalletType    string      `json:"walletType"`                                  // Wallet provider (e.g. metamask)
	CreatedAt     time.Time   `json:"createdAt"`                                   // Timestamp of registration
}
