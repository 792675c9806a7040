package domain

import "time"

// Kyc Model — one row per submit action. Re-submission after rejection
// creates a new row; reviewed rows are never reviewed again by the UI,
// though the data layer does not guard the transition.
type Kyc struct {
	ID          uint       `gorm:"primaryKey" json:"id"`              // Primary key
	UserID      uint       `gorm:"not null;index" json:"userId"`      // Foreign key to User
	FullName    string     `json:"fullName"`                          // Full legal name
	DateOfBirth string     `json:"dateOfBirth"`                       // Date of birth (YYYY-MM-DD)
	Nationality string     `json:"nationality"`                       // Nationality
	PassportID  string     `json:"passportId"`                        // Passport / ID number
	Country     string     `json:"country"`                           // Country of residence
	Address     string     `json:"address"`                           // Street address
	City        string     `json:"city"`                              // City
	PostalCode  string     `json:"postalCode"`                        // Postal code
	Status      string     `gorm:"default:pending" json:"status"`     // pending, approved, rejected
	SubmittedAt time.Time  `gorm:"autoCreateTime" json:"submittedAt"` // Submission timestamp; "latest" = max(submittedAt)
	ReviewedAt  *time.Time `json:"reviewedAt"`                        // Null until the owner reviews
}
