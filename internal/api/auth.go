package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"github.com/Arunmathur01/xcoinpay/internal/config" // Application configuration
	"github.com/Arunmathur01/xcoinpay/internal/domain" // Importing domain models
	"github.com/Arunmathur01/xcoinpay/internal/kyc"    // KYC lifecycle service
	"github.com/Arunmathur01/xcoinpay/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// bcryptCost is the work factor applied to stored passwords.
const bcryptCost = 12

// RegisterRequest carries a new account plus an optional inline first
// KYC submission
type RegisterRequest struct {
	Name     string          `json:"name" binding:"required"`           // Display name must be provided
	Email    string          `json:"email" binding:"required,email"`    // Login email must be provided
	Password string          `json:"password" binding:"required,min=6"` // Password must be provided
	KycData  *kyc.Submission `json:"kycData"`                           // Optional identity data submitted at signup
}

// LoginRequest carries user credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// UserResponse is the user projection returned by auth endpoints
type UserResponse struct {
	ID           uint   `json:"id"`           // User ID
	Name         string `json:"name"`         // Display name
	Email        string `json:"email"`        // Login email
	KycStatus    string `json:"kycStatus"`    // Quick-reference KYC status
	KycCompleted bool   `json:"kycCompleted"` // True iff approved
}

// RegisterHandler creates a user account, optionally routing inline KYC
// data through the lifecycle service as the first submission
func RegisterHandler(db *gorm.DB, svc *kyc.Service, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		email := strings.ToLower(req.Email)
		// Duplicate email is a conflict, checked before any write
		var existing domain.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithField("error", err.Error()).Error("Registration lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		// Hash the password; plaintext is never persisted
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{
			Name:      req.Name,
			Email:     email,
			Password:  string(hash),
			KycStatus: domain.KycStatusNone,
		}
		if err := db.Create(&user).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"email": email,
				"error": err.Error(),
			}).Error("Failed to create user")
			// A uniqueness race at insert time is still a conflict
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,
			"email":   user.Email,
		}).Info("User registered")
		// Inline KYC data becomes a real first submission
		if req.KycData != nil {
			if _, err := svc.SubmitAtRegistration(c.Request.Context(), user.ID, *req.KycData); err != nil {
				logrus.WithFields(logrus.Fields{
					"user_id": user.ID,
					"error":   err.Error(),
				}).Error("Registration KYC submission failed")
			} else {
				user.KycStatus = domain.KycStatusPending
			}
		}
		token, err := utils.GenerateJWT(user.ID, user.Email, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "User created successfully",
			"token":   token,
			"user": UserResponse{
				ID:           user.ID,
				Name:         user.Name,
				Email:        user.Email,
				KycStatus:    user.KycStatus,
				KycCompleted: user.KycCompleted,
			},
		})
	}
}

// LoginHandler authenticates a user and returns a JWT token. Unknown email
// and wrong password produce the same response on purpose.
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.Email, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"token":   token,
			"user": UserResponse{
				ID:           user.ID,
				Name:         user.Name,
				Email:        user.Email,
				KycStatus:    user.KycStatus,
				KycCompleted: user.KycCompleted,
			},
		})
	}
}

// AdminLoginHandler issues an admin token against the fixed credentials
// from configuration
func AdminLoginHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Same shape as the user login
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Admin credentials not configured"})
			return
		}
		if !strings.EqualFold(req.Email, cfg.AdminEmail) || req.Password != cfg.AdminPassword {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid admin credentials"})
			return
		}
		token, err := utils.GenerateAdminJWT(cfg.AdminEmail, cfg.JWTSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		logrus.WithField("email", cfg.AdminEmail).Info("Admin logged in")
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// ProfileHandler returns the authenticated user's record; the password
// hash is excluded by the model's json tag
func ProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// ConnectWalletRequest attaches a wallet to the user record
type ConnectWalletRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"` // Wallet address must be provided
	WalletType    string `json:"walletType" binding:"required"`    // Wallet provider must be provided
}

// ConnectWalletHandler stores the caller's wallet address and provider
func ConnectWalletHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req ConnectWalletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		user.WalletAddress = req.WalletAddress
		user.WalletType = req.WalletType
		if err := db.Save(&user).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,
				"error":   err.Error(),
			}).Error("Failed to connect wallet")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":     user.ID,
			"wallet_type": user.WalletType,
		}).Info("Wallet connected")
		c.JSON(http.StatusOK, gin.H{
			"message":       "Wallet connected successfully",
			"walletAddress": user.WalletAddress,
			"walletType":    user.WalletType,
		})
	}
}
