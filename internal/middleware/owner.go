package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // Case-insensitive email compare

	"github.com/Arunmathur01/xcoinpay/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// OwnerOnlyMiddleware restricts privileged endpoints to the configured owner.
// Admin tokens pass directly; user tokens pass only when the caller's email
// matches the owner email case-insensitively. Must run after JWTAuthMiddleware.
func OwnerOnlyMiddleware(db *gorm.DB, ownerEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Tokens from the fixed-credential admin login are always allowed
		if isAdmin, ok := c.Get("isAdmin"); ok && isAdmin.(bool) {
			c.Next()
			return
		}
		// Without a configured owner there is no privileged principal
		if ownerEmail == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Owner email not configured"})
			return
		}
		// Prefer the email claim; fall back to loading the user row
		email, _ := c.Get("authEmail")
		emailToCheck, _ := email.(string)
		if emailToCheck == "" {
			userID, exists := c.Get("userID")
			if !exists {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			var user domain.User
			if err := db.First(&user, userID).Error; err != nil {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
				return
			}
			emailToCheck = user.Email
		}
		// Single-owner check, not a role table
		if !strings.EqualFold(emailToCheck, ownerEmail) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
