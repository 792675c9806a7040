package utils

import (
	"time" // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// tokenTTL is the fixed lifetime of every issued token. There is no refresh
// mechanism; clients re-authenticate after expiry.
const tokenTTL = 24 * time.Hour

// JWT Claims
type Claims struct {
	UserID               uint   `json:"user_id,omitempty"`  // Custom claim for user ID (absent on admin tokens)
	Email                string `json:"email,omitempty"`    // Email of the authenticated principal
	IsAdmin              bool   `json:"is_admin,omitempty"` // Set only by the fixed-credential admin login
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateJWT creates a user token embedding the user ID and email
func GenerateJWT(userID uint, email, secret string) (string, error) {
	return signClaims(Claims{UserID: userID, Email: email}, secret)
}

// GenerateAdminJWT creates an admin token; it carries no user ID
func GenerateAdminJWT(email, secret string) (string, error) {
	return signClaims(Claims{Email: email, IsAdmin: true}, secret)
}

// signClaims attaches the standard claims and signs with HS256
func signClaims(claims Claims, secret string) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)), // Token expires in 24 hours
		IssuedAt:  jwt.NewNumericDate(time.Now()),               // Issued at current time
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	})
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrSignatureInvalid
}
