package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // Path parameter parsing

	"github.com/Arunmathur01/xcoinpay/internal/kyc" // KYC lifecycle service

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// SubmitKYCHandler records a new submission for the authenticated user
func SubmitKYCHandler(svc *kyc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var sub kyc.Submission // Bind identity fields
		if err := c.ShouldBindJSON(&sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		record, err := svc.Submit(c.Request.Context(), userID.(uint), sub)
		if err != nil {
			if errors.Is(err, kyc.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":   "KYC submitted successfully",
			"kycStatus": record.Status,
			"kycId":     record.ID,
		})
	}
}

// KYCStatusHandler lets the frontend poll the caller's review state
func KYCStatusHandler(svc *kyc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		status, err := svc.Status(c.Request.Context(), userID.(uint))
		if err != nil {
			if errors.Is(err, kyc.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

// LatestKYCHandler returns the caller's most recent submission, or null
func LatestKYCHandler(svc *kyc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		latest, err := svc.Latest(c.Request.Context(), userID.(uint))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"kyc": latest})
	}
}

// KYCActionLinkHandler serves the emailed one-click review links. The link
// carries a single-use token minted at submit time; a bare userId is not
// accepted. Responds with a plain-text page for the reviewer's browser.
func KYCActionLinkHandler(svc *kyc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.String(http.StatusBadRequest, "Missing action token")
			return
		}
		action, err := svc.ReviewByToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, kyc.ErrInvalidToken):
				c.String(http.StatusNotFound, "This link is invalid or has already been used.")
			case errors.Is(err, kyc.ErrUserNotFound):
				c.String(http.StatusNotFound, "User not found")
			case errors.Is(err, kyc.ErrKycNotFound):
				c.String(http.StatusNotFound, "No KYC submission found for this user")
			default:
				logrus.WithField("error", err.Error()).Error("Action link review failed")
				c.String(http.StatusInternalServerError, "Server error")
			}
			return
		}
		if action == "approve" {
			c.String(http.StatusOK, "KYC approved successfully. User notified.")
			return
		}
		c.String(http.StatusOK, "KYC rejected. User notified.")
	}
}

// ListKYCHandler returns the owner's review queue, optionally filtered by
// ?status=pending|approved|rejected
func ListKYCHandler(svc *kyc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svc.List(c.Request.Context(), c.Query("status"))
		if err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to list KYC submissions")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"kycs": entries})
	}
}

// ReviewKYCHandler applies an owner decision to a specific record by id
// (the admin-panel path)
func ReviewKYCHandler(svc *kyc.Service, approved bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		kycID, err := strconv.ParseUint(c.Param("kycId"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid KYC id"})
			return
		}
		if err := svc.Review(c.Request.Context(), uint(kycID), approved); err != nil {
			switch {
			case errors.Is(err, kyc.ErrKycNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "KYC not found"})
			case errors.Is(err, kyc.ErrUserNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
			}
			return
		}
		if approved {
			c.JSON(http.StatusOK, gin.H{"message": "KYC approved"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "KYC rejected"})
	}
}
