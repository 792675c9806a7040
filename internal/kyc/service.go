package kyc

import (
	"context" // Context for store and Redis operations
	"errors"  // Sentinel errors
	"strconv" // Cache key building
	"strings" // Action token value parsing
	"time"    // Timestamps and TTLs

	"github.com/Arunmathur01/xcoinpay/internal/domain" // Importing domain models
	"github.com/Arunmathur01/xcoinpay/internal/mail"   // Notifier types
	"github.com/Arunmathur01/xcoinpay/internal/utils"  // Cache and token helpers

	"github.com/google/uuid"       // Single-use action token values
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Service errors surfaced to the HTTP layer.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrKycNotFound  = errors.New("kyc record not found")
	ErrInvalidToken = errors.New("invalid or already used action token")
)

// actionTokenTTL bounds how long an emailed review link stays usable.
const actionTokenTTL = 7 * 24 * time.Hour

// statusCacheTTL is how long a status poll result may be served from Redis.
const statusCacheTTL = 30 * time.Second

// Notifier is the outbound-mail dependency of the lifecycle service.
// Implementations must be fire-and-forget: they never return errors and
// never block a committed mutation. *mail.Mailer satisfies this, including
// its nil (disabled) form.
type Notifier interface {
	KYCSubmitted(user *domain.User, kyc *domain.Kyc, links mail.ActionLinks)
	RegistrationWithKYC(user *domain.User, kyc *domain.Kyc, links mail.ActionLinks)
	KYCReviewed(user *domain.User, approved bool)
}

// Submission carries the identity fields of one submit action.
type Submission struct {
	FullName    string `json:"fullName" binding:"required"`
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
	Nationality string `json:"nationality" binding:"required"`
	PassportID  string `json:"passportId" binding:"required"`
	Country     string `json:"country" binding:"required"`
	Address     string `json:"address" binding:"required"`
	City        string `json:"city" binding:"required"`
	PostalCode  string `json:"postalCode" binding:"required"`
}

// Status is the result of a status query: the quick-reference fields from
// the User row plus the authoritative latest Kyc record, if any.
type Status struct {
	KycStatus    string      `json:"kycStatus"`
	KycCompleted bool        `json:"kycCompleted"`
	Kyc          *domain.Kyc `json:"kyc"`
}

// UserSummary is the minimal user projection joined onto admin listings.
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListEntry is one row of the owner's review queue.
type ListEntry struct {
	domain.Kyc
	User *UserSummary `json:"user"` // Nil if the owning user row is gone
}

// Service is the KYC lifecycle state machine. It owns every transition of
// Kyc.Status and keeps the quick-reference fields on the User row in step.
// The paired Kyc/User writes of a review run in one DB transaction;
// notifications are attempted only after the commit.
type Service struct {
	db       *gorm.DB      // Document store
	rdb      *redis.Client // Status cache + single-use action tokens
	notifier Notifier      // Best-effort outbound mail
	baseURL  string        // Public base URL for emailed action links
}

// NewService wires the lifecycle service with its injected dependencies
func NewService(db *gorm.DB, rdb *redis.Client, notifier Notifier, baseURL string) *Service {
	return &Service{db: db, rdb: rdb, notifier: notifier, baseURL: baseURL}
}

// Submit records a new pending submission for the user. The previous
// records are left untouched, so the full submission history is preserved.
func (s *Service) Submit(ctx context.Context, userID uint, sub Submission) (*domain.Kyc, error) {
	return s.submit(ctx, userID, sub, false)
}

// SubmitAtRegistration is the implicit first submission performed when a
// user registers with inline KYC data. Identical to Submit except for the
// owner notification wording.
func (s *Service) SubmitAtRegistration(ctx context.Context, userID uint, sub Submission) (*domain.Kyc, error) {
	return s.submit(ctx, userID, sub, true)
}

func (s *Service) submit(ctx context.Context, userID uint, sub Submission, atRegistration bool) (*domain.Kyc, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	kyc := domain.Kyc{
		UserID:      user.ID,
		FullName:    sub.FullName,
		DateOfBirth: sub.DateOfBirth,
		Nationality: sub.Nationality,
		PassportID:  sub.PassportID,
		Country:     sub.Country,
		Address:     sub.Address,
		City:        sub.City,
		PostalCode:  sub.PostalCode,
		Status:      domain.KycStatusPending,
	}
	// New Kyc row plus the mirrored quick-reference fields, atomically
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&kyc).Error; err != nil {
			return err
		}
		user.KycData = domain.KycSnapshot(sub)
		user.KycStatus = domain.KycStatusPending
		user.KycCompleted = false
		return tx.Save(&user).Error
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("KYC submit failed")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"kyc_id":  kyc.ID,
		"country": kyc.Country,
	}).Info("KYC submitted")
	s.invalidateStatus(ctx, user.ID)
	// Commit is done; mint links and notify the owner best-effort
	links := s.mintActionLinks(ctx, user.ID)
	if atRegistration {
		s.notifier.RegistrationWithKYC(&user, &kyc, links)
	} else {
		s.notifier.KYCSubmitted(&user, &kyc, links)
	}
	return &kyc, nil
}

// Review applies an owner decision to a specific Kyc record (admin panel
// path). There is deliberately no transition guard: reviewing an already
// reviewed record overwrites it, last write wins.
func (s *Service) Review(ctx context.Context, kycID uint, approved bool) error {
	var kyc domain.Kyc
	if err := s.db.WithContext(ctx).First(&kyc, kycID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrKycNotFound
		}
		return err
	}
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, kyc.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.applyReview(ctx, &kyc, &user, approved)
}

// ReviewByToken applies an owner decision carried by a single-use emailed
// link. The token is consumed on first use; the decision lands on the
// user's latest Kyc record. Returns the performed action ("approve" or
// "reject") for the response page.
func (s *Service) ReviewByToken(ctx context.Context, token string) (string, error) {
	val, ok, err := utils.ConsumeActionToken(ctx, s.rdb, token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidToken
	}
	action, idStr, found := strings.Cut(val, ":")
	if !found || (action != "approve" && action != "reject") {
		return "", ErrInvalidToken
	}
	userID, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, uint(userID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	kyc, err := s.latest(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if kyc == nil {
		return "", ErrKycNotFound
	}
	return action, s.applyReview(ctx, kyc, &user, action == "approve")
}

// applyReview writes the decision onto the Kyc record and mirrors it onto
// the User row in one transaction, then notifies the end user.
func (s *Service) applyReview(ctx context.Context, kyc *domain.Kyc, user *domain.User, approved bool) error {
	now := time.Now()
	status := domain.KycStatusRejected
	if approved {
		status = domain.KycStatusApproved
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		kyc.Status = status
		kyc.ReviewedAt = &now
		if err := tx.Save(kyc).Error; err != nil {
			return err
		}
		user.KycStatus = status
		user.KycCompleted = approved
		return tx.Save(user).Error
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,
			"kyc_id":  kyc.ID,
			"status":  status,
			"error":   err.Error(),
		}).Error("KYC review failed")
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"kyc_id":  kyc.ID,
		"status":  status,
	}).Info("KYC reviewed")
	s.invalidateStatus(ctx, user.ID)
	s.notifier.KYCReviewed(user, approved)
	return nil
}

// Status returns the quick-reference fields plus the latest Kyc record.
// The Kyc record is authoritative: if the mirrored fields on the User row
// disagree with it, they are resynced here before responding.
func (s *Service) Status(ctx context.Context, userID uint) (*Status, error) {
	cacheKey := statusCacheKey(userID)
	var cached Status
	if found, err := utils.GetCache(ctx, s.rdb, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	latest, err := s.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Reconciliation pass: resync the mirror from the latest record
	if latest != nil && user.KycStatus != latest.Status {
		user.KycStatus = latest.Status
		user.KycCompleted = latest.Status == domain.KycStatusApproved
		if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"user_id": user.ID,
			"kyc_id":  latest.ID,
			"status":  latest.Status,
		}).Warn("Resynced user KYC status from latest record")
	}
	st := &Status{KycStatus: user.KycStatus, KycCompleted: user.KycCompleted, Kyc: latest}
	_ = utils.SetCache(ctx, s.rdb, cacheKey, st, statusCacheTTL)
	return st, nil
}

// Latest returns the user's most recent Kyc record, or nil if none exists
func (s *Service) Latest(ctx context.Context, userID uint) (*domain.Kyc, error) {
	return s.latest(ctx, userID)
}

// listLimit caps the owner's review queue query.
const listLimit = 200

// List returns up to 200 most-recent submissions, optionally filtered by
// status, each joined with a minimal projection of the owning user.
func (s *Service) List(ctx context.Context, statusFilter string) ([]ListEntry, error) {
	query := s.db.WithContext(ctx).Model(&domain.Kyc{})
	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}
	var kycs []domain.Kyc
	if err := query.Order("submitted_at desc").Limit(listLimit).Find(&kycs).Error; err != nil {
		return nil, err
	}
	// Batch-resolve the owning users rather than one query per row
	userIDs := make([]uint, 0, len(kycs))
	for _, k := range kycs {
		userIDs = append(userIDs, k.UserID)
	}
	userMap := make(map[uint]UserSummary, len(userIDs))
	if len(userIDs) > 0 {
		var users []domain.User
		if err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			userMap[u.ID] = UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	entries := make([]ListEntry, len(kycs))
	for i, k := range kycs {
		entries[i] = ListEntry{Kyc: k}
		if u, ok := userMap[k.UserID]; ok {
			summary := u
			entries[i].User = &summary
		}
	}
	return entries, nil
}

// latest fetches the Kyc row with the maximum submittedAt for the user
func (s *Service) latest(ctx context.Context, userID uint) (*domain.Kyc, error) {
	var kyc domain.Kyc
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at desc").
		First(&kyc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &kyc, nil
}

// mintActionLinks stores two fresh single-use tokens and returns the
// one-click URLs for the owner mail. Token storage failures degrade to
// empty links rather than failing the committed submission.
func (s *Service) mintActionLinks(ctx context.Context, userID uint) mail.ActionLinks {
	approveTok := uuid.NewString()
	rejectTok := uuid.NewString()
	id := strconv.FormatUint(uint64(userID), 10)
	if err := utils.StoreActionToken(ctx, s.rdb, approveTok, "approve:"+id, actionTokenTTL); err != nil {
		logrus.WithField("error", err.Error()).Error("Failed to store approve token")
		return mail.ActionLinks{}
	}
	if err := utils.StoreActionToken(ctx, s.rdb, rejectTok, "reject:"+id, actionTokenTTL); err != nil {
		logrus.WithField("error", err.Error()).Error("Failed to store reject token")
		return mail.ActionLinks{}
	}
	return mail.ActionLinks{
		Approve: s.baseURL + "/api/kyc/approve?token=" + approveTok,
		Reject:  s.baseURL + "/api/kyc/reject?token=" + rejectTok,
	}
}

// invalidateStatus drops the cached status poll result after a mutation
func (s *Service) invalidateStatus(ctx context.Context, userID uint) {
	_ = utils.DeleteCache(ctx, s.rdb, statusCacheKey(userID))
}

func statusCacheKey(userID uint) string {
	return "kycstatus:user:" + strconv.FormatUint(uint64(userID), 10)
}
