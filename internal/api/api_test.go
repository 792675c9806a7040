package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/Arunmathur01/xcoinpay/internal/config"
	"github.com/Arunmathur01/xcoinpay/internal/domain"
	"github.com/Arunmathur01/xcoinpay/internal/kyc"
	"github.com/Arunmathur01/xcoinpay/internal/mail"
	"github.com/Arunmathur01/xcoinpay/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingNotifier captures the emailed action links for tests that walk
// the one-click review flow end to end.
type recordingNotifier struct {
	lastLinks mail.ActionLinks
}

func (r *recordingNotifier) KYCSubmitted(_ *domain.User, _ *domain.Kyc, links mail.ActionLinks) {
	r.lastLinks = links
}
func (r *recordingNotifier) RegistrationWithKYC(_ *domain.User, _ *domain.Kyc, links mail.ActionLinks) {
	r.lastLinks = links
}
func (r *recordingNotifier) KYCReviewed(_ *domain.User, _ bool) {}

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	notifier *recordingNotifier
}

// newTestServer assembles the same route table as cmd/server against an
// in-memory database and redis.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Kyc{}, &domain.Transaction{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		OwnerEmail:    "owner@presale.test",
		AdminEmail:    "owner@presale.test",
		AdminPassword: "admin-pass",
		BaseURL:       "http://presale.test",
	}

	notifier := &recordingNotifier{}
	svc := kyc.NewService(db, rdb, notifier, cfg.BaseURL)

	r := gin.New()
	r.POST("/api/register", RegisterHandler(db, svc, cfg.JWTSecret))
	r.POST("/api/login", LoginHandler(db, cfg.JWTSecret))
	r.POST("/api/admin/login", AdminLoginHandler(cfg))
	r.GET("/api/kyc/approve", KYCActionLinkHandler(svc))
	r.GET("/api/kyc/reject", KYCActionLinkHandler(svc))

	auth := r.Group("/api")
	auth.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	auth.POST("/kyc", SubmitKYCHandler(svc))
	auth.GET("/kyc/status", KYCStatusHandler(svc))
	auth.GET("/kyc/latest", LatestKYCHandler(svc))
	auth.POST("/connect-wallet", ConnectWalletHandler(db))
	auth.POST("/transactions", CreateTransactionHandler(db, rdb))
	auth.GET("/transactions", ListTransactionsHandler(db, rdb))
	auth.GET("/profile", ProfileHandler(db))

	admin := r.Group("/api/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.OwnerOnlyMiddleware(db, cfg.OwnerEmail))
	admin.GET("/kyc", ListKYCHandler(svc))
	admin.POST("/kyc/:kycId/approve", ReviewKYCHandler(svc, true))
	admin.POST("/kyc/:kycId/reject", ReviewKYCHandler(svc, false))

	return &testServer{router: r, db: db, notifier: notifier}
}

// do runs one JSON request through the router
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// register creates a user and returns their bearer token
func (ts *testServer) register(t *testing.T, name, email, password string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/register", "", gin.H{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func sampleKYCBody() gin.H {
	return gin.H{
		"fullName":    "Alice Example",
		"dateOfBirth": "1990-04-01",
		"nationality": "American",
		"passportId":  "P1234567",
		"country":     "US",
		"address":     "1 Main St",
		"city":        "Springfield",
		"postalCode":  "12345",
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/register", "", gin.H{
		"name": "Alice", "email": "alice@x.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	user := body["user"].(map[string]any)
	assert.Equal(t, "none", user["kycStatus"])
	assert.NotEmpty(t, body["token"])

	// Same email again: conflict, and no second row
	w = ts.do(t, http.MethodPost, "/api/register", "", gin.H{
		"name": "Alice Again", "email": "alice@x.com", "password": "secret2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	require.NoError(t, ts.db.Model(&domain.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegisterValidatesInput(t *testing.T) {
	ts := newTestServer(t)

	// Missing password
	w := ts.do(t, http.MethodPost, "/api/register", "", gin.H{"name": "X", "email": "x@x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed email
	w = ts.do(t, http.MethodPost, "/api/register", "", gin.H{"name": "X", "email": "not-an-email", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Alice", "alice@x.com", "secret1")

	// Wrong password and unknown email are indistinguishable
	w := ts.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "alice@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, decode(t, w), "token")

	w = ts.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "nobody@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "alice@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@x.com", user["email"])
}

func TestAdminLogin(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/admin/login", "", gin.H{"email": "owner@presale.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/admin/login", "", gin.H{"email": "owner@presale.test", "password": "admin-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["token"])
}

func TestTransactionsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/transactions", "", gin.H{
		"amount": 100, "tokens": 1000, "bonusTokens": 100, "totalTokens": 1100,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Nothing was written
	var count int64
	require.NoError(t, ts.db.Model(&domain.Transaction{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

// The ledger stores caller-supplied token totals verbatim; it does not
// recompute tokens+bonusTokens. This test documents that trust boundary.
func TestLedgerTrustsCallerTotals(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice", "alice@x.com", "secret1")

	w := ts.do(t, http.MethodPost, "/api/connect-wallet", token, gin.H{
		"walletAddress": "0xabc123", "walletType": "metamask",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// totalTokens deliberately disagrees with tokens+bonusTokens
	w = ts.do(t, http.MethodPost, "/api/transactions", token, gin.H{
		"amount": 100, "tokens": 1000, "bonusTokens": 100, "totalTokens": 9999, "txHash": "0xdeadbeef",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var tx domain.Transaction
	require.NoError(t, ts.db.First(&tx).Error)
	assert.Equal(t, float64(9999), tx.TotalTokens)
	assert.Equal(t, domain.TxStatusCompleted, tx.Status) // defaulted
	assert.Equal(t, "0xabc123", tx.WalletAddress)        // snapshotted from the user row
}

func TestTransactionExplicitFailedStatus(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice", "alice@x.com", "secret1")

	w := ts.do(t, http.MethodPost, "/api/transactions", token, gin.H{
		"amount": 50, "tokens": 500, "bonusTokens": 0, "totalTokens": 500, "status": "failed",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var tx domain.Transaction
	require.NoError(t, ts.db.First(&tx).Error)
	assert.Equal(t, domain.TxStatusFailed, tx.Status)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice", "alice@x.com", "secret1")

	for _, amount := range []float64{10, 20, 30} {
		w := ts.do(t, http.MethodPost, "/api/transactions", token, gin.H{
			"amount": amount, "tokens": amount * 10, "bonusTokens": 0, "totalTokens": amount * 10,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := ts.do(t, http.MethodGet, "/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	txs := body["transactions"].([]any)
	require.Len(t, txs, 3)
}

func TestOwnKYCRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/kyc"},
		{http.MethodGet, "/api/kyc/status"},
		{http.MethodGet, "/api/kyc/latest"},
		{http.MethodGet, "/api/profile"},
	} {
		w := ts.do(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestAdminKYCForbiddenForNonOwner(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Mallory", "mallory@x.com", "secret1")

	w := ts.do(t, http.MethodGet, "/api/admin/kyc", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// Full happy path: register, submit, admin approves by record id, the
// status poll flips to approved.
func TestRegisterSubmitApproveScenario(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice", "alice@x.com", "secret1")

	// Submit KYC
	w := ts.do(t, http.MethodPost, "/api/kyc", token, sampleKYCBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	submitBody := decode(t, w)
	assert.Equal(t, "pending", submitBody["kycStatus"])
	kycID := int(submitBody["kycId"].(float64))
	require.NotZero(t, kycID)

	// Poll: pending
	w = ts.do(t, http.MethodGet, "/api/kyc/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode(t, w)
	assert.Equal(t, "pending", status["kycStatus"])
	assert.Equal(t, false, status["kycCompleted"])

	// Admin logs in and approves by record id
	w = ts.do(t, http.MethodPost, "/api/admin/login", "", gin.H{"email": "owner@presale.test", "password": "admin-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	adminToken := decode(t, w)["token"].(string)

	w = ts.do(t, http.MethodGet, "/api/admin/kyc?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	kycs := decode(t, w)["kycs"].([]any)
	require.Len(t, kycs, 1)
	entry := kycs[0].(map[string]any)
	assert.Equal(t, "alice@x.com", entry["user"].(map[string]any)["email"])

	w = ts.do(t, http.MethodPost, "/api/admin/kyc/"+strconv.Itoa(kycID)+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Poll: approved
	w = ts.do(t, http.MethodGet, "/api/kyc/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status = decode(t, w)
	assert.Equal(t, "approved", status["kycStatus"])
	assert.Equal(t, true, status["kycCompleted"])
	kycRecord := status["kyc"].(map[string]any)
	assert.Equal(t, "approved", kycRecord["status"])
	assert.NotNil(t, kycRecord["reviewedAt"])
}

// The emailed one-click link approves on first use and is dead afterwards.
func TestActionLinkApproveFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice", "alice@x.com", "secret1")

	w := ts.do(t, http.MethodPost, "/api/kyc", token, sampleKYCBody())
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, ts.notifier.lastLinks.Approve)

	// The mailed URL is absolute; strip the base to route it locally
	approvePath := ts.notifier.lastLinks.Approve[len("http://presale.test"):]
	w = ts.do(t, http.MethodGet, approvePath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "approved")

	w = ts.do(t, http.MethodGet, "/api/kyc/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approved", decode(t, w)["kycStatus"])

	// Replay is rejected
	w = ts.do(t, http.MethodGet, approvePath, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActionLinkRejectsBareUserID(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice", "alice@x.com", "secret1")

	w := ts.do(t, http.MethodPost, "/api/kyc", token, sampleKYCBody())
	require.Equal(t, http.StatusOK, w.Code)

	// The legacy bare-userId form carries no token and must not mutate
	w = ts.do(t, http.MethodGet, "/api/kyc/approve?userId=1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/kyc/status", token, nil)
	assert.Equal(t, "pending", decode(t, w)["kycStatus"])
}

func TestRegisterWithInlineKYC(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/register", "", gin.H{
		"name": "Dave", "email": "dave@x.com", "password": "secret1",
		"kycData": sampleKYCBody(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "pending", body["user"].(map[string]any)["kycStatus"])

	// The implicit first submission produced a real Kyc record
	var count int64
	require.NoError(t, ts.db.Model(&domain.Kyc{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.NotEmpty(t, ts.notifier.lastLinks.Approve)
}

func TestProfileExcludesPassword(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "Alice", "alice@x.com", "secret1")

	w := ts.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "alice@x.com", user["email"])
	_, hasPassword := user["password"]
	assert.False(t, hasPassword)
}
