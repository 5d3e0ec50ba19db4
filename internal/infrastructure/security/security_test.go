package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// SessionManagerTestSuite provides a test suite for SessionManager
type SessionManagerTestSuite struct {
	suite.Suite
	cfg      *config.AuthConfig
	sessions *SessionManager
	clock    time.Time
}

func (suite *SessionManagerTestSuite) SetupTest() {
	suite.cfg = &config.AuthConfig{
		SessionSecret:     "test-secret-key-for-testing-only-32-bytes",
		SessionTTL:        time.Hour,
		SessionCookieName: "kitchen_session",
		SecureCookies:     true,
	}

	var err error
	suite.sessions, err = NewSessionManager(suite.cfg, zap.NewNop())
	suite.Require().NoError(err)

	suite.clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.sessions.now = func() time.Time { return suite.clock }
}

// issue returns a request carrying the cookie set by Issue
func (suite *SessionManagerTestSuite) issue(userID uuid.UUID) (*http.Request, *http.Cookie) {
	rec := httptest.NewRecorder()
	suite.Require().NoError(suite.sessions.Issue(rec, userID, "cook@example.com"))

	cookies := rec.Result().Cookies()
	suite.Require().Len(cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(cookies[0])
	return req, cookies[0]
}

func (suite *SessionManagerTestSuite) TestIssueAndParse() {
	userID := uuid.New()

	req, cookie := suite.issue(userID)

	suite.Equal("kitchen_session", cookie.Name)
	suite.True(cookie.HttpOnly)
	suite.True(cookie.Secure)
	suite.Equal(http.SameSiteLaxMode, cookie.SameSite)
	suite.Equal(3600, cookie.MaxAge)

	claims, err := suite.sessions.Parse(req)
	suite.Require().NoError(err)
	got, err := claims.UserID()
	suite.Require().NoError(err)
	suite.Equal(userID, got)
	suite.Equal("cook@example.com", claims.Email)
}

func (suite *SessionManagerTestSuite) TestNoCookie() {
	_, err := suite.sessions.Parse(httptest.NewRequest(http.MethodGet, "/", nil))
	suite.ErrorIs(err, ErrNoSession)
}

func (suite *SessionManagerTestSuite) TestExpired() {
	req, _ := suite.issue(uuid.New())

	suite.clock = suite.clock.Add(2 * time.Hour)

	_, err := suite.sessions.Parse(req)
	suite.ErrorIs(err, jwt.ErrTokenExpired)
}

func (suite *SessionManagerTestSuite) TestForeignSecret() {
	req, _ := suite.issue(uuid.New())

	other, err := NewSessionManager(&config.AuthConfig{
		SessionSecret:     "a-completely-different-secret-value",
		SessionTTL:        time.Hour,
		SessionCookieName: "kitchen_session",
	}, zap.NewNop())
	suite.Require().NoError(err)
	other.now = suite.sessions.now

	_, err = other.Parse(req)
	suite.ErrorIs(err, jwt.ErrTokenSignatureInvalid)
}

func (suite *SessionManagerTestSuite) TestNoneAlgorithmRejected() {
	claims := &SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(suite.clock.Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	suite.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "kitchen_session", Value: token})

	_, err = suite.sessions.Parse(req)
	suite.Error(err)
}

func (suite *SessionManagerTestSuite) TestClear() {
	rec := httptest.NewRecorder()

	suite.sessions.Clear(rec)

	cookies := rec.Result().Cookies()
	suite.Require().Len(cookies, 1)
	suite.Equal("kitchen_session", cookies[0].Name)
	suite.Empty(cookies[0].Value)
	suite.Less(cookies[0].MaxAge, 0)
}

func (suite *SessionManagerTestSuite) TestEphemeralSecret() {
	sessions, err := NewSessionManager(&config.AuthConfig{SessionTTL: time.Hour, SessionCookieName: "s"}, zap.NewNop())
	suite.Require().NoError(err)
	suite.Len(sessions.secret, 32)
}

func TestSessionManagerTestSuite(t *testing.T) {
	suite.Run(t, new(SessionManagerTestSuite))
}

func TestRateLimiter(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(60, 2, 10*time.Minute)
	limiter.now = func() time.Time { return clock }

	t.Run("burst then refill", func(t *testing.T) {
		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))

		clock = clock.Add(time.Second)
		assert.True(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		assert.True(t, limiter.Allow("10.0.0.2"))
	})

	t.Run("idle keys are cleaned up", func(t *testing.T) {
		require.Equal(t, 2, limiter.Len())

		clock = clock.Add(11 * time.Minute)
		assert.True(t, limiter.Allow("10.0.0.3"))

		assert.Equal(t, 2, limiter.Cleanup())
		assert.Equal(t, 1, limiter.Len())
	})
}

type signupRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required,max=10,no_xss"`
	Ignored   string `json:"-" validate:"omitempty"`
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	assert.Nil(t, v.Validate(&signupRequest{Email: "a@b.co", FirstName: "Wanjiru"}))

	appErr := v.Validate(&signupRequest{Email: "nope", FirstName: "<script>x"})
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
	assert.Equal(t, 400, appErr.StatusCode())

	fieldErrs, ok := appErr.Metadata["validation_errors"].(apperrors.ValidationErrors)
	require.True(t, ok)
	require.Len(t, fieldErrs, 2)
	assert.Equal(t, "email", fieldErrs[0].Field)
	assert.Equal(t, "email must be a valid email", fieldErrs[0].Message)
	assert.Equal(t, "firstName", fieldErrs[1].Field)
	assert.Equal(t, "no_xss", fieldErrs[1].Tag)
}
