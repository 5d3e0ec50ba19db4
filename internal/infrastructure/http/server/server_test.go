package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/application/assistant"
	"github.com/alchemorsel/kitchen/internal/application/catalog"
	"github.com/alchemorsel/kitchen/internal/application/rating"
	"github.com/alchemorsel/kitchen/internal/application/user"
	kitchenai "github.com/alchemorsel/kitchen/internal/infrastructure/ai"
	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/kitchen/internal/infrastructure/monitoring"
	persistence "github.com/alchemorsel/kitchen/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/kitchen/internal/infrastructure/security"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/alchemorsel/kitchen/test/testutils"
	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const callbackKey = "integration-callback-key"

// ServerTestSuite drives the full router against an in-memory database
type ServerTestSuite struct {
	suite.Suite
	handler  http.Handler
	cookie   *http.Cookie
	ugaliID  int64
	bobotie  int64
	fixtures *testutils.Fixtures
}

func (suite *ServerTestSuite) SetupTest() {
	log := zap.NewNop()
	db := testutils.NewTestDB(suite.T())

	users := persistence.NewUserRepository(db)
	recipes := persistence.NewRecipeRepository(db)
	ratings := persistence.NewRatingRepository(db)
	cache := testutils.NewFakeCache()

	suite.fixtures = testutils.NewFixtures(suite.T(), 42, users, recipes, ratings)
	suite.ugaliID = suite.fixtures.Recipe(func(b *testutils.RecipeBuilder) {
		b.WithName("Ugali").WithCountry("Kenya").WithIngredients("Maize flour", "Water")
	})
	suite.bobotie = suite.fixtures.Recipe(func(b *testutils.RecipeBuilder) {
		b.WithName("Bobotie").WithCountry("South Africa")
	})

	cfg := &config.Config{
		App: config.AppConfig{Name: "Kitchen", Version: "test", Environment: "test"},
		Server: config.ServerConfig{
			Host:              "127.0.0.1",
			RequestTimeout:    5 * time.Second,
			EnableCORS:        true,
			EnableCompression: true,
			AllowedOrigins:    []string{"http://localhost:3000"},
		},
		Auth: config.AuthConfig{
			SessionSecret:     "server-test-secret",
			SessionTTL:        time.Hour,
			SessionCookieName: "kitchen_session",
			OAuthCallbackKey:  callbackKey,
		},
		Monitoring: config.MonitoringConfig{
			EnableMetrics: true,
			MetricsPath:   "/metrics",
			HealthPath:    "/health",
		},
		RateLimit: config.RateLimitConfig{Enable: true, RequestsPerMin: 600, BurstSize: 100},
	}

	sessions, err := security.NewSessionManager(&cfg.Auth, log)
	suite.Require().NoError(err)
	validator := security.NewValidator()
	metrics := monitoring.NewMetricsCollector(log)

	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	health := healthcheck.New("test", log)
	health.SetCacheTTL(0)
	health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	health.Register("cache", healthcheck.NewPingChecker("cache", cache))

	userService := user.NewUserService(users, testutils.Hasher(), log)
	ratingService := rating.NewRatingService(ratings, recipes, log)
	catalogService := catalog.NewCatalogService(recipes, cache, log)
	assistantService := assistant.NewAssistantService(cache, kitchenai.NewOfflineCompleter(), assistant.Options{}, log)

	srv := NewServer(cfg, Dependencies{
		Auth:      handlers.NewAuthHandlers(userService, sessions, validator, metrics, cfg.Auth.OAuthCallbackKey, log),
		Catalog:   handlers.NewCatalogHandlers(catalogService, log),
		Ratings:   handlers.NewRatingHandlers(ratingService, metrics, log),
		Assistant: handlers.NewAssistantHandlers(assistantService, validator, metrics, log),
		Sessions:  sessions,
		Limiter:   security.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, time.Minute),
		Metrics:   metrics,
		Health:    health,
	}, log)

	suite.handler = srv.Handler()
	suite.cookie = nil
}

// do sends a request carrying the current session cookie and tracks the
// cookie the response sets
func (suite *ServerTestSuite) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if suite.cookie != nil {
		req.AddCookie(suite.cookie)
	}

	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name != "kitchen_session" {
			continue
		}
		if c.MaxAge < 0 {
			suite.cookie = nil
		} else {
			suite.cookie = c
		}
	}
	return rec
}

func (suite *ServerTestSuite) decode(rec *httptest.ResponseRecorder, dst interface{}) {
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func (suite *ServerTestSuite) errorCode(rec *httptest.ResponseRecorder) apperrors.ErrorCode {
	var resp apperrors.ErrorResponse
	suite.decode(rec, &resp)
	return resp.Error.Code
}

func (suite *ServerTestSuite) signup(email string) {
	rec := suite.do(http.MethodPost, "/api/signup", map[string]interface{}{
		"email":     email,
		"password":  "jollof-rice-2024",
		"firstName": "Chiamaka",
		"lastName":  "Eze",
	})
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	suite.Require().NotNil(suite.cookie)
}

func (suite *ServerTestSuite) TestAccountFlow() {
	suite.Run("signup opens a session", func() {
		suite.signup("Chiamaka@Example.com")

		rec := suite.do(http.MethodGet, "/api/user", nil)
		suite.Equal(http.StatusOK, rec.Code)

		var me map[string]interface{}
		suite.decode(rec, &me)
		suite.Equal("chiamaka@example.com", me["email"])
		suite.Equal("Chiamaka Eze", me["display_name"])
	})

	suite.Run("logout clears the session", func() {
		rec := suite.do(http.MethodPost, "/api/logout", nil)
		suite.Equal(http.StatusOK, rec.Code)
		suite.Nil(suite.cookie)

		rec = suite.do(http.MethodGet, "/api/user", nil)
		suite.Equal(http.StatusUnauthorized, rec.Code)
	})

	suite.Run("wrong password", func() {
		rec := suite.do(http.MethodPost, "/api/login", map[string]string{
			"email": "chiamaka@example.com", "password": "not-the-password",
		})
		suite.Equal(http.StatusUnauthorized, rec.Code)
		suite.Equal(apperrors.CodeInvalidCredentials, suite.errorCode(rec))
		suite.Nil(suite.cookie)
	})

	suite.Run("login", func() {
		rec := suite.do(http.MethodPost, "/api/login", map[string]string{
			"email": "  CHIAMAKA@example.com", "password": "jollof-rice-2024",
		})
		suite.Equal(http.StatusOK, rec.Code)
		suite.NotNil(suite.cookie)

		var resp handlers.AuthResponse
		suite.decode(rec, &resp)
		suite.True(resp.Success)
		suite.Equal("chiamaka@example.com", resp.User.Email)
	})
}

func (suite *ServerTestSuite) TestSignupErrors() {
	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		code   apperrors.ErrorCode
	}{
		{
			name:   "invalid email",
			body:   map[string]interface{}{"email": "nope", "password": "long enough", "firstName": "A", "lastName": "B"},
			status: http.StatusBadRequest,
			code:   apperrors.CodeValidationFailed,
		},
		{
			name:   "weak password",
			body:   map[string]interface{}{"email": "short@example.com", "password": "1234567", "firstName": "A", "lastName": "B"},
			status: http.StatusBadRequest,
			code:   apperrors.CodeWeakCredential,
		},
		{
			name:   "duplicate email",
			body:   map[string]interface{}{"email": "taken@example.com", "password": "long enough", "firstName": "A", "lastName": "B"},
			status: http.StatusConflict,
			code:   apperrors.CodeDuplicateEmail,
		},
		{
			name:   "duplicate email after normalization",
			body:   map[string]interface{}{"email": "  TAKEN@Example.com ", "password": "long enough", "firstName": "A", "lastName": "B"},
			status: http.StatusConflict,
			code:   apperrors.CodeDuplicateEmail,
		},
	}

	suite.signup("taken@example.com")
	suite.cookie = nil

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			rec := suite.do(http.MethodPost, "/api/signup", tt.body)
			suite.Equal(tt.status, rec.Code)
			suite.Equal(tt.code, suite.errorCode(rec))
		})
	}
}

func (suite *ServerTestSuite) TestSignupNormalizesEmail() {
	rec := suite.do(http.MethodPost, "/api/signup", map[string]interface{}{
		"email":     " Fresh@Example.com",
		"password":  "long enough",
		"firstName": "Ama",
		"lastName":  "Owusu",
	})
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp handlers.AuthResponse
	suite.decode(rec, &resp)
	suite.Equal("fresh@example.com", resp.User.Email)

	suite.cookie = nil
	rec = suite.do(http.MethodPost, "/api/login", map[string]string{
		"email":    "FRESH@example.com  ",
		"password": "long enough",
	})
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *ServerTestSuite) TestRatingFlow() {
	suite.signup("rater@example.com")
	ratingsPath := fmt.Sprintf("/api/ratings/%d", suite.ugaliID)

	// Arrange / Act: first rating through the legacy endpoint
	rec := suite.do(http.MethodPost, "/api/rate-recipe", map[string]interface{}{
		"recipe_id": suite.ugaliID, "rating": 4,
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var saved handlers.RatingSavedResponse
	suite.decode(rec, &saved)
	suite.Equal(4.0, saved.AverageRating)
	suite.Equal(int64(1), saved.RatingCount)

	// Re-rating overwrites
	rec = suite.do(http.MethodPost, ratingsPath, map[string]interface{}{
		"rating": 2, "review": "  too salty ",
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.decode(rec, &saved)
	suite.Equal(2.0, saved.AverageRating)
	suite.Equal(int64(1), saved.RatingCount)

	// Assert: the owner sees their own rating
	rec = suite.do(http.MethodGet, ratingsPath, nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var view map[string]interface{}
	suite.decode(rec, &view)
	suite.Equal(2.0, view["average_rating"])
	suite.Equal(1.0, view["total_ratings"])
	suite.Equal(map[string]interface{}{"rating": 2.0, "review": "too salty"}, view["user_rating"])

	reviews := view["reviews"].([]interface{})
	suite.Require().Len(reviews, 1)
	suite.Equal("Chiamaka Eze", reviews[0].(map[string]interface{})["author_name"])

	rec = suite.do(http.MethodGet, "/api/user/ratings", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var history []map[string]interface{}
	suite.decode(rec, &history)
	suite.Require().Len(history, 1)
	suite.Equal("Ugali", history[0]["recipe_name"])
	suite.Equal("regular", history[0]["recipe_type"])

	// Anonymous callers see the aggregate without an own rating
	suite.cookie = nil
	rec = suite.do(http.MethodGet, ratingsPath, nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	view = nil
	suite.decode(rec, &view)
	suite.Nil(view["user_rating"])
	suite.Equal(1.0, view["total_ratings"])
}

func (suite *ServerTestSuite) TestRatingErrors() {
	rec := suite.do(http.MethodPost, "/api/rate-recipe", map[string]interface{}{"recipe_id": suite.ugaliID, "rating": 5})
	suite.Equal(http.StatusUnauthorized, rec.Code)

	suite.signup("strict@example.com")

	tests := []struct {
		name   string
		path   string
		body   map[string]interface{}
		status int
		code   apperrors.ErrorCode
	}{
		{"score too high", "/api/rate-recipe", map[string]interface{}{"recipe_id": suite.ugaliID, "rating": 6}, http.StatusBadRequest, apperrors.CodeInvalidScore},
		{"score zero", fmt.Sprintf("/api/ratings/%d", suite.ugaliID), map[string]interface{}{"rating": 0}, http.StatusBadRequest, apperrors.CodeInvalidScore},
		{"missing rating", "/api/rate-recipe", map[string]interface{}{"recipe_id": suite.ugaliID}, http.StatusBadRequest, apperrors.CodeBadRequest},
		{"missing recipe id", "/api/rate-recipe", map[string]interface{}{"rating": 3}, http.StatusBadRequest, apperrors.CodeBadRequest},
		{"fractional rating", "/api/rate-recipe", map[string]interface{}{"recipe_id": suite.ugaliID, "rating": 3.5}, http.StatusBadRequest, apperrors.CodeBadRequest},
		{"unknown recipe", "/api/ratings/9999", map[string]interface{}{"rating": 3}, http.StatusNotFound, apperrors.CodeRecipeNotFound},
		{"bad recipe id", "/api/ratings/abc", map[string]interface{}{"rating": 3}, http.StatusBadRequest, apperrors.CodeBadRequest},
		{"unknown category", fmt.Sprintf("/api/ratings/%d", suite.ugaliID), map[string]interface{}{"rating": 3, "recipe_type": "dessert"}, http.StatusBadRequest, apperrors.CodeValidationFailed},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			rec := suite.do(http.MethodPost, tt.path, tt.body)
			suite.Equal(tt.status, rec.Code, rec.Body.String())
			suite.Equal(tt.code, suite.errorCode(rec))
		})
	}

	rec = suite.do(http.MethodGet, "/api/user/ratings", nil)
	suite.Equal(http.StatusOK, rec.Code)
	suite.JSONEq(`[]`, rec.Body.String())
}

func (suite *ServerTestSuite) TestCatalogRoutes() {
	rec := suite.do(http.MethodGet, "/api/recipes", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var recipes []map[string]interface{}
	suite.decode(rec, &recipes)
	suite.Require().Len(recipes, 2)
	suite.Equal("Bobotie", recipes[0]["name"])

	rec = suite.do(http.MethodGet, "/api/search?q=maize", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	recipes = nil
	suite.decode(rec, &recipes)
	suite.Require().Len(recipes, 1)
	suite.Equal("Ugali", recipes[0]["name"])

	rec = suite.do(http.MethodGet, fmt.Sprintf("/api/recipe/%d", suite.bobotie), nil)
	suite.Equal(http.StatusOK, rec.Code)

	rec = suite.do(http.MethodGet, "/api/recipe/9999", nil)
	suite.Equal(http.StatusNotFound, rec.Code)
	suite.Equal(apperrors.CodeRecipeNotFound, suite.errorCode(rec))

	rec = suite.do(http.MethodGet, "/api/countries", nil)
	suite.Equal(http.StatusOK, rec.Code)
	suite.JSONEq(`["Kenya","South Africa"]`, rec.Body.String())

	rec = suite.do(http.MethodGet, "/api/surprise", nil)
	suite.Equal(http.StatusOK, rec.Code)
}

func (suite *ServerTestSuite) TestAssistant() {
	rec := suite.do(http.MethodPost, "/api/assistant/chat", map[string]string{"message": "hi"})
	suite.Equal(http.StatusUnauthorized, rec.Code)

	suite.signup("hungry@example.com")

	rec = suite.do(http.MethodPost, "/api/assistant/chat", map[string]string{"message": "How do I cook ugali?"})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var reply map[string]interface{}
	suite.decode(rec, &reply)
	suite.Equal(true, reply["offline"])
	suite.Equal(2.0, reply["history_length"])
	suite.Contains(reply["reply"], "ugali")

	rec = suite.do(http.MethodPost, "/api/assistant/chat", map[string]string{"message": ""})
	suite.Equal(http.StatusBadRequest, rec.Code)

	rec = suite.do(http.MethodDelete, "/api/assistant/history", nil)
	suite.Equal(http.StatusOK, rec.Code)

	rec = suite.do(http.MethodPost, "/api/assistant/chat", map[string]string{"message": "And pilau?"})
	suite.Require().Equal(http.StatusOK, rec.Code)
	reply = nil
	suite.decode(rec, &reply)
	suite.Equal(2.0, reply["history_length"])
}

func (suite *ServerTestSuite) TestOAuthCallback() {
	identity := map[string]string{
		"email":       "kofi@example.com",
		"first_name":  "Kofi",
		"last_name":   "Mensah",
		"provider":    "google",
		"external_id": "google-1234",
	}

	rec := suite.do(http.MethodPost, "/auth/oauth/callback", identity)
	suite.Equal(http.StatusUnauthorized, rec.Code)

	rec = suite.do(http.MethodPost, "/auth/oauth/callback", identity, handlers.OAuthCallbackKeyHeader, "wrong")
	suite.Equal(http.StatusUnauthorized, rec.Code)

	identity["provider"] = "myspace"
	rec = suite.do(http.MethodPost, "/auth/oauth/callback", identity, handlers.OAuthCallbackKeyHeader, callbackKey)
	suite.Equal(http.StatusBadRequest, rec.Code)

	identity["provider"] = "google"
	rec = suite.do(http.MethodPost, "/auth/oauth/callback", identity, handlers.OAuthCallbackKeyHeader, callbackKey)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	suite.NotNil(suite.cookie)

	rec = suite.do(http.MethodGet, "/api/user", nil)
	suite.Equal(http.StatusOK, rec.Code)
	var me map[string]interface{}
	suite.decode(rec, &me)
	suite.Equal("google", me["oauth_provider"])

	suite.cookie = nil
	rec = suite.do(http.MethodPost, "/auth/oauth/callback", map[string]string{
		"email":       " Efua@Example.com",
		"first_name":  "Efua",
		"provider":    "facebook",
		"external_id": "fb-5678",
	}, handlers.OAuthCallbackKeyHeader, callbackKey)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.AuthResponse
	suite.decode(rec, &resp)
	suite.Equal("efua@example.com", resp.User.Email)
	suite.Equal("facebook", resp.User.OAuthProvider)
}

func (suite *ServerTestSuite) TestOperations() {
	rec := suite.do(http.MethodGet, "/health", nil)
	suite.Equal(http.StatusOK, rec.Code)
	var health map[string]interface{}
	suite.decode(rec, &health)
	suite.Equal("healthy", health["status"])

	suite.do(http.MethodGet, "/api/recipes", nil)
	rec = suite.do(http.MethodGet, "/metrics", nil)
	suite.Equal(http.StatusOK, rec.Code)
	suite.Contains(rec.Body.String(), `http_requests_total{method="GET",path="/api/recipes",status_code="200"} 1`)
}

func (suite *ServerTestSuite) TestErrorsCarryRequestID() {
	rec := suite.do(http.MethodGet, "/api/recipe/0", nil, "X-Request-Id", "req-123")

	suite.Equal(http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	suite.decode(rec, &resp)
	suite.Equal("req-123", resp.Error.RequestID)
	suite.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func (suite *ServerTestSuite) TestBrotliCompression() {
	req := httptest.NewRequest(http.MethodGet, "/api/countries", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	rec := httptest.NewRecorder()

	suite.handler.ServeHTTP(rec, req)

	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.Equal("br", rec.Header().Get("Content-Encoding"))
	body, err := io.ReadAll(brotli.NewReader(rec.Body))
	suite.Require().NoError(err)
	suite.JSONEq(`["Kenya","South Africa"]`, string(body))
}

func (suite *ServerTestSuite) TestNonJSONBodyRejected() {
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString("email=a&password=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	suite.handler.ServeHTTP(rec, req)

	suite.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
