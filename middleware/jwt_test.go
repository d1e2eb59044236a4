package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kashflo/config"
	"kashflo/models"
)

func initJWTTestConfig() {
	config.GlobalConfig = &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT: config.JWTConfig{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		},
	}
	InitJWT(config.GlobalConfig)
}

func testUser() models.UserContext {
	return models.UserContext{UserID: uuid.New(), UserName: "Ada Lovelace", Email: "ada@example.com"}
}

func TestGenerateAccessToken(t *testing.T) {
	initJWTTestConfig()
	defer func() { config.GlobalConfig = nil }()

	user := testUser()
	token, exp, err := GenerateAccessToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user, claims.UserContext())

	// access 令牌不能当作 refresh 使用
	_, err = ParseRefreshToken(token)
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	initJWTTestConfig()
	defer func() { config.GlobalConfig = nil }()

	user := testUser()
	issued, err := GenerateRefreshToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)

	claims, err := ParseRefreshToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.TokenID, claims.ID)
	assert.Equal(t, user.UserID.String(), claims.UserID)

	_, err = ParseAccessToken(issued.Token)
	assert.Error(t, err)
}

func TestParseAccessToken_Invalid(t *testing.T) {
	initJWTTestConfig()
	defer func() { config.GlobalConfig = nil }()

	_, err := ParseAccessToken("")
	assert.Error(t, err)
	_, err = ParseAccessToken("not.a.valid.jwt")
	assert.Error(t, err)
	_, err = ParseAccessToken("eyJhbGciOiJmb29iIn0.xxxx.yyyy")
	assert.Error(t, err)
}

func TestJWTAuth(t *testing.T) {
	initJWTTestConfig()
	defer func() { config.GlobalConfig = nil }()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(JWTAuth())
	router.GET("/protected", func(c *gin.Context) {
		user, ok := GetUserContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(200, "%s|%s", GetCurrentUserID(c), user.Email)
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// 无 token
	w := do("")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "401")

	// 格式错误
	assert.Equal(t, http.StatusUnauthorized, do("Basic xyz").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer ").Code)

	// refresh 令牌不被接受
	user := testUser()
	issued, err := GenerateRefreshToken(user)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+issued.Token).Code)

	// 有效 token
	token, _, err := GenerateAccessToken(user)
	require.NoError(t, err)
	w = do("Bearer " + token)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, user.UserID.String()+"|ada@example.com", w.Body.String())
}

func TestGetCurrentUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uuid.Nil, GetCurrentUserID(c))

	user := testUser()
	SetUserContext(c, user)
	assert.Equal(t, user.UserID, GetCurrentUserID(c))
	got, ok := GetUserContext(c)
	assert.True(t, ok)
	assert.Equal(t, user, got)
}
