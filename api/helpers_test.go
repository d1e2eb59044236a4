package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kashflo/config"
	"kashflo/database"
	"kashflo/middleware"
	"kashflo/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(sqlite.Open("file:" + name + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func initTestJWT(t *testing.T) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT: config.JWTConfig{
			AccessSecret:      "test-access",
			RefreshSecret:     "test-refresh",
			AccessExpireTime:  time.Hour,
			RefreshExpireTime: 24 * time.Hour,
		},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	t.Cleanup(func() { config.GlobalConfig = nil })
}

// asUser 跳过令牌解析，直接写入用户上下文
func asUser(user models.UserContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetUserContext(c, user)
		c.Next()
	}
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.UserContext {
	t.Helper()
	u := models.User{FirstName: "Ada", LastName: "Lovelace", Email: email, Password: "hash"}
	require.NoError(t, db.Create(&u).Error)
	return u.Context()
}

func seedCategory(t *testing.T, db *gorm.DB, user models.UserContext, name string) models.Category {
	t.Helper()
	c := models.Category{UserID: user.UserID, Name: name, IsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedTx(t *testing.T, db *gorm.DB, user models.UserContext, c models.Category, kind models.TransactionType, amount string, at time.Time) models.Transaction {
	t.Helper()
	tr := models.Transaction{
		UserID:          user.UserID,
		CategoryID:      c.ID,
		Name:            c.Name + " " + amount,
		TransactionDate: at,
		Amount:          decimal.RequireFromString(amount),
		TransactionType: kind,
		PaymentMethod:   models.PaymentCash,
		Account:         models.AccountSavings,
	}
	require.NoError(t, db.Create(&tr).Error)
	return tr
}

func doJSON(router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = new(bytes.Buffer)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
