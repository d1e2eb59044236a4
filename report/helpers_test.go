package report

import (
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kashflo/database"
	"kashflo/models"
)

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

func seedUser(t *testing.T, db *gorm.DB, email string) models.UserContext {
	t.Helper()
	u := models.User{FirstName: "Test", LastName: "User", Email: email, Password: "hash"}
	require.NoError(t, db.Create(&u).Error)
	return u.Context()
}

func seedCategory(t *testing.T, db *gorm.DB, user models.UserContext, name string) models.Category {
	t.Helper()
	c := models.Category{UserID: user.UserID, Name: name, IsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedTx(t *testing.T, db *gorm.DB, user models.UserContext, c models.Category, kind models.TransactionType, amount string, at time.Time) {
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
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}
