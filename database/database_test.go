package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"kashflo/config"
	"kashflo/models"
)

func TestDialector(t *testing.T) {
	d, err := Dialector(config.DatabaseConfig{
		Driver: "mysql", Host: "db", Port: "3306",
		Username: "u", Password: "p", DBName: "kashflo", Charset: "utf8mb4",
	})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())
	assert.Equal(t, "u:p@tcp(db:3306)/kashflo?charset=utf8mb4&parseTime=True&loc=UTC", d.(*mysql.Dialector).DSN)

	path := filepath.Join(t.TempDir(), "nested", "k.db")
	d, err = Dialector(config.DatabaseConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
	assert.DirExists(t, filepath.Dir(path))

	_, err = Dialector(config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMonthOf(t *testing.T) {
	mysqlDB := &gorm.DB{Config: &gorm.Config{Dialector: mysql.New(mysql.Config{SkipInitializeWithVersion: true})}}
	assert.Equal(t, "MONTH(transaction_date)", MonthOf(mysqlDB, "transaction_date"))

	db, err := Open(sqlite.Open("file:monthof?mode=memory&cache=shared"))
	require.NoError(t, err)
	expr := MonthOf(db, "d")
	assert.Equal(t, "CAST(strftime('%m', d) AS INTEGER)", expr)

	var month int
	require.NoError(t, db.Raw("SELECT "+MonthOf(db, "'2024-03-15 10:00:00'")).Scan(&month).Error)
	assert.Equal(t, 3, month)
}

func TestMigrateAndWithSession(t *testing.T) {
	db, err := Open(sqlite.Open("file:session?mode=memory&cache=shared&_pragma=foreign_keys(1)"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))

	for _, table := range []interface{}{&models.User{}, &models.RefreshToken{}, &models.EmailVerification{}, &models.Category{}, &models.Transaction{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}

	var one int
	err = WithSession(context.Background(), db, func(tx *gorm.DB) error {
		return tx.Raw("SELECT 1").Scan(&one).Error
	})
	require.NoError(t, err)
	assert.Equal(t, 1, one)

	// 连接在 fn 返回后释放，后续查询不会阻塞
	require.NoError(t, db.Raw("SELECT 2").Scan(&one).Error)
	assert.Equal(t, 2, one)
}

func TestWithSession_ChainedQueriesDoNotShareConditions(t *testing.T) {
	db, err := Open(sqlite.Open("file:chained?mode=memory&cache=shared&_pragma=foreign_keys(1)"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))

	userID := uuid.New()
	var users, rows int64
	err = WithSession(context.Background(), db, func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
			return err
		}
		// 第一条查询的 id 条件若残留，此处联表会报 id 列不明确
		return tx.Table("transactions").
			Select("COUNT(transactions.id)").
			Joins("JOIN categories ON categories.id = transactions.category_id").
			Where("transactions.user_id = ?", userID).
			Scan(&rows).Error
	})
	require.NoError(t, err)
	assert.Zero(t, users)
	assert.Zero(t, rows)
}
