package main

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kashflo/database"
	"kashflo/models"
	"kashflo/service"
)

func TestRun_IsIdempotentForUsersAndCategories(t *testing.T) {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(sqlite.Open("file:" + name + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	require.NoError(t, database.Migrate(db))

	opts := options{
		Years:         []int{2024},
		PerCategory:   2,
		Users:         []service.SignupInput{{FirstName: "Alice", LastName: "J", Email: "alice@example.com", Password: "Password123!"}},
		CategoryNames: []string{"Food", "Travel"},
		Rand:          rand.New(rand.NewPCG(1, 2)),
	}
	require.NoError(t, run(context.Background(), db, opts))
	require.NoError(t, run(context.Background(), db, opts))

	var users, categories, transactions int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Category{}).Count(&categories).Error)
	require.NoError(t, db.Model(&models.Transaction{}).Count(&transactions).Error)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(2), categories)
	assert.Equal(t, int64(8), transactions)
}

func TestRandomTransaction(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 50; i++ {
		in := randomTransaction(r, uuid.New(), "Food", 2023)
		assert.Equal(t, 2023, in.TransactionDate.Year())
		assert.True(t, in.Amount.IsPositive())
		assert.LessOrEqual(t, -in.Amount.Exponent(), int32(2))
		assert.True(t, in.TransactionType.Valid())
		assert.True(t, in.PaymentMethod.Valid())
		assert.True(t, in.Account.Valid())
	}
}
