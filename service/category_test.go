package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kashflo/models"
)

func TestCategoryService_Create(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "c@example.com")
	svc := NewCategoryService(db)
	ctx := context.Background()

	created, err := svc.Create(ctx, user, CategoryInput{Name: " Food ", Description: "groceries"})
	require.NoError(t, err)
	assert.Equal(t, "Food", created.Name)
	assert.True(t, created.IsActive)

	// 重复时返回已有类别
	existing, err := svc.Create(ctx, user, CategoryInput{Name: "Food"})
	assert.ErrorIs(t, err, ErrCategoryExists)
	require.NotNil(t, existing)
	assert.Equal(t, created.ID, existing.ID)

	// 其他用户可以同名
	other := createUser(t, db, "other@example.com")
	_, err = svc.Create(ctx, other, CategoryInput{Name: "Food"})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, user, CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestCategoryService_ListAndUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "l@example.com")
	svc := NewCategoryService(db)
	ctx := context.Background()

	food, err := svc.Create(ctx, user, CategoryInput{Name: "Food"})
	require.NoError(t, err)
	rent, err := svc.Create(ctx, user, CategoryInput{Name: "Rent"})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, user, rent.ID, CategoryUpdate{IsActive: &inactive})
	require.NoError(t, err)

	all, err := svc.List(ctx, user, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.List(ctx, user, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Food", active[0].Name)

	// 改名冲突
	name := "Rent"
	_, err = svc.Update(ctx, user, food.ID, CategoryUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrCategoryExists)

	name = "Groceries"
	updated, err := svc.Update(ctx, user, food.ID, CategoryUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Name)

	// 不属于当前用户
	other := createUser(t, db, "o@example.com")
	_, err = svc.Get(ctx, other, food.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	_, err = svc.Update(ctx, user, uuid.New(), CategoryUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryService_Delete(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "d@example.com")
	svc := NewCategoryService(db)
	ctx := context.Background()

	used, err := svc.Create(ctx, user, CategoryInput{Name: "Food"})
	require.NoError(t, err)
	unused, err := svc.Create(ctx, user, CategoryInput{Name: "Misc"})
	require.NoError(t, err)

	_, err = NewTransactionService(db).Create(ctx, user, TransactionInput{
		CategoryID:      used.ID,
		Name:            "lunch",
		Amount:          decimal.RequireFromString("9.99"),
		TransactionDate: time.Now(),
		TransactionType: models.TransactionExpense,
		PaymentMethod:   models.PaymentCash,
		Account:         models.AccountSavings,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, user, used.ID), ErrCategoryInUse)
	assert.NoError(t, svc.Delete(ctx, user, unused.ID))
	assert.ErrorIs(t, svc.Delete(ctx, user, unused.ID), ErrCategoryNotFound)
}
