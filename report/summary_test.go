package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kashflo/models"
)

func TestSpendingSummary_Year(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "s@example.com")

	salary := seedCategory(t, db, user, "Salary")
	seedTx(t, db, user, salary, models.TransactionIncome, "3000.00", day(2024, time.January, 1))
	seedTx(t, db, user, salary, models.TransactionIncome, "3000.50", day(2024, time.February, 1))
	// 转账和退款不计入收支
	seedTx(t, db, user, salary, models.TransactionTransfer, "500.00", day(2024, time.February, 2))
	seedTx(t, db, user, salary, models.TransactionRefund, "20.00", day(2024, time.February, 3))

	spend := map[string]string{
		"Rent":      "1200.00",
		"Food":      "300.25",
		"Travel":    "300.25",
		"Fun":       "80.00",
		"Books":     "40.00",
		"Utilities": "10.00",
	}
	for name, amount := range spend {
		c := seedCategory(t, db, user, name)
		seedTx(t, db, user, c, models.TransactionExpense, amount, day(2024, time.March, 10))
	}

	summary, err := New(db).SpendingSummary(context.Background(), user, 2024, 0)
	require.NoError(t, err)

	assert.Equal(t, "2024", summary.Period)
	assert.Equal(t, "6000.5", summary.TotalIncome.String())
	assert.Equal(t, "1930.5", summary.TotalExpenses.String())
	assert.Equal(t, "4070", summary.NetSavings.String())

	require.Len(t, summary.TopSpendingCategories, 5)
	names := make([]string, 0, 5)
	for _, c := range summary.TopSpendingCategories {
		names = append(names, c.Category)
	}
	// Food 与 Travel 金额相同，按名称排序
	assert.Equal(t, []string{"Rent", "Food", "Travel", "Fun", "Books"}, names)

	out, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"period": "2024",
		"total_income": 6000.5,
		"total_expenses": 1930.5,
		"net_savings": 4070,
		"top_spending_categories": [
			{"category": "Rent", "amount": 1200},
			{"category": "Food", "amount": 300.25},
			{"category": "Travel", "amount": 300.25},
			{"category": "Fun", "amount": 80},
			{"category": "Books", "amount": 40}
		]
	}`, string(out))
}

func TestSpendingSummary_Month(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "m@example.com")
	food := seedCategory(t, db, user, "Food")

	seedTx(t, db, user, food, models.TransactionExpense, "10.00", day(2024, time.March, 1))
	seedTx(t, db, user, food, models.TransactionExpense, "20.00", day(2024, time.April, 1))
	// 下月第一秒不计入
	seedTx(t, db, user, food, models.TransactionExpense, "40.00", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	summary, err := New(db).SpendingSummary(context.Background(), user, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", summary.Period)
	assert.Equal(t, "10", summary.TotalExpenses.String())
	assert.Equal(t, "-10", summary.NetSavings.String())
}

func TestSpendingSummary_Empty(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "e@example.com")

	summary, err := New(db).SpendingSummary(context.Background(), user, 2030, 0)
	require.NoError(t, err)
	assert.True(t, summary.TotalIncome.IsZero())
	assert.True(t, summary.NetSavings.IsZero())

	out, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"top_spending_categories":[]`)
}

func TestSpendingSummary_Errors(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "x@example.com")
	r := New(db)

	_, err := r.SpendingSummary(context.Background(), models.UserContext{UserID: uuid.New()}, 2024, 0)
	assert.ErrorIs(t, err, ErrMissingUserContext)

	_, err = r.SpendingSummary(context.Background(), user, 2024, 13)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
