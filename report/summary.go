package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kashflo/database"
	"kashflo/models"
)

// topCategoryLimit 支出排行返回的类别数
const topCategoryLimit = 5

// CategoryAmount 类别支出
type CategoryAmount struct {
	Category string
	Amount   decimal.Decimal
}

// MarshalJSON 金额仅在序列化时转为浮点
func (c CategoryAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}{c.Category, c.Amount.Round(2).InexactFloat64()})
}

// Summary 收支汇总
type Summary struct {
	Period                string
	TotalIncome           decimal.Decimal
	TotalExpenses         decimal.Decimal
	NetSavings            decimal.Decimal
	TopSpendingCategories []CategoryAmount
}

// MarshalJSON 金额仅在序列化时转为浮点
func (s *Summary) MarshalJSON() ([]byte, error) {
	top := s.TopSpendingCategories
	if top == nil {
		top = []CategoryAmount{}
	}
	return json.Marshal(struct {
		Period                string           `json:"period"`
		TotalIncome           float64          `json:"total_income"`
		TotalExpenses         float64          `json:"total_expenses"`
		NetSavings            float64          `json:"net_savings"`
		TopSpendingCategories []CategoryAmount `json:"top_spending_categories"`
	}{
		Period:                s.Period,
		TotalIncome:           s.TotalIncome.Round(2).InexactFloat64(),
		TotalExpenses:         s.TotalExpenses.Round(2).InexactFloat64(),
		NetSavings:            s.NetSavings.Round(2).InexactFloat64(),
		TopSpendingCategories: top,
	})
}

type typeTotal struct {
	TransactionType string
	Total           decimal.Decimal
}

// SpendingSummary 指定年份（可选月份）的收入、支出、结余与支出前五类别
// month 为 0 表示整年
func (r *Reporter) SpendingSummary(ctx context.Context, user models.UserContext, year, month int) (*Summary, error) {
	if !user.Valid() {
		return nil, ErrMissingUserContext
	}
	period, err := NewPeriod(year, month)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Period: period.Label()}
	err = database.WithSession(ctx, r.db, func(tx *gorm.DB) error {
		if err := ensureUser(tx, user); err != nil {
			return err
		}

		var totals []typeTotal
		if err := tx.Model(&models.Transaction{}).
			Select("transaction_type, SUM(amount) AS total").
			Where("user_id = ? AND transaction_date >= ? AND transaction_date < ?", user.UserID, period.Start, period.End).
			Where("transaction_type IN ?", []models.TransactionType{models.TransactionIncome, models.TransactionExpense}).
			Group("transaction_type").
			Scan(&totals).Error; err != nil {
			return fmt.Errorf("sum by type: %w", err)
		}
		for _, t := range totals {
			switch models.TransactionType(t.TransactionType) {
			case models.TransactionIncome:
				summary.TotalIncome = t.Total
			case models.TransactionExpense:
				summary.TotalExpenses = t.Total
			}
		}

		if err := tx.Table("transactions").
			Select("categories.name AS category, SUM(transactions.amount) AS amount").
			Joins("JOIN categories ON categories.id = transactions.category_id").
			Where("transactions.user_id = ? AND transactions.transaction_date >= ? AND transactions.transaction_date < ?",
				user.UserID, period.Start, period.End).
			Where("transactions.transaction_type = ?", models.TransactionExpense).
			Group("categories.id, categories.name").
			Order("SUM(transactions.amount) DESC, categories.name ASC").
			Limit(topCategoryLimit).
			Scan(&summary.TopSpendingCategories).Error; err != nil {
			return fmt.Errorf("top spending categories: %w", err)
		}
		return nil
	})
	if err != nil {
		if isSoft(err) {
			return nil, err
		}
		return nil, fmt.Errorf("spending summary: %w", err)
	}

	summary.TotalIncome = summary.TotalIncome.Round(2)
	summary.TotalExpenses = summary.TotalExpenses.Round(2)
	summary.NetSavings = summary.TotalIncome.Sub(summary.TotalExpenses)
	for i := range summary.TopSpendingCategories {
		summary.TopSpendingCategories[i].Amount = summary.TopSpendingCategories[i].Amount.Round(2)
	}
	return summary, nil
}
