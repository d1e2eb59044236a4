package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kashflo/database"
	"kashflo/models"
)

// CategorySummary 某月某类别的汇总
type CategorySummary struct {
	Category         string
	TotalAmount      decimal.Decimal
	TransactionCount int64
}

// MarshalJSON 金额仅在序列化时转为浮点
func (s CategorySummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category         string  `json:"category"`
		TotalAmount      float64 `json:"total_amount"`
		TransactionCount int64   `json:"transaction_count"`
	}{
		Category:         s.Category,
		TotalAmount:      s.TotalAmount.Round(2).InexactFloat64(),
		TransactionCount: s.TransactionCount,
	})
}

// MonthCategories 一个月份下的类别汇总，顺序与查询顺序一致
type MonthCategories struct {
	Month      time.Month
	Categories []CategorySummary
}

// YearReport 按月份名组织的类别汇总，月份按日历顺序排列，只包含有数据的月份
type YearReport struct {
	Year   int
	Months []MonthCategories
}

// MonthNames 报表中出现的月份名，一月在前
func (r *YearReport) MonthNames() []string {
	names := make([]string, 0, len(r.Months))
	for _, m := range r.Months {
		names = append(names, m.Month.String())
	}
	return names
}

// Month 按月份名取数据
func (r *YearReport) Month(name string) ([]CategorySummary, bool) {
	for _, m := range r.Months {
		if m.Month.String() == name {
			return m.Categories, true
		}
	}
	return nil, false
}

// MarshalJSON 输出 {"January": [...], "March": [...]}，键按日历顺序
func (r *YearReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range r.Months {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Month.String())
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.Categories)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// categoryRow 聚合查询的一行
type categoryRow struct {
	MonthNum         int
	CategoryName     string
	TotalAmount      decimal.Decimal
	TransactionCount int64
}

// Reporter 报表查询
type Reporter struct {
	db *gorm.DB
}

// New 创建 Reporter
func New(db *gorm.DB) *Reporter {
	return &Reporter{db: db}
}

// YearWiseCategoryReport 指定年份内按月、按类别汇总用户的交易
// exclude 中的类别名在每个月中都会被剔除
func (r *Reporter) YearWiseCategoryReport(ctx context.Context, user models.UserContext, year int, exclude []string) (*YearReport, error) {
	if !user.Valid() {
		return nil, ErrMissingUserContext
	}
	period, err := YearPeriod(year)
	if err != nil {
		return nil, err
	}

	var rows []categoryRow
	err = database.WithSession(ctx, r.db, func(tx *gorm.DB) error {
		if err := ensureUser(tx, user); err != nil {
			return err
		}

		month := database.MonthOf(tx, "transactions.transaction_date")
		return tx.Table("transactions").
			Select(month+" AS month_num, categories.name AS category_name, "+
				"SUM(transactions.amount) AS total_amount, COUNT(transactions.id) AS transaction_count").
			Joins("JOIN categories ON categories.id = transactions.category_id").
			Where("transactions.user_id = ?", user.UserID).
			Where("transactions.transaction_date >= ? AND transactions.transaction_date <= ?", period.Start, period.Last()).
			Group(month + ", categories.id, categories.name").
			Order("month_num ASC, categories.name ASC").
			Scan(&rows).Error
	})
	if err != nil {
		if isSoft(err) {
			return nil, err
		}
		return nil, fmt.Errorf("year-wise category report: %w", err)
	}

	rows = excludeCategories(rows, exclude)
	if len(rows) == 0 {
		return nil, ErrNoTransactions
	}

	return reshape(year, rows), nil
}

// excludeCategories 剔除名称在 exclude 中的分组
func excludeCategories(rows []categoryRow, exclude []string) []categoryRow {
	if len(exclude) == 0 {
		return rows
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		skip[name] = struct{}{}
	}
	kept := make([]categoryRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := skip[row.CategoryName]; ok {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

// reshape 将扁平的 (月, 类别) 行按月份分桶，月份按日历顺序排列
func reshape(year int, rows []categoryRow) *YearReport {
	var buckets [12][]CategorySummary
	for _, row := range rows {
		if row.MonthNum < 1 || row.MonthNum > 12 {
			continue
		}
		buckets[row.MonthNum-1] = append(buckets[row.MonthNum-1], CategorySummary{
			Category:         row.CategoryName,
			TotalAmount:      row.TotalAmount.Round(2),
			TransactionCount: row.TransactionCount,
		})
	}

	report := &YearReport{Year: year}
	for i, categories := range buckets {
		if len(categories) == 0 {
			continue
		}
		report.Months = append(report.Months, MonthCategories{
			Month:      time.Month(i + 1),
			Categories: categories,
		})
	}
	return report
}

// ensureUser 用户必须存在
func ensureUser(tx *gorm.DB, user models.UserContext) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", user.UserID).Count(&count).Error; err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	if count == 0 {
		return ErrMissingUserContext
	}
	return nil
}

func isSoft(err error) bool {
	return errors.Is(err, ErrMissingUserContext) || errors.Is(err, ErrNoTransactions)
}
