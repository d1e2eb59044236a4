package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"kashflo/config"
	"kashflo/models"
	"kashflo/report"
	"kashflo/service"
)

const (
	msgNoContext         = "User context not provided"
	msgNoYearTransaction = "No transactions found for the specified year"
	defaultRecentLimit   = 10
	maxRecentLimit       = 100
)

// Result 工具返回值，序列化为 JSON 后交给模型
type Result map[string]interface{}

// Handler 工具实现，不向循环返回 error，失败以 {"error": ...} 表示
type Handler func(ctx context.Context, user models.UserContext, args json.RawMessage) Result

// Tool 模型可调用的工具
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Handler     Handler
}

func (t Tool) definition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		},
	}
}

// Toolset 基于报表和服务层的工具集合
type Toolset struct {
	reports      *report.Reporter
	categories   *service.CategoryService
	transactions *service.TransactionService
}

// NewToolset 创建工具集合
func NewToolset(reports *report.Reporter, categories *service.CategoryService, transactions *service.TransactionService) *Toolset {
	return &Toolset{reports: reports, categories: categories, transactions: transactions}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(strings.TrimSpace(string(args))) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

func failure(tool string, err error) Result {
	log.Error().Err(err).Str("tool", tool).Msg("agent tool failed")
	toolCalls.WithLabelValues(tool, "error").Inc()
	return Result{"error": config.SafeErrorMessage(err, "internal error while running "+tool)}
}

func soft(tool string, r Result) Result {
	toolCalls.WithLabelValues(tool, "soft").Inc()
	return r
}

func ok(tool string, r Result) Result {
	toolCalls.WithLabelValues(tool, "ok").Inc()
	return r
}

// YearWiseCategoryReport 年度按月类别汇总
func (ts *Toolset) YearWiseCategoryReport() Tool {
	const name = "get_year_wise_category_report"
	return Tool{
		Name:        name,
		Description: "Get a year-wise category report showing monthly spending by category for the current user.",
		Parameters: objectSchema(map[string]interface{}{
			"year": map[string]interface{}{
				"type":        "integer",
				"description": "The year to generate the report for, e.g. 2024",
			},
			"exclude_categories": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Optional category names to leave out of the report",
			},
		}, "year"),
		Handler: func(ctx context.Context, user models.UserContext, raw json.RawMessage) Result {
			if !user.Valid() {
				return soft(name, Result{"error": msgNoContext})
			}
			var args struct {
				Year              int      `json:"year"`
				ExcludeCategories []string `json:"exclude_categories"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return soft(name, Result{"error": "invalid arguments: " + err.Error()})
			}

			data, err := ts.reports.YearWiseCategoryReport(ctx, user, args.Year, args.ExcludeCategories)
			switch {
			case errors.Is(err, report.ErrMissingUserContext):
				return soft(name, Result{"error": msgNoContext})
			case errors.Is(err, report.ErrNoTransactions):
				return soft(name, Result{"message": msgNoYearTransaction})
			case errors.Is(err, report.ErrInvalidPeriod):
				return soft(name, Result{"error": err.Error()})
			case err != nil:
				return failure(name, err)
			}
			return ok(name, Result{"data": data})
		},
	}
}

// SpendingSummary 收支汇总
func (ts *Toolset) SpendingSummary() Tool {
	const name = "get_spending_summary"
	return Tool{
		Name:        name,
		Description: "Get total income, total expenses, net savings and the top spending categories for a year, or for one month of that year.",
		Parameters: objectSchema(map[string]interface{}{
			"year": map[string]interface{}{
				"type":        "integer",
				"description": "The year to analyze",
			},
			"month": map[string]interface{}{
				"type":        "integer",
				"description": "Optional month (1-12); omit for the whole year",
			},
		}, "year"),
		Handler: func(ctx context.Context, user models.UserContext, raw json.RawMessage) Result {
			if !user.Valid() {
				return soft(name, Result{"error": msgNoContext})
			}
			var args struct {
				Year  int `json:"year"`
				Month int `json:"month"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return soft(name, Result{"error": "invalid arguments: " + err.Error()})
			}

			summary, err := ts.reports.SpendingSummary(ctx, user, args.Year, args.Month)
			switch {
			case errors.Is(err, report.ErrMissingUserContext):
				return soft(name, Result{"error": msgNoContext})
			case errors.Is(err, report.ErrInvalidPeriod):
				return soft(name, Result{"error": err.Error()})
			case err != nil:
				return failure(name, err)
			}

			// 直接展开为顶层字段
			var flat Result
			b, err := json.Marshal(summary)
			if err == nil {
				err = json.Unmarshal(b, &flat)
			}
			if err != nil {
				return failure(name, err)
			}
			return ok(name, flat)
		},
	}
}

func categoryResult(c *models.Category) map[string]interface{} {
	return map[string]interface{}{
		"id":          c.ID.String(),
		"name":        c.Name,
		"description": c.Description,
		"is_active":   c.IsActive,
	}
}

// Categories 用户启用中的类别
func (ts *Toolset) Categories() Tool {
	const name = "get_categories"
	return Tool{
		Name:        name,
		Description: "List the current user's active spending categories.",
		Parameters:  objectSchema(map[string]interface{}{}),
		Handler: func(ctx context.Context, user models.UserContext, _ json.RawMessage) Result {
			if !user.Valid() {
				return soft(name, Result{"error": msgNoContext})
			}
			list, err := ts.categories.List(ctx, user, true)
			if err != nil {
				return failure(name, err)
			}
			if len(list) == 0 {
				return soft(name, Result{"message": "No categories found"})
			}
			out := make([]map[string]interface{}, 0, len(list))
			for i := range list {
				out = append(out, categoryResult(&list[i]))
			}
			return ok(name, Result{"categories": out})
		},
	}
}

// CreateCategory 创建类别，已存在时返回已有类别
func (ts *Toolset) CreateCategory() Tool {
	const name = "create_category"
	return Tool{
		Name:        name,
		Description: "Create a new spending category for the current user. If a category with the same name exists it is returned instead.",
		Parameters: objectSchema(map[string]interface{}{
			"category_name": map[string]interface{}{
				"type":        "string",
				"description": "The name of the new category",
			},
			"category_description": map[string]interface{}{
				"type":        "string",
				"description": "A brief description of the category",
			},
		}, "category_name"),
		Handler: func(ctx context.Context, user models.UserContext, raw json.RawMessage) Result {
			if !user.Valid() {
				return soft(name, Result{"error": msgNoContext})
			}
			var args struct {
				Name        string `json:"category_name"`
				Description string `json:"category_description"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return soft(name, Result{"error": "invalid arguments: " + err.Error()})
			}

			category, err := ts.categories.Create(ctx, user, service.CategoryInput{Name: args.Name, Description: args.Description})
			switch {
			case errors.Is(err, service.ErrCategoryExists) && category != nil:
				return soft(name, Result{"message": "Category already present", "category": categoryResult(category)})
			case errors.Is(err, service.ErrCategoryExists):
				return soft(name, Result{"message": "Category already present"})
			case errors.Is(err, service.ErrInvalidCategory):
				return soft(name, Result{"error": err.Error()})
			case err != nil:
				return failure(name, err)
			}
			return ok(name, Result{"message": "Category successfully created", "category": categoryResult(category)})
		},
	}
}

// UserTransactions 最近的交易记录
func (ts *Toolset) UserTransactions() Tool {
	const name = "get_user_transactions"
	return Tool{
		Name:        name,
		Description: "Get the current user's most recent transactions, newest first, optionally only for one category.",
		Parameters: objectSchema(map[string]interface{}{
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of transactions to return (default 10)",
			},
			"category_name": map[string]interface{}{
				"type":        "string",
				"description": "Optional category name to filter by",
			},
		}),
		Handler: func(ctx context.Context, user models.UserContext, raw json.RawMessage) Result {
			if !user.Valid() {
				return soft(name, Result{"error": msgNoContext})
			}
			var args struct {
				Limit        int    `json:"limit"`
				CategoryName string `json:"category_name"`
			}
			if err := decodeArgs(raw, &args); err != nil {
				return soft(name, Result{"error": "invalid arguments: " + err.Error()})
			}
			if args.Limit <= 0 {
				args.Limit = defaultRecentLimit
			}
			if args.Limit > maxRecentLimit {
				args.Limit = maxRecentLimit
			}

			page, err := ts.transactions.List(ctx, user, service.ListOptions{Page: 1, Limit: args.Limit, CategoryName: args.CategoryName})
			if err != nil {
				return failure(name, err)
			}
			if len(page.Transactions) == 0 {
				return soft(name, Result{"message": "No transactions found"})
			}

			out := make([]map[string]interface{}, 0, len(page.Transactions))
			for _, t := range page.Transactions {
				out = append(out, map[string]interface{}{
					"id":               t.ID.String(),
					"name":             t.Name,
					"amount":           t.Amount.Round(2).InexactFloat64(),
					"transaction_type": string(t.TransactionType),
					"transaction_date": t.TransactionDate.Format("2006-01-02T15:04:05Z07:00"),
					"category":         t.Category.Name,
					"payment_method":   string(t.PaymentMethod),
					"account":          string(t.Account),
					"description":      t.Description,
				})
			}
			return ok(name, Result{"transactions": out})
		},
	}
}
