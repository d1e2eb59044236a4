package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kashflo/models"
)

const (
	// DefaultPageSize 默认每页条数
	DefaultPageSize = 20
	// MaxPageSize 每页最大条数
	MaxPageSize = 100
)

// TransactionInput 创建交易
type TransactionInput struct {
	CategoryID      uuid.UUID
	Name            string
	Description     string
	Amount          decimal.Decimal
	TransactionDate time.Time
	TransactionType models.TransactionType
	PaymentMethod   models.PaymentMethod
	Account         models.AccountType
	BalanceAfter    decimal.NullDecimal
}

// TransactionUpdate 更新交易，nil 字段保持不变
type TransactionUpdate struct {
	CategoryID      *uuid.UUID
	Name            *string
	Description     *string
	Amount          *decimal.Decimal
	TransactionDate *time.Time
	TransactionType *models.TransactionType
	PaymentMethod   *models.PaymentMethod
	Account         *models.AccountType
}

// ListOptions 分页与过滤
type ListOptions struct {
	Page         int
	Limit        int
	CategoryName string
}

// Normalize 修正分页参数
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultPageSize
	}
	if o.Limit > MaxPageSize {
		o.Limit = MaxPageSize
	}
	return o
}

// TransactionPage 分页结果
type TransactionPage struct {
	Page         int                  `json:"page"`
	Limit        int                  `json:"limit"`
	Total        int64                `json:"total_transaction"`
	TotalPages   int64                `json:"total_pages"`
	Transactions []models.Transaction `json:"transactions"`
}

// TransactionService 交易管理，HTTP 接口与智能助手共用
type TransactionService struct {
	db *gorm.DB
}

// NewTransactionService 创建交易服务
func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{db: db}
}

// Create 创建交易，类别必须属于当前用户
func (s *TransactionService) Create(ctx context.Context, user models.UserContext, in TransactionInput) (*models.Transaction, error) {
	t := &models.Transaction{
		UserID:          user.UserID,
		CategoryID:      in.CategoryID,
		Name:            in.Name,
		Description:     in.Description,
		Amount:          in.Amount,
		TransactionDate: in.TransactionDate,
		TransactionType: in.TransactionType,
		PaymentMethod:   in.PaymentMethod,
		Account:         in.Account,
		BalanceAfter:    in.BalanceAfter,
	}
	if err := validateTransaction(t); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ownCategory(tx, user, t.CategoryID); err != nil {
			return err
		}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Get 获取单条交易
func (s *TransactionService) Get(ctx context.Context, user models.UserContext, id uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.WithContext(ctx).Preload("Category").Where("id = ? AND user_id = ?", id, user.UserID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// List 按交易时间倒序分页
func (s *TransactionService) List(ctx context.Context, user models.UserContext, opts ListOptions) (*TransactionPage, error) {
	opts = opts.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("transactions.user_id = ?", user.UserID)
	if name := strings.TrimSpace(opts.CategoryName); name != "" {
		query = query.Joins("JOIN categories ON categories.id = transactions.category_id").
			Where("categories.name = ?", name)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	list := make([]models.Transaction, 0, opts.Limit)
	if err := query.Session(&gorm.Session{}).
		Preload("Category").
		Order("transactions.transaction_date DESC, transactions.created_at DESC").
		Offset((opts.Page - 1) * opts.Limit).
		Limit(opts.Limit).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return &TransactionPage{
		Page:         opts.Page,
		Limit:        opts.Limit,
		Total:        total,
		TotalPages:   (total + int64(opts.Limit) - 1) / int64(opts.Limit),
		Transactions: list,
	}, nil
}

// Between 按交易时间 [start, end) 查询，时间正序
func (s *TransactionService) Between(ctx context.Context, user models.UserContext, start, end time.Time) ([]models.Transaction, error) {
	var list []models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ? AND transaction_date >= ? AND transaction_date < ?", user.UserID, start.UTC(), end.UTC()).
		Order("transaction_date ASC, created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list transactions between: %w", err)
	}
	return list, nil
}

// Update 更新交易
func (s *TransactionService) Update(ctx context.Context, user models.UserContext, id uuid.UUID, in TransactionUpdate) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ?", id, user.UserID).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		if err != nil {
			return fmt.Errorf("get transaction: %w", err)
		}

		if in.CategoryID != nil && *in.CategoryID != t.CategoryID {
			if err := ownCategory(tx, user, *in.CategoryID); err != nil {
				return err
			}
			t.CategoryID = *in.CategoryID
		}
		if in.Name != nil {
			t.Name = *in.Name
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.Amount != nil {
			t.Amount = *in.Amount
		}
		if in.TransactionDate != nil {
			t.TransactionDate = *in.TransactionDate
		}
		if in.TransactionType != nil {
			t.TransactionType = *in.TransactionType
		}
		if in.PaymentMethod != nil {
			t.PaymentMethod = *in.PaymentMethod
		}
		if in.Account != nil {
			t.Account = *in.Account
		}
		if err := validateTransaction(&t); err != nil {
			return err
		}

		if err := tx.Omit("Category", "User").Save(&t).Error; err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete 删除交易
func (s *TransactionService) Delete(ctx context.Context, user models.UserContext, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, user.UserID).Delete(&models.Transaction{})
	if result.Error != nil {
		return fmt.Errorf("delete transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func ownCategory(tx *gorm.DB, user models.UserContext, categoryID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", categoryID, user.UserID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if count == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func validateTransaction(t *models.Transaction) error {
	switch {
	case strings.TrimSpace(t.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidTransaction)
	case t.CategoryID == uuid.Nil:
		return fmt.Errorf("%w: category_id is required", ErrInvalidTransaction)
	case t.Amount.Exponent() < -2 && !t.Amount.Equal(t.Amount.Round(2)):
		return fmt.Errorf("%w: amount has more than two decimal places", ErrInvalidTransaction)
	case !t.TransactionType.Valid():
		return fmt.Errorf("%w: unknown transaction_type %q", ErrInvalidTransaction, t.TransactionType)
	case !t.PaymentMethod.Valid():
		return fmt.Errorf("%w: unknown payment_method %q", ErrInvalidTransaction, t.PaymentMethod)
	case !t.Account.Valid():
		return fmt.Errorf("%w: unknown account %q", ErrInvalidTransaction, t.Account)
	}
	return nil
}
