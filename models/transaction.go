package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType 交易类型
type TransactionType string

const (
	TransactionIncome   TransactionType = "income"
	TransactionExpense  TransactionType = "expense"
	TransactionTransfer TransactionType = "transfer"
	TransactionRefund   TransactionType = "refund"
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit card"
	PaymentBankTransfer PaymentMethod = "bank transfer"
	PaymentCash         PaymentMethod = "cash"
	PaymentUPI          PaymentMethod = "upi"
)

// AccountType 账户类型
type AccountType string

const (
	AccountSavings    AccountType = "savings"
	AccountChecking   AccountType = "checking"
	AccountBusiness   AccountType = "business"
	AccountInvestment AccountType = "investment"
)

// TransactionTypes 所有交易类型
var TransactionTypes = []TransactionType{TransactionIncome, TransactionExpense, TransactionTransfer, TransactionRefund}

// PaymentMethods 所有支付方式
var PaymentMethods = []PaymentMethod{PaymentCreditCard, PaymentBankTransfer, PaymentCash, PaymentUPI}

// AccountTypes 所有账户类型
var AccountTypes = []AccountType{AccountSavings, AccountChecking, AccountBusiness, AccountInvestment}

func (t TransactionType) Valid() bool {
	for _, v := range TransactionTypes {
		if t == v {
			return true
		}
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if m == v {
			return true
		}
	}
	return false
}

func (a AccountType) Valid() bool {
	for _, v := range AccountTypes {
		if a == v {
			return true
		}
	}
	return false
}

// Transaction 交易记录，金额使用定点小数存储
type Transaction struct {
	DefaultModel
	UserID          uuid.UUID           `json:"user_id" gorm:"type:char(36);not null;index:idx_transactions_user_date"`
	User            User                `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CategoryID      uuid.UUID           `json:"category_id" gorm:"type:char(36);not null;index"`
	Category        Category            `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	Name            string              `json:"name" gorm:"size:100;not null"`
	TransactionDate time.Time           `json:"transaction_date" gorm:"not null;index:idx_transactions_user_date"`
	Amount          decimal.Decimal     `json:"amount" gorm:"type:DECIMAL(12,2);not null"`
	TransactionType TransactionType     `json:"transaction_type" gorm:"size:20;not null;index"`
	PaymentMethod   PaymentMethod       `json:"payment_method" gorm:"size:20;not null"`
	Account         AccountType         `json:"account" gorm:"size:20;not null"`
	Description     string              `json:"description" gorm:"size:500"`
	BalanceAfter    decimal.NullDecimal `json:"balance_after" gorm:"type:DECIMAL(12,2)"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

// BeforeSave 校验枚举、统一时区为 UTC
func (t *Transaction) BeforeSave(_ *gorm.DB) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Description = strings.TrimSpace(t.Description)

	if !t.TransactionType.Valid() {
		return fmt.Errorf("invalid transaction type %q", t.TransactionType)
	}
	if !t.PaymentMethod.Valid() {
		return fmt.Errorf("invalid payment method %q", t.PaymentMethod)
	}
	if !t.Account.Valid() {
		return fmt.Errorf("invalid account %q", t.Account)
	}

	if t.TransactionDate.IsZero() {
		t.TransactionDate = time.Now().UTC()
	} else {
		t.TransactionDate = t.TransactionDate.UTC()
	}
	return nil
}

// AfterFind 日期统一为 UTC
func (t *Transaction) AfterFind(tx *gorm.DB) error {
	if err := t.DefaultModel.AfterFind(tx); err != nil {
		return err
	}
	t.TransactionDate = t.TransactionDate.In(time.UTC)
	return nil
}
