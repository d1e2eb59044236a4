package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrCategoryExists 同一用户下类别名重复
	ErrCategoryExists = errors.New("category already exists")
	// ErrCategoryNotFound 类别不存在或不属于当前用户
	ErrCategoryNotFound = errors.New("category not found")
	// ErrInvalidCategory 类别字段校验失败
	ErrInvalidCategory = errors.New("invalid category")
	// ErrCategoryInUse 仍有交易引用该类别
	ErrCategoryInUse = errors.New("category has transactions")
	// ErrTransactionNotFound 交易不存在或不属于当前用户
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidTransaction 交易字段校验失败
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrEmailTaken 邮箱已注册
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRefreshToken 刷新令牌未记录、已吊销或已过期
	ErrInvalidRefreshToken = errors.New("token is invalid")
	// ErrInvalidCode 验证码错误或已过期
	ErrInvalidCode = errors.New("verification code is invalid or expired")
	// ErrAlreadyVerified 邮箱已验证
	ErrAlreadyVerified = errors.New("email already verified")
)

// isDuplicateKey 唯一约束冲突，兼容未翻译的驱动错误
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

// isForeignKeyViolation 外键约束冲突
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "a foreign key constraint fails")
}
