package models

import (
	cryptoRand "crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EmailVerification 邮箱验证码
type EmailVerification struct {
	DefaultModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Email     string    `json:"email" gorm:"index;size:100;not null"`
	Code      string    `json:"-" gorm:"size:6;not null"` // 6位验证码
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"default:false"`
}

// TableName 设置表名
func (EmailVerification) TableName() string {
	return "email_verifications"
}

// IsExpired 检查验证码是否过期
func (e *EmailVerification) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// IsValid 检查验证码是否有效
func (e *EmailVerification) IsValid() bool {
	return !e.Used && !e.IsExpired()
}

// GenerateVerificationCode 生成6位数字验证码
func GenerateVerificationCode() (string, error) {
	bytes := make([]byte, 3)
	if _, err := randRead(bytes); err != nil {
		return "", err
	}
	code := int(bytes[0])<<16 | int(bytes[1])<<8 | int(bytes[2])
	code = code%900000 + 100000
	return fmt.Sprintf("%06d", code), nil
}

var randRead = func(b []byte) (int, error) {
	return cryptoRand.Read(b)
}
