package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken 已签发的刷新令牌，刷新和登出时吊销
type RefreshToken struct {
	DefaultModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	TokenID   string    `json:"-" gorm:"size:64;uniqueIndex;not null"` // jti
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Revoked   bool      `json:"revoked" gorm:"default:false"`
}

// TableName 设置表名
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsUsable 未吊销且未过期
func (t *RefreshToken) IsUsable() bool {
	return !t.Revoked && time.Now().Before(t.ExpiresAt)
}
