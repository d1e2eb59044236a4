package models

import (
	"strings"

	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	DefaultModel
	FirstName  string `json:"first_name" gorm:"size:50;not null"`
	LastName   string `json:"last_name" gorm:"size:50;not null"`
	Email      string `json:"email" gorm:"uniqueIndex;size:100;not null"`
	Password   string `json:"-" gorm:"size:255;not null"`
	IsVerified bool   `json:"is_verified" gorm:"default:false"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// BeforeSave 规范化邮箱和姓名
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	return nil
}

// FullName 姓名
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Context 构造请求上下文中的用户信息
func (u *User) Context() UserContext {
	return UserContext{
		UserID:   u.ID,
		UserName: u.FullName(),
		Email:    u.Email,
	}
}
