package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category 用户自定义的消费类别，名称在同一用户下唯一
type Category struct {
	DefaultModel
	UserID      uuid.UUID `json:"user_id" gorm:"type:char(36);not null;uniqueIndex:idx_categories_user_name"`
	User        User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Name        string    `json:"name" gorm:"size:100;not null;uniqueIndex:idx_categories_user_name"`
	Description string    `json:"description" gorm:"size:255"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}

// BeforeSave 去除首尾空白
func (c *Category) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	return nil
}
