package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kashflo/models"
)

// CategoryInput 创建类别
type CategoryInput struct {
	Name        string
	Description string
}

// CategoryUpdate 更新类别，nil 字段保持不变
type CategoryUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// CategoryService 类别管理，HTTP 接口与智能助手共用
type CategoryService struct {
	db *gorm.DB
}

// NewCategoryService 创建类别服务
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// Create 创建类别
// 名称重复时返回已有类别和 ErrCategoryExists
func (s *CategoryService) Create(ctx context.Context, user models.UserContext, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}

	category := &models.Category{
		UserID:      user.UserID,
		Name:        name,
		Description: in.Description,
		IsActive:    true,
	}
	err := s.db.WithContext(ctx).Create(category).Error
	if err == nil {
		return category, nil
	}
	if !isDuplicateKey(err) {
		return nil, fmt.Errorf("create category: %w", err)
	}

	existing, findErr := s.FindByName(ctx, user, name)
	if findErr != nil {
		return nil, ErrCategoryExists
	}
	return existing, ErrCategoryExists
}

// List 列出用户的类别，activeOnly 时只返回启用的类别
func (s *CategoryService) List(ctx context.Context, user models.UserContext, activeOnly bool) ([]models.Category, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", user.UserID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var list []models.Category
	if err := query.Order("name ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

// Get 获取单个类别
func (s *CategoryService) Get(ctx context.Context, user models.UserContext, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, user.UserID).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// FindByName 按名称查找
func (s *CategoryService) FindByName(ctx context.Context, user models.UserContext, name string) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("user_id = ? AND name = ?", user.UserID, strings.TrimSpace(name)).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &category, nil
}

// Update 更新类别
func (s *CategoryService) Update(ctx context.Context, user models.UserContext, id uuid.UUID, in CategoryUpdate) (*models.Category, error) {
	category, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidCategory)
		}
		category.Name = name
	}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}

	if err := s.db.WithContext(ctx).Save(category).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Delete 删除类别，仍被交易引用时返回 ErrCategoryInUse
func (s *CategoryService) Delete(ctx context.Context, user models.UserContext, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		err := tx.Where("id = ? AND user_id = ?", id, user.UserID).First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		if err != nil {
			return fmt.Errorf("get category: %w", err)
		}

		var refs int64
		if err := tx.Model(&models.Transaction{}).Where("category_id = ?", id).Count(&refs).Error; err != nil {
			return fmt.Errorf("count category transactions: %w", err)
		}
		if refs > 0 {
			return ErrCategoryInUse
		}

		if err := tx.Delete(&category).Error; err != nil {
			if isForeignKeyViolation(err) {
				return ErrCategoryInUse
			}
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}
