package api

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"kashflo/models"
	"kashflo/service"
)

// CategoryHandler 消费类别管理
type CategoryHandler struct {
	categories *service.CategoryService
}

// NewCategoryHandler 创建类别处理器
func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{categories: service.NewCategoryService(db)}
}

// CategoryCreateRequest 创建类别
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required,max=100" example:"Groceries"`
	Description string `json:"description" binding:"max=255" example:"Food and household"`
}

// CategoryUpdateRequest 更新类别，省略的字段保持不变
type CategoryUpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=255"`
	IsActive    *bool   `json:"is_active"`
}

func (h *CategoryHandler) categoryError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		NotFound(c, "Category not found")
	case errors.Is(err, service.ErrCategoryExists):
		Conflict(c, "Category already exists")
	case errors.Is(err, service.ErrCategoryInUse):
		Conflict(c, "Category still has transactions")
	case errors.Is(err, service.ErrInvalidCategory):
		BadRequest(c, err.Error())
	default:
		serverError(c, err, fallback)
	}
}

// Create 创建类别
// @Summary 创建消费类别
// @Description 名称在当前用户下唯一
// @Tags 消费类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryCreateRequest true "类别信息"
// @Success 201 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 409 {object} Response "类别名称已存在"
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := h.categories.Create(c.Request.Context(), user, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.categoryError(c, err, "Could not create category")
		return
	}
	Created(c, "Category created successfully", category)
}

// List 列出类别
// @Summary 获取消费类别列表
// @Tags 消费类别
// @Produce json
// @Security BearerAuth
// @Param active query bool false "只返回启用中的类别"
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	activeOnly, _ := strconv.ParseBool(c.Query("active"))
	list, err := h.categories.List(c.Request.Context(), user, activeOnly)
	if err != nil {
		serverError(c, err, "Could not list categories")
		return
	}
	if len(list) == 0 {
		SuccessWithMessage(c, "No categories found", []models.Category{})
		return
	}
	SuccessWithMessage(c, "Categories retrieved successfully", list)
}

// Update 更新类别
// @Summary 更新消费类别
// @Tags 消费类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "类别ID"
// @Param request body CategoryUpdateRequest true "更新的类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 404 {object} Response "类别不存在"
// @Failure 409 {object} Response "类别名称已存在"
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := h.categories.Update(c.Request.Context(), user, id, service.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.categoryError(c, err, "Could not update category")
		return
	}
	SuccessWithMessage(c, "Category updated successfully", category)
}

// Delete 删除类别
// @Summary 删除消费类别
// @Description 仍有交易引用的类别不能删除
// @Tags 消费类别
// @Security BearerAuth
// @Param id path string true "类别ID"
// @Success 204 "删除成功"
// @Failure 404 {object} Response "类别不存在"
// @Failure 409 {object} Response "类别仍有交易"
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.categories.Delete(c.Request.Context(), user, id); err != nil {
		h.categoryError(c, err, "Could not delete category")
		return
	}
	NoContent(c)
}
