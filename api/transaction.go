package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kashflo/models"
	"kashflo/service"
)

// TransactionHandler 交易记录
type TransactionHandler struct {
	transactions *service.TransactionService
}

// NewTransactionHandler 创建交易处理器
func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{transactions: service.NewTransactionService(db)}
}

// TransactionCreateRequest 创建交易
type TransactionCreateRequest struct {
	CategoryID      string          `json:"category_id" binding:"required,uuid"`
	Name            string          `json:"name" binding:"required,max=100" example:"Weekly groceries"`
	Description     string          `json:"description" binding:"max=500"`
	Amount          decimal.Decimal `json:"amount" swaggertype:"number" example:"42.50"`
	TransactionDate time.Time       `json:"transaction_date" example:"2024-03-15T10:00:00Z"`
	TransactionType string          `json:"transaction_type" binding:"required" example:"expense"`
	PaymentMethod   string          `json:"payment_method" binding:"required" example:"credit card"`
	Account         string          `json:"account" binding:"required" example:"checking"`
}

// TransactionUpdateRequest 更新交易，省略的字段保持不变
type TransactionUpdateRequest struct {
	CategoryID      *string          `json:"category_id" binding:"omitempty,uuid"`
	Name            *string          `json:"name" binding:"omitempty,max=100"`
	Description     *string          `json:"description" binding:"omitempty,max=500"`
	Amount          *decimal.Decimal `json:"amount" swaggertype:"number"`
	TransactionDate *time.Time       `json:"transaction_date"`
	TransactionType *string          `json:"transaction_type"`
	PaymentMethod   *string          `json:"payment_method"`
	Account         *string          `json:"account"`
}

// TransactionResponse 交易输出，金额为两位小数的数字
type TransactionResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Amount          float64   `json:"amount"`
	TransactionDate time.Time `json:"transaction_date"`
	TransactionType string    `json:"transaction_type"`
	PaymentMethod   string    `json:"payment_method"`
	Account         string    `json:"account"`
	CategoryID      uuid.UUID `json:"category_id"`
	Category        string    `json:"category,omitempty"`
	BalanceAfter    *float64  `json:"balance_after,omitempty"`
	UserID          uuid.UUID `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// TransactionListResponse 分页结果
type TransactionListResponse struct {
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
	Total        int64                 `json:"total_transaction"`
	TotalPages   int64                 `json:"total_pages"`
	Transactions []TransactionResponse `json:"transactions"`
}

func newTransactionResponse(t *models.Transaction) TransactionResponse {
	out := TransactionResponse{
		ID:              t.ID,
		Name:            t.Name,
		Description:     t.Description,
		Amount:          t.Amount.Round(2).InexactFloat64(),
		TransactionDate: t.TransactionDate.UTC(),
		TransactionType: string(t.TransactionType),
		PaymentMethod:   string(t.PaymentMethod),
		Account:         string(t.Account),
		CategoryID:      t.CategoryID,
		Category:        t.Category.Name,
		UserID:          t.UserID,
		CreatedAt:       t.CreatedAt,
	}
	if t.BalanceAfter.Valid {
		v := t.BalanceAfter.Decimal.Round(2).InexactFloat64()
		out.BalanceAfter = &v
	}
	return out
}

func (h *TransactionHandler) transactionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrTransactionNotFound):
		NotFound(c, "Transaction not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		BadRequest(c, "Category not found")
	case errors.Is(err, service.ErrInvalidTransaction):
		BadRequest(c, err.Error())
	default:
		serverError(c, err, fallback)
	}
}

// respondWithTransaction 重新读取以带上类别名称
func (h *TransactionHandler) respondWithTransaction(c *gin.Context, user models.UserContext, id uuid.UUID, created bool) {
	t, err := h.transactions.Get(c.Request.Context(), user, id)
	if err != nil {
		h.transactionError(c, err, "Could not load transaction")
		return
	}
	if created {
		Created(c, "Transaction has been created successfully", newTransactionResponse(t))
		return
	}
	SuccessWithMessage(c, "Transaction updated successfully", newTransactionResponse(t))
}

// Create 创建交易
// @Summary 创建交易
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionCreateRequest true "交易信息"
// @Success 201 {object} Response{data=TransactionResponse} "创建成功"
// @Failure 400 {object} Response "参数错误或类别不存在"
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req TransactionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.TransactionDate.IsZero() {
		BadRequest(c, "Invalid request: transaction_date is required")
		return
	}

	t, err := h.transactions.Create(c.Request.Context(), user, service.TransactionInput{
		CategoryID:      uuid.MustParse(req.CategoryID),
		Name:            req.Name,
		Description:     req.Description,
		Amount:          req.Amount,
		TransactionDate: req.TransactionDate,
		TransactionType: models.TransactionType(req.TransactionType),
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		Account:         models.AccountType(req.Account),
	})
	if err != nil {
		h.transactionError(c, err, "Could not create transaction")
		return
	}
	h.respondWithTransaction(c, user, t.ID, true)
}

// List 分页列出交易
// @Summary 获取交易列表
// @Description 按交易时间倒序分页
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页条数，最大 100" default(20)
// @Param category query string false "类别名称"
// @Success 200 {object} Response{data=TransactionListResponse} "获取成功"
// @Router /transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultPageSize)))

	result, err := h.transactions.List(c.Request.Context(), user, service.ListOptions{
		Page:         page,
		Limit:        limit,
		CategoryName: c.Query("category"),
	})
	if err != nil {
		serverError(c, err, "Could not list transactions")
		return
	}

	out := TransactionListResponse{
		Page:         result.Page,
		Limit:        result.Limit,
		Total:        result.Total,
		TotalPages:   result.TotalPages,
		Transactions: make([]TransactionResponse, 0, len(result.Transactions)),
	}
	for i := range result.Transactions {
		out.Transactions = append(out.Transactions, newTransactionResponse(&result.Transactions[i]))
	}

	message := "Transactions retrieved successfully"
	if len(out.Transactions) == 0 {
		message = "No transactions found"
	}
	SuccessWithMessage(c, message, out)
}

// Update 更新交易
// @Summary 更新交易
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "交易ID"
// @Param request body TransactionUpdateRequest true "更新的交易信息"
// @Success 200 {object} Response{data=TransactionResponse} "更新成功"
// @Failure 400 {object} Response "参数错误"
// @Failure 404 {object} Response "交易不存在"
// @Router /transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req TransactionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	in := service.TransactionUpdate{
		Name:            req.Name,
		Description:     req.Description,
		Amount:          req.Amount,
		TransactionDate: req.TransactionDate,
	}
	if req.CategoryID != nil {
		categoryID := uuid.MustParse(*req.CategoryID)
		in.CategoryID = &categoryID
	}
	if req.TransactionType != nil {
		v := models.TransactionType(*req.TransactionType)
		in.TransactionType = &v
	}
	if req.PaymentMethod != nil {
		v := models.PaymentMethod(*req.PaymentMethod)
		in.PaymentMethod = &v
	}
	if req.Account != nil {
		v := models.AccountType(*req.Account)
		in.Account = &v
	}

	t, err := h.transactions.Update(c.Request.Context(), user, id, in)
	if err != nil {
		h.transactionError(c, err, "Could not update transaction")
		return
	}
	h.respondWithTransaction(c, user, t.ID, false)
}

// Delete 删除交易
// @Summary 删除交易
// @Tags 交易
// @Security BearerAuth
// @Param id path string true "交易ID"
// @Success 204 "删除成功"
// @Failure 404 {object} Response "交易不存在"
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.transactions.Delete(c.Request.Context(), user, id); err != nil {
		h.transactionError(c, err, "Could not delete transaction")
		return
	}
	NoContent(c)
}
