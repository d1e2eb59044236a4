package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"kashflo/service"
)

const dateLayout = "2006-01-02"

// ExportHandler 导出处理器
type ExportHandler struct {
	transactions *service.TransactionService
}

// NewExportHandler 创建导出处理器
func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{transactions: service.NewTransactionService(db)}
}

// ExportCSV 导出交易记录为 CSV
// @Summary 导出交易记录
// @Description 按日期范围（含首尾两天，UTC）导出交易记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_time query string true "开始日期 (2024-01-01)"
// @Param end_time query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /transactions/export [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	startTimeStr := c.Query("start_time")
	endTimeStr := c.Query("end_time")
	if startTimeStr == "" || endTimeStr == "" {
		BadRequest(c, "start_time and end_time are required")
		return
	}

	startTime, err := time.ParseInLocation(dateLayout, startTimeStr, time.UTC)
	if err != nil {
		BadRequest(c, "start_time must look like 2006-01-02")
		return
	}
	endTime, err := time.ParseInLocation(dateLayout, endTimeStr, time.UTC)
	if err != nil {
		BadRequest(c, "end_time must look like 2006-01-02")
		return
	}
	if endTime.Before(startTime) {
		BadRequest(c, "end_time is before start_time")
		return
	}

	list, err := h.transactions.Between(c.Request.Context(), user, startTime, endTime.AddDate(0, 0, 1))
	if err != nil {
		serverError(c, err, "Could not load transactions")
		return
	}

	buf := new(bytes.Buffer)
	// BOM，Excel 打开时按 UTF-8 识别
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	headers := []string{"ID", "Date", "Name", "Category", "Type", "Amount", "Payment Method", "Account", "Description"}
	if err := writer.Write(headers); err != nil {
		serverError(c, err, "Could not generate CSV")
		return
	}
	for _, t := range list {
		row := []string{
			t.ID.String(),
			t.TransactionDate.UTC().Format(time.RFC3339),
			t.Name,
			t.Category.Name,
			string(t.TransactionType),
			t.Amount.StringFixed(2),
			string(t.PaymentMethod),
			string(t.Account),
			t.Description,
		}
		if err := writer.Write(row); err != nil {
			serverError(c, err, "Could not generate CSV")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		serverError(c, err, "Could not generate CSV")
		return
	}

	filename := fmt.Sprintf("transactions_%s_%s.csv", startTimeStr, endTimeStr)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
