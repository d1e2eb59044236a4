package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"kashflo/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler 报表
type ReportHandler struct {
	reports *report.Reporter
}

// NewReportHandler 创建报表处理器
func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{reports: report.New(db)}
}

// YearReportQuery 年度类别报表参数
type YearReportQuery struct {
	Year    int      `form:"year" binding:"required"`
	Exclude []string `form:"exclude"`
}

// SummaryQuery 收支汇总参数，month 为 0 表示全年
type SummaryQuery struct {
	Year  int `form:"year" binding:"required"`
	Month int `form:"month"`
}

// reportError 软结果与硬错误分别映射
func reportError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, report.ErrMissingUserContext):
		Unauthorized(c, "User context not provided")
	case errors.Is(err, report.ErrNoTransactions):
		BadRequest(c, "No transactions found for the specified year")
	case errors.Is(err, report.ErrInvalidPeriod):
		BadRequest(c, err.Error())
	default:
		serverError(c, err, fallback)
	}
}

func (h *ReportHandler) yearReport(c *gin.Context) (*report.YearReport, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, false
	}

	var q YearReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return nil, false
	}

	data, err := h.reports.YearWiseCategoryReport(c.Request.Context(), user, q.Year, q.Exclude)
	if err != nil {
		reportError(c, err, "Could not build report")
		return nil, false
	}
	return data, true
}

// YearWiseCategory 年度按月类别报表
// @Summary 年度类别报表
// @Description 按月汇总每个类别的金额与笔数，月份按日历顺序
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param year query int true "年份" example(2024)
// @Param exclude query []string false "排除的类别名称" collectionFormat(multi)
// @Success 200 {object} Response{data=report.YearReport} "获取成功"
// @Failure 400 {object} Response "该年份没有交易或参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /report/category/year [get]
func (h *ReportHandler) YearWiseCategory(c *gin.Context) {
	data, ok := h.yearReport(c)
	if !ok {
		return
	}
	SuccessWithMessage(c, "Transaction retrieved successfull", data)
}

// ExportYearWiseCategory 导出年度类别报表
// @Summary 导出年度类别报表
// @Tags 报表
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param year query int true "年份" example(2024)
// @Param exclude query []string false "排除的类别名称" collectionFormat(multi)
// @Success 200 {file} file "xlsx 文件"
// @Failure 400 {object} Response "该年份没有交易或参数错误"
// @Router /report/category/year/export [get]
func (h *ReportHandler) ExportYearWiseCategory(c *gin.Context) {
	data, ok := h.yearReport(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	if err := report.WriteYearReportXLSX(buf, data); err != nil {
		serverError(c, err, "Could not generate spreadsheet")
		return
	}

	filename := fmt.Sprintf("category_report_%d.xlsx", data.Year)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Summary 收支汇总
// @Summary 收支汇总
// @Description 总收入、总支出、净结余与支出前五的类别
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param year query int true "年份" example(2024)
// @Param month query int false "月份 1-12，省略为全年"
// @Success 200 {object} Response{data=report.Summary} "获取成功"
// @Failure 400 {object} Response "参数错误"
// @Router /report/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var q SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	summary, err := h.reports.SpendingSummary(c.Request.Context(), user, q.Year, q.Month)
	if err != nil {
		reportError(c, err, "Could not build summary")
		return
	}
	SuccessWithMessage(c, "Summary retrieved successfully", summary)
}
