package report

import "errors"

var (
	// ErrNoTransactions 过滤后没有任何分组，属于软结果
	ErrNoTransactions = errors.New("no transactions found")
	// ErrMissingUserContext 用户上下文缺失或用户不存在
	ErrMissingUserContext = errors.New("user context not provided")
	// ErrInvalidPeriod 年份或月份超出范围
	ErrInvalidPeriod = errors.New("invalid date range")
)
