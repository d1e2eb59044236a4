package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"kashflo/config"
)

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// serverError 记录内部错误并返回 500
func serverError(c *gin.Context, err error, fallback string) {
	log.Error().
		Err(err).
		Str("request-id", requestid.Get(c)).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg(fallback)
	InternalError(c, SafeErrorMessage(err, fallback))
}

// bindError 请求体或参数校验失败
func bindError(c *gin.Context, err error) {
	BadRequest(c, "Invalid request: "+err.Error())
}
