package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"kashflo/models"
)

// Supervisor 智能助手入口，由 agent.Supervisor 实现
type Supervisor interface {
	Handle(ctx context.Context, user models.UserContext, query string) (string, error)
}

// AgentHandler 智能助手
type AgentHandler struct {
	supervisor Supervisor
}

// NewAgentHandler 创建智能助手处理器，supervisor 为 nil 时接口返回 503
func NewAgentHandler(supervisor Supervisor) *AgentHandler {
	return &AgentHandler{supervisor: supervisor}
}

// AgentRequest 用户提问
type AgentRequest struct {
	Query string `json:"query" binding:"required,max=4000" example:"How did my spending change in 2024?"`
}

// AgentResponse 助手回复
type AgentResponse struct {
	Response string `json:"response"`
	UserName string `json:"user_name"`
}

// Query 向智能助手提问
// @Summary 智能助手
// @Description 自动分派给理财顾问或使用帮助
// @Tags 智能助手
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AgentRequest true "问题"
// @Success 200 {object} Response{data=AgentResponse} "回复"
// @Failure 401 {object} Response "未授权"
// @Failure 503 {object} Response "未配置模型服务"
// @Router /agents [post]
func (h *AgentHandler) Query(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if h.supervisor == nil {
		Error(c, http.StatusServiceUnavailable, "Agent is not configured")
		return
	}

	var req AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	out, err := h.supervisor.Handle(c.Request.Context(), user, req.Query)
	if err != nil {
		serverError(c, err, "Error generating response")
		return
	}
	Success(c, AgentResponse{Response: out, UserName: user.UserName})
}
