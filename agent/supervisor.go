package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"kashflo/models"
)

const (
	routeAdvisor = "finance_advisor"
	routeHelper  = "kashflo_helper"

	advisorErrorPrefix = "Error getting financial advice: "
	helperErrorPrefix  = "Error getting help information: "
)

// Supervisor 入口智能体，一次分类调用后委派给理财顾问或使用帮助
type Supervisor struct {
	client  ChatClient
	opts    Options
	advisor Runner
	helper  Runner
}

// NewSupervisor 创建路由智能体
func NewSupervisor(client ChatClient, opts Options, advisor, helper Runner) *Supervisor {
	return &Supervisor{client: client, opts: opts, advisor: advisor, helper: helper}
}

// New 组装完整的智能体树
func New(client ChatClient, opts Options, tools *Toolset) *Supervisor {
	advisor := NewAgent(routeAdvisor, advisorPrompt, client, opts,
		tools.YearWiseCategoryReport(),
		tools.SpendingSummary(),
	)
	helper := NewAgent(routeHelper, helperPrompt, client, opts,
		tools.CreateCategory(),
		tools.Categories(),
		tools.SpendingSummary(),
		tools.UserTransactions(),
	)
	return NewSupervisor(client, opts, advisor, helper)
}

func delegateTool(name, description string) openai.Tool {
	return Tool{
		Name:        name,
		Description: description,
		Parameters: objectSchema(map[string]interface{}{
			"request": map[string]interface{}{
				"type":        "string",
				"description": "The user's request, passed through unchanged",
			},
		}, "request"),
	}.definition()
}

var delegateTools = []openai.Tool{
	delegateTool(routeAdvisor, "Financial analysis and advice based on the user's spending data."),
	delegateTool(routeHelper, "Help with using Kashflo: categories, transactions and quick totals."),
}

// Handle 处理一次用户查询
// 委派失败转为带前缀的文本，只有分类调用本身失败时返回 error
func (s *Supervisor) Handle(ctx context.Context, user models.UserContext, query string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.opts.Model,
		Temperature: s.opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(supervisorPrompt, user)},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Tools: delegateTools,
	})
	if err != nil {
		return "", fmt.Errorf("supervisor: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("supervisor: %w", ErrEmptyResponse)
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		delegations.WithLabelValues("direct").Inc()
		return strings.TrimSpace(msg.Content), nil
	}

	// 只执行第一个委派
	call := msg.ToolCalls[0]
	request := delegatedRequest(call.Function.Arguments, query)

	switch call.Function.Name {
	case routeAdvisor:
		delegations.WithLabelValues(routeAdvisor).Inc()
		return delegate(ctx, s.advisor, user, request, advisorErrorPrefix), nil
	case routeHelper:
		delegations.WithLabelValues(routeHelper).Inc()
		return delegate(ctx, s.helper, user, request, helperErrorPrefix), nil
	default:
		delegations.WithLabelValues("unknown").Inc()
		return delegate(ctx, s.helper, user, request, helperErrorPrefix), nil
	}
}

func delegate(ctx context.Context, r Runner, user models.UserContext, request, errPrefix string) string {
	out, err := r.Run(ctx, user, request)
	if err != nil {
		return errPrefix + err.Error()
	}
	return out
}

func delegatedRequest(arguments, fallback string) string {
	var args struct {
		Request string `json:"request"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil || strings.TrimSpace(args.Request) == "" {
		return fallback
	}
	return args.Request
}
