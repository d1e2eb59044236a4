package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"kashflo/config"
	"kashflo/models"
)

var (
	// ErrMaxSteps 超出最大推理轮数
	ErrMaxSteps = errors.New("agent exceeded maximum steps")
	// ErrEmptyResponse 模型未返回任何候选
	ErrEmptyResponse = errors.New("model returned no choices")
)

// Runner 接收用户请求并给出文本回复
type Runner interface {
	Run(ctx context.Context, user models.UserContext, input string) (string, error)
}

// Options 模型调用参数
type Options struct {
	Model       string
	Temperature float32
	MaxSteps    int
}

// OptionsFromConfig 从配置构建调用参数
func OptionsFromConfig(cfg config.AgentConfig) Options {
	return Options{Model: cfg.Model, Temperature: cfg.Temperature, MaxSteps: cfg.MaxSteps}
}

// Agent 带工具调用循环的智能体
type Agent struct {
	name   string
	prompt string
	client ChatClient
	opts   Options
	tools  map[string]Tool
	defs   []openai.Tool
}

// NewAgent 创建智能体，工具按传入顺序暴露给模型
func NewAgent(name, prompt string, client ChatClient, opts Options, tools ...Tool) *Agent {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 6
	}
	a := &Agent{
		name:   name,
		prompt: prompt,
		client: client,
		opts:   opts,
		tools:  make(map[string]Tool, len(tools)),
	}
	for _, t := range tools {
		a.tools[t.Name] = t
		a.defs = append(a.defs, t.definition())
	}
	return a
}

// Name 智能体名称
func (a *Agent) Name() string { return a.name }

// Run 执行对话，直到模型给出不含工具调用的回复或达到步数上限
func (a *Agent) Run(ctx context.Context, user models.UserContext, input string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(a.prompt, user)},
		{Role: openai.ChatMessageRoleUser, Content: input},
	}

	for step := 0; step < a.opts.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       a.opts.Model,
			Temperature: a.opts.Temperature,
			Messages:    messages,
			Tools:       a.defs,
		})
		if err != nil {
			return "", fmt.Errorf("%s: chat completion: %w", a.name, err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%s: %w", a.name, ErrEmptyResponse)
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return strings.TrimSpace(msg.Content), nil
		}
		messages = append(messages, msg)

		for _, call := range msg.ToolCalls {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    a.invoke(ctx, user, call),
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("%s: %w (%d)", a.name, ErrMaxSteps, a.opts.MaxSteps)
}

func (a *Agent) invoke(ctx context.Context, user models.UserContext, call openai.ToolCall) string {
	log.Debug().
		Str("agent", a.name).
		Str("tool", call.Function.Name).
		Str("user_id", user.UserID.String()).
		Msg("tool call")

	var result Result
	tool, ok := a.tools[call.Function.Name]
	if !ok {
		result = Result{"error": "unknown tool: " + call.Function.Name}
	} else {
		result = tool.Handler(ctx, user, json.RawMessage(call.Function.Arguments))
	}

	b, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Str("tool", call.Function.Name).Msg("encode tool result")
		return `{"error":"could not encode tool result"}`
	}
	return string(b)
}

func systemPrompt(prompt string, user models.UserContext) string {
	if user.UserName == "" {
		return prompt
	}
	return prompt + "\n\nYou are assisting " + user.UserName + "."
}
