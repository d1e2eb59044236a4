package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kashflo/database"
	"kashflo/models"
	"kashflo/report"
	"kashflo/service"
)

// fakeClient 按顺序返回预设的回复，并记录每次请求
type fakeClient struct {
	mu        sync.Mutex
	responses []openai.ChatCompletionMessage
	err       error
	requests  []openai.ChatCompletionRequest
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	if len(f.responses) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("fake client: no scripted response")
	}
	msg := f.responses[0]
	f.responses = f.responses[1:]
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: msg}}}, nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func reply(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}
}

func toolCall(id, name, args string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{{
			ID:       id,
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(sqlite.Open("file:" + name + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newToolset(db *gorm.DB) *Toolset {
	return NewToolset(report.New(db), service.NewCategoryService(db), service.NewTransactionService(db))
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.UserContext {
	t.Helper()
	u := models.User{FirstName: "Ada", LastName: "Lovelace", Email: email, Password: "hash"}
	require.NoError(t, db.Create(&u).Error)
	return u.Context()
}

func seedExpense(t *testing.T, db *gorm.DB, user models.UserContext, category, amount string, at time.Time) {
	t.Helper()
	c := models.Category{UserID: user.UserID, Name: category, IsActive: true}
	require.NoError(t, db.Where(models.Category{UserID: user.UserID, Name: category}).FirstOrCreate(&c).Error)
	tr := models.Transaction{
		UserID:          user.UserID,
		CategoryID:      c.ID,
		Name:            category + " purchase",
		TransactionDate: at,
		Amount:          decimal.RequireFromString(amount),
		TransactionType: models.TransactionExpense,
		PaymentMethod:   models.PaymentCreditCard,
		Account:         models.AccountChecking,
	}
	require.NoError(t, db.Create(&tr).Error)
}
