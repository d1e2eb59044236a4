package api

import (
	"context"
	"errors"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kashflo/models"
)

type stubSupervisor struct {
	out   string
	err   error
	query string
	user  models.UserContext
}

func (s *stubSupervisor) Handle(_ context.Context, user models.UserContext, query string) (string, error) {
	s.user, s.query = user, query
	return s.out, s.err
}

func newAgentRouter(s Supervisor, user models.UserContext) *gin.Engine {
	h := NewAgentHandler(s)
	r := gin.New()
	r.POST("/agents", asUser(user), h.Query)
	return r
}

func TestAgentHandler_Query(t *testing.T) {
	user := models.UserContext{UserID: uuid.New(), UserName: "Ada Lovelace", Email: "ada@example.com"}
	s := &stubSupervisor{out: "You saved 20% this year."}

	w := doJSON(newAgentRouter(s, user), "POST", "/agents", `{"query":"how am I doing?"}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "You saved 20% this year.", data["response"])
	assert.Equal(t, "Ada Lovelace", data["user_name"])
	assert.Equal(t, "how am I doing?", s.query)
	assert.Equal(t, user, s.user)

	w = doJSON(newAgentRouter(s, user), "POST", "/agents", `{}`)
	assert.Equal(t, 400, w.Code)
}

func TestAgentHandler_Errors(t *testing.T) {
	user := models.UserContext{UserID: uuid.New(), UserName: "Ada"}

	w := doJSON(newAgentRouter(nil, user), "POST", "/agents", `{"query":"hi"}`)
	assert.Equal(t, 503, w.Code)

	w = doJSON(newAgentRouter(&stubSupervisor{err: errors.New("provider down")}, user), "POST", "/agents", `{"query":"hi"}`)
	assert.Equal(t, 500, w.Code)

	w = doJSON(newAgentRouter(&stubSupervisor{}, models.UserContext{}), "POST", "/agents", `{"query":"hi"}`)
	assert.Equal(t, 401, w.Code)
}
