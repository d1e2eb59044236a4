package api

import (
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kashflo/models"
)

func newTransactionRouter(db *gorm.DB, user models.UserContext) *gin.Engine {
	h := NewTransactionHandler(db)
	r := gin.New()
	g := r.Group("/transactions", asUser(user))
	g.POST("", h.Create)
	g.GET("", h.List)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return r
}

func TestTransactionHandler_Create(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ada@example.com")
	food := seedCategory(t, db, user, "Food")
	r := newTransactionRouter(db, user)

	body := fmt.Sprintf(`{"category_id":%q,"name":"Lunch","amount":12.345,"transaction_date":"2024-03-15T10:00:00+02:00","transaction_type":"expense","payment_method":"cash","account":"savings"}`, food.ID)
	w := doJSON(r, "POST", "/transactions", body)
	assert.Equal(t, 400, w.Code, "more than two decimals")

	body = fmt.Sprintf(`{"category_id":%q,"name":"Lunch","amount":12.5,"transaction_date":"2024-03-15T10:00:00+02:00","transaction_type":"expense","payment_method":"cash","account":"savings"}`, food.ID)
	w = doJSON(r, "POST", "/transactions", body)
	require.Equal(t, 201, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 12.5, data["amount"])
	assert.Equal(t, "Food", data["category"])
	assert.Equal(t, "2024-03-15T08:00:00Z", data["transaction_date"])

	body = fmt.Sprintf(`{"category_id":%q,"name":"Lunch","amount":5,"transaction_date":"2024-03-15T10:00:00Z","transaction_type":"gift","payment_method":"cash","account":"savings"}`, food.ID)
	w = doJSON(r, "POST", "/transactions", body)
	assert.Equal(t, 400, w.Code)

	other := seedUser(t, db, "bob@example.com")
	theirs := seedCategory(t, db, other, "Theirs")
	body = fmt.Sprintf(`{"category_id":%q,"name":"Lunch","amount":5,"transaction_date":"2024-03-15T10:00:00Z","transaction_type":"expense","payment_method":"cash","account":"savings"}`, theirs.ID)
	w = doJSON(r, "POST", "/transactions", body)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Category not found", decode(t, w)["message"])

	body = fmt.Sprintf(`{"category_id":%q,"name":"Lunch","amount":5,"transaction_type":"expense","payment_method":"cash","account":"savings"}`, food.ID)
	w = doJSON(r, "POST", "/transactions", body)
	assert.Equal(t, 400, w.Code, "missing date")
}

func TestTransactionHandler_ListPaging(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ada@example.com")
	food := seedCategory(t, db, user, "Food")
	for d := 1; d <= 5; d++ {
		seedTx(t, db, user, food, models.TransactionExpense, "1", time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC))
	}
	r := newTransactionRouter(db, user)

	w := doJSON(r, "GET", "/transactions?page=2&limit=2", "")
	require.Equal(t, 200, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["page"])
	assert.Equal(t, float64(2), data["limit"])
	assert.Equal(t, float64(5), data["total_transaction"])
	assert.Equal(t, float64(3), data["total_pages"])
	list := data["transactions"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, "2024-01-03T00:00:00Z", list[0].(map[string]interface{})["transaction_date"])

	w = doJSON(newTransactionRouter(db, seedUser(t, db, "bob@example.com")), "GET", "/transactions", "")
	resp := decode(t, w)
	assert.Equal(t, "No transactions found", resp["message"])
	assert.Equal(t, []interface{}{}, resp["data"].(map[string]interface{})["transactions"])
}

func TestTransactionHandler_UpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "ada@example.com")
	food := seedCategory(t, db, user, "Food")
	rent := seedCategory(t, db, user, "Rent")
	tr := seedTx(t, db, user, food, models.TransactionExpense, "10", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r := newTransactionRouter(db, user)

	body := fmt.Sprintf(`{"category_id":%q,"amount":"99.99","payment_method":"upi"}`, rent.ID)
	w := doJSON(r, "PUT", "/transactions/"+tr.ID.String(), body)
	require.Equal(t, 200, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 99.99, data["amount"])
	assert.Equal(t, "Rent", data["category"])
	assert.Equal(t, "upi", data["payment_method"])
	assert.Equal(t, "Food 10", data["name"])

	w = doJSON(r, "PUT", "/transactions/"+tr.ID.String(), `{"account":"offshore"}`)
	assert.Equal(t, 400, w.Code)

	other := seedUser(t, db, "bob@example.com")
	w = doJSON(newTransactionRouter(db, other), "PUT", "/transactions/"+tr.ID.String(), `{"name":"x"}`)
	assert.Equal(t, 404, w.Code)
	w = doJSON(newTransactionRouter(db, other), "DELETE", "/transactions/"+tr.ID.String(), "")
	assert.Equal(t, 404, w.Code)

	w = doJSON(r, "DELETE", "/transactions/"+tr.ID.String(), "")
	assert.Equal(t, 204, w.Code)
	w = doJSON(r, "DELETE", "/transactions/"+tr.ID.String(), "")
	assert.Equal(t, 404, w.Code)
}
