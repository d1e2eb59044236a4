package models

import "github.com/google/uuid"

// UserContext 已认证用户信息，在请求入口构造一次后向下传递
type UserContext struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	Email    string    `json:"email"`
}

// Valid 是否包含用户 ID
func (u UserContext) Valid() bool {
	return u.UserID != uuid.Nil
}
