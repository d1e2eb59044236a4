package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"kashflo/middleware"
	"kashflo/models"
	"kashflo/service"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	users  *service.UserService
	mailer service.Mailer
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(db *gorm.DB, mailer service.Mailer) *AuthHandler {
	return &AuthHandler{
		users:  service.NewUserService(db),
		mailer: mailer,
	}
}

// SignupRequest 注册请求
type SignupRequest struct {
	FirstName string `json:"first_name" binding:"required,max=50" example:"Ada"`
	LastName  string `json:"last_name" binding:"max=50" example:"Lovelace"`
	Email     string `json:"email" binding:"required,email,max=100" example:"ada@example.com"`
	Password  string `json:"password" binding:"required,min=6,max=72" example:"password123"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// RefreshTokenRequest 刷新或登出请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// VerifyCodeRequest 邮箱验证码
type VerifyCodeRequest struct {
	Code string `json:"code" binding:"required,len=6" example:"123456"`
}

// currentUser 读取 JWT 中间件写入的用户上下文，缺失时返回 401
func currentUser(c *gin.Context) (models.UserContext, bool) {
	user, ok := middleware.GetUserContext(c)
	if !ok || !user.Valid() {
		Unauthorized(c, "User context not provided")
		return models.UserContext{}, false
	}
	return user, true
}

// issueTokens 签发并记录令牌对
func (h *AuthHandler) issueTokens(ctx context.Context, user models.UserContext) (*middleware.TokenPair, error) {
	access, expiresAt, err := middleware.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	if err := h.users.RecordRefreshToken(ctx, user.UserID, refresh.TokenID, refresh.ExpiresAt); err != nil {
		return nil, err
	}
	return &middleware.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

// Signup 用户注册
// @Summary 用户注册
// @Description 创建新账号，邮箱需要之后通过验证码验证
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body SignupRequest true "注册信息"
// @Success 201 {object} Response{data=models.User} "注册成功"
// @Failure 400 {object} Response "参数错误或邮箱已注册"
// @Failure 500 {object} Response "服务器错误"
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if errors.Is(err, service.ErrEmailTaken) {
		BadRequest(c, "Email already registered")
		return
	}
	if err != nil {
		serverError(c, err, "Could not create user")
		return
	}

	Created(c, "User created successfully", user)
}

// Login 用户登录
// @Summary 用户登录
// @Description 邮箱密码登录，返回 access 与 refresh 令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=middleware.TokenPair} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "邮箱或密码错误"
// @Failure 429 {object} Response "尝试次数过多"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		Unauthorized(c, "Invalid email or password")
		return
	}
	if err != nil {
		serverError(c, err, "Could not log in")
		return
	}

	pair, err := h.issueTokens(c.Request.Context(), user.Context())
	if err != nil {
		serverError(c, err, "Could not issue tokens")
		return
	}
	SuccessWithMessage(c, "Login successful", pair)
}

// RefreshToken 刷新令牌
// @Summary 刷新令牌
// @Description 使用 refresh token 换取新的令牌对，旧 refresh token 立即失效
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "刷新令牌"
// @Success 200 {object} Response{data=middleware.TokenPair} "刷新成功"
// @Failure 401 {object} Response "令牌无效"
// @Router /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	claims, err := middleware.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		Unauthorized(c, "Token is invalid")
		return
	}

	user, err := h.users.ConsumeRefreshToken(c.Request.Context(), claims.UserContext().UserID, claims.ID)
	if errors.Is(err, service.ErrInvalidRefreshToken) {
		Unauthorized(c, "Token is invalid")
		return
	}
	if err != nil {
		serverError(c, err, "Could not refresh token")
		return
	}

	pair, err := h.issueTokens(c.Request.Context(), user.Context())
	if err != nil {
		serverError(c, err, "Could not issue tokens")
		return
	}
	SuccessWithMessage(c, "Token refreshed", pair)
}

// Logout 登出
// @Summary 登出
// @Description 吊销当前用户的 refresh token
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RefreshTokenRequest true "刷新令牌"
// @Success 200 {object} Response "已登出"
// @Failure 401 {object} Response "令牌无效"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	claims, err := middleware.ParseRefreshToken(req.RefreshToken)
	if err != nil || claims.UserContext().UserID != user.UserID {
		Unauthorized(c, "Token is invalid")
		return
	}

	_, err = h.users.ConsumeRefreshToken(c.Request.Context(), user.UserID, claims.ID)
	if errors.Is(err, service.ErrInvalidRefreshToken) {
		Unauthorized(c, "Token is invalid")
		return
	}
	if err != nil {
		serverError(c, err, "Could not log out")
		return
	}
	SuccessWithMessage(c, "Logged out successfully", nil)
}

// Me 当前用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "用户不存在"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	u, err := h.users.Get(c.Request.Context(), user.UserID)
	if errors.Is(err, service.ErrUserNotFound) {
		NotFound(c, "User not found")
		return
	}
	if err != nil {
		serverError(c, err, "Could not load user")
		return
	}
	Success(c, u)
}

// DeleteMe 注销账号
// @Summary 注销账号
// @Description 删除当前用户及其类别、交易、令牌与验证码
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "删除成功"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "用户不存在"
// @Router /auth/me [delete]
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	err := h.users.Delete(c.Request.Context(), user.UserID)
	if errors.Is(err, service.ErrUserNotFound) {
		NotFound(c, "User not found")
		return
	}
	if err != nil {
		serverError(c, err, "Could not delete user")
		return
	}
	SuccessWithMessage(c, "User deleted successfully", gin.H{"id": user.UserID})
}

// SendCode 发送邮箱验证码
// @Summary 发送邮箱验证码
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "已发送"
// @Failure 400 {object} Response "邮箱已验证"
// @Failure 503 {object} Response "邮件服务未启用"
// @Router /auth/send-code [post]
func (h *AuthHandler) SendCode(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	v, err := h.users.IssueVerificationCode(c.Request.Context(), user)
	switch {
	case errors.Is(err, service.ErrAlreadyVerified):
		BadRequest(c, "Email already verified")
		return
	case errors.Is(err, service.ErrUserNotFound):
		NotFound(c, "User not found")
		return
	case err != nil:
		serverError(c, err, "Could not create verification code")
		return
	}

	err = h.mailer.SendVerificationEmail(v.Email, user.UserName, v.Code)
	if errors.Is(err, service.ErrEmailDisabled) {
		Error(c, http.StatusServiceUnavailable, "Email service is not enabled")
		return
	}
	if err != nil {
		serverError(c, err, "Could not send verification email")
		return
	}
	SuccessWithMessage(c, "Verification code sent", gin.H{"email": v.Email, "expires_at": v.ExpiresAt})
}

// VerifyCode 校验邮箱验证码
// @Summary 校验邮箱验证码
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body VerifyCodeRequest true "验证码"
// @Success 200 {object} Response "验证成功"
// @Failure 400 {object} Response "验证码错误或已过期"
// @Router /auth/verify-code [post]
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.users.VerifyCode(c.Request.Context(), user, req.Code)
	if errors.Is(err, service.ErrInvalidCode) {
		BadRequest(c, "Verification code is invalid or expired")
		return
	}
	if err != nil {
		serverError(c, err, "Could not verify code")
		return
	}
	SuccessWithMessage(c, "Email verified successfully", nil)
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		BadRequest(c, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}
