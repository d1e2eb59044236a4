package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"kashflo/config"
	"kashflo/models"
)

const (
	// TokenTypeAccess 访问令牌
	TokenTypeAccess = "access"
	// TokenTypeRefresh 刷新令牌
	TokenTypeRefresh = "refresh"

	contextKeyUserID  = "userID"
	contextKeyUserCtx = "userContext"
)

var (
	// ErrInvalidToken 令牌无效或已过期
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrWrongTokenType 令牌类型不匹配
	ErrWrongTokenType = errors.New("wrong token type")
)

var (
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     = 30 * time.Minute
	refreshTTL    = 7 * 24 * time.Hour
)

// Claims JWT 载荷
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair 登录与刷新接口返回的令牌对
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IssuedRefresh 签发的刷新令牌，TokenID 需要持久化
type IssuedRefresh struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// InitJWT 从配置初始化密钥与有效期
func InitJWT(cfg *config.Config) {
	accessSecret = []byte(cfg.JWT.AccessSecret)
	refreshSecret = []byte(cfg.JWT.RefreshSecret)
	if cfg.JWT.AccessExpireTime > 0 {
		accessTTL = cfg.JWT.AccessExpireTime
	}
	if cfg.JWT.RefreshExpireTime > 0 {
		refreshTTL = cfg.JWT.RefreshExpireTime
	}
}

// GenerateAccessToken 生成访问令牌
func GenerateAccessToken(user models.UserContext) (string, time.Time, error) {
	expiresAt := time.Now().Add(accessTTL)
	claims := Claims{
		UserID:    user.UserID.String(),
		Email:     user.Email,
		Name:      user.UserName,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, expiresAt, nil
}

// GenerateRefreshToken 生成刷新令牌，jti 用于吊销
func GenerateRefreshToken(user models.UserContext) (IssuedRefresh, error) {
	expiresAt := time.Now().Add(refreshTTL)
	jti := uuid.NewString()
	claims := Claims{
		UserID:    user.UserID.String(),
		Email:     user.Email,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(refreshSecret)
	if err != nil {
		return IssuedRefresh{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return IssuedRefresh{Token: token, TokenID: jti, ExpiresAt: expiresAt}, nil
}

// ParseAccessToken 解析访问令牌
func ParseAccessToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, accessSecret, TokenTypeAccess)
}

// ParseRefreshToken 解析刷新令牌
func ParseRefreshToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, refreshSecret, TokenTypeRefresh)
}

func parseToken(tokenString string, secret []byte, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserContext 由令牌载荷构造用户上下文
func (c *Claims) UserContext() models.UserContext {
	id, _ := uuid.Parse(c.UserID)
	return models.UserContext{UserID: id, UserName: c.Name, Email: c.Email}
}

// JWTAuth Bearer 令牌认证中间件
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(c, "authorization header must be Bearer <token>")
			return
		}

		claims, err := ParseAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c, "Could not validate credentials")
			return
		}

		user := claims.UserContext()
		c.Set(contextKeyUserID, user.UserID)
		c.Set(contextKeyUserCtx, user)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}

// GetCurrentUserID 获取当前用户 ID，未认证时返回 uuid.Nil
func GetCurrentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(contextKeyUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetUserContext 获取当前用户上下文
func GetUserContext(c *gin.Context) (models.UserContext, bool) {
	if v, ok := c.Get(contextKeyUserCtx); ok {
		if u, ok := v.(models.UserContext); ok {
			return u, true
		}
	}
	return models.UserContext{}, false
}

// SetUserContext 写入用户上下文，供刷新昵称等场景覆盖
func SetUserContext(c *gin.Context, user models.UserContext) {
	c.Set(contextKeyUserID, user.UserID)
	c.Set(contextKeyUserCtx, user)
}
