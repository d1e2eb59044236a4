package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"kashflo/models"
)

// VerificationCodeTTL 验证码有效期
const VerificationCodeTTL = 10 * time.Minute

// SignupInput 注册信息
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UserService 账号、刷新令牌与邮箱验证
type UserService struct {
	db *gorm.DB
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register 注册用户，密码使用 bcrypt 存储
func (s *UserService) Register(ctx context.Context, in SignupInput) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  string(hashed),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate 校验邮箱与密码
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get 按 ID 获取用户
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// Delete 删除账号及其全部数据
// 先删交易再删类别，避免类别外键 RESTRICT 阻止删除
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			name  string
			model interface{}
		}{
			{"transactions", &models.Transaction{}},
			{"categories", &models.Category{}},
			{"refresh tokens", &models.RefreshToken{}},
			{"verification codes", &models.EmailVerification{}},
		}
		for _, step := range steps {
			if err := tx.Where("user_id = ?", id).Delete(step.model).Error; err != nil {
				return fmt.Errorf("delete %s: %w", step.name, err)
			}
		}

		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return fmt.Errorf("delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// RecordRefreshToken 记录签发的刷新令牌
func (s *UserService) RecordRefreshToken(ctx context.Context, userID uuid.UUID, tokenID string, expiresAt time.Time) error {
	token := &models.RefreshToken{UserID: userID, TokenID: tokenID, ExpiresAt: expiresAt}
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("record refresh token: %w", err)
	}
	return nil
}

// ConsumeRefreshToken 吊销一个可用的刷新令牌并返回其用户，用于刷新与登出
func (s *UserService) ConsumeRefreshToken(ctx context.Context, userID uuid.UUID, tokenID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var token models.RefreshToken
		err := tx.Where("token_id = ? AND user_id = ?", tokenID, userID).First(&token).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidRefreshToken
		}
		if err != nil {
			return fmt.Errorf("find refresh token: %w", err)
		}
		if !token.IsUsable() {
			return ErrInvalidRefreshToken
		}

		// 条件更新，并发刷新时只有一个请求成功
		result := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", token.ID, false).
			Update("revoked", true)
		if result.Error != nil {
			return fmt.Errorf("revoke refresh token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInvalidRefreshToken
		}

		err = tx.Where("id = ?", userID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidRefreshToken
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IssueVerificationCode 生成邮箱验证码，旧的未使用验证码作废
func (s *UserService) IssueVerificationCode(ctx context.Context, user models.UserContext) (*models.EmailVerification, error) {
	code, err := models.GenerateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	verification := &models.EmailVerification{
		UserID:    user.UserID,
		Email:     user.Email,
		Code:      code,
		ExpiresAt: time.Now().Add(VerificationCodeTTL),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Where("id = ?", user.UserID).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if u.IsVerified {
			return ErrAlreadyVerified
		}
		verification.Email = u.Email

		if err := tx.Model(&models.EmailVerification{}).
			Where("user_id = ? AND used = ?", user.UserID, false).
			Update("used", true).Error; err != nil {
			return fmt.Errorf("expire old codes: %w", err)
		}
		return tx.Create(verification).Error
	})
	if err != nil {
		return nil, err
	}
	return verification, nil
}

// VerifyCode 校验验证码并标记用户已验证
func (s *UserService) VerifyCode(ctx context.Context, user models.UserContext, code string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.EmailVerification
		err := tx.Where("user_id = ? AND code = ? AND used = ?", user.UserID, strings.TrimSpace(code), false).
			Order("created_at DESC").
			First(&v).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		if err != nil {
			return fmt.Errorf("find code: %w", err)
		}
		if !v.IsValid() {
			return ErrInvalidCode
		}

		if err := tx.Model(&v).Update("used", true).Error; err != nil {
			return fmt.Errorf("mark code used: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.UserID).Update("is_verified", true).Error; err != nil {
			return fmt.Errorf("mark user verified: %w", err)
		}
		return nil
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
