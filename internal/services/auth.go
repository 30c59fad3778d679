package services

import (
	"context"
	"net/mail"
	"strings"

	"agora/internal/db"
	"agora/internal/models"
	"agora/internal/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const MinPasswordLength = 6

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

type AuthService struct {
	store  *db.Store
	tokens *TokenIssuer
}

func NewAuthService(store *db.Store, tokens *TokenIssuer) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. The very first account becomes an admin.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenResponse, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, Invalid("invalid email")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, Invalid("password is too short")
	}
	name := strings.TrimSpace(utils.PlainText(in.Name))
	if name == "" {
		return nil, Invalid("name is required")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	user := &models.User{Email: email, Password: hash, Name: name}

	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	err = tx.Transaction(func(tx *gorm.DB) error {
		// 串行化注册，保证邮箱唯一检查和首个管理员判定不被并发绕过
		if err := db.LockTable(tx, "users"); err != nil {
			return err
		}
		var exists int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return errors.Wrap(ErrConflict, "email already registered")
		}
		var total int64
		if err := tx.Model(&models.User{}).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 {
			user.Role = models.RoleAdmin
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, StoreErr(err)
	}
	return s.respond(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()

	var user models.User
	err := tx.Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(ErrUnauthenticated, "invalid email or password")
	}
	if err != nil {
		return nil, StoreErr(err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, errors.Wrap(ErrUnauthenticated, "invalid email or password")
	}
	if user.IsBanned {
		return nil, errors.Wrap(ErrForbidden, "account is banned")
	}
	return s.respond(&user)
}

// Authenticate resolves a bearer token to a fresh user row.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()
	var user models.User
	err = tx.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(ErrUnauthenticated, "unknown user")
	}
	if err != nil {
		return nil, StoreErr(err)
	}
	if user.IsBanned {
		return nil, errors.Wrap(ErrForbidden, "account is banned")
	}
	return &user, nil
}

func (s *AuthService) respond(user *models.User) (*TokenResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer", User: user}, nil
}
