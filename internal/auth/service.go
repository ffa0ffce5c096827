// Package auth はユーザー登録・ログイン・ベアラートークン管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thapelo/proposalhub/internal/model"
	"github.com/thapelo/proposalhub/internal/repository"
)

// Credential はログイン・登録成功時に発行される認証情報。
// Tokenはクライアント側でCookie（1日で失効）とAuthorizationヘッダーに保持される。
type Credential struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenService
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenService) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// normalizeEmail はメールアドレスを小文字・前後空白なしの正規形に揃える。
// 登録とログインの両方で適用し、大文字小文字違いによる重複登録やログイン失敗を防ぐ。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register は新規ユーザーを作成し、トークンを発行する。
// メールアドレスが既に登録済みの場合はDuplicateEmailエラーを返す。
func (s *Service) Register(ctx context.Context, name, email, password string) (*Credential, error) {
	email = normalizeEmail(email)
	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, model.NewMissingFieldsError(strings.Join(missing, ", "))
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return s.issueCredential(user)
}

// Login は認証情報を検証し、トークンを発行する。
// メールアドレス未登録とパスワード不一致は区別せずInvalidCredentialsエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Credential, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, model.NewMissingFieldsError("email, password")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return s.issueCredential(user)
}

// VerifyToken はベアラートークンを検証し、ユーザーIDを返す。
func (s *Service) VerifyToken(tokenString string) (string, error) {
	return s.tokens.Verify(tokenString)
}

// issueCredential はユーザーのトークンを発行してCredentialを組み立てる。
func (s *Service) issueCredential(user *model.User) (*Credential, error) {
	token, err := s.tokens.Mint(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mint token: %w", err)
	}

	return &Credential{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokens.expiry),
		User:      user,
	}, nil
}
