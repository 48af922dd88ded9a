package validator

import (
	"context"
	"regexp"
	"strings"

	"everest/internal/repository"
	"everest/internal/usecase"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	digitRe    = regexp.MustCompile(`\d`)
)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// 会員登録の入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, username string, email string, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	// 必須チェック
	if username == "" || email == "" || password == "" {
		return usecase.ErrValidation
	}

	// username: 3〜30文字、英数とアンダースコアのみ
	if len(username) < 3 || len(username) > 30 || !usernameRe.MatchString(username) {
		return usecase.ErrValidation
	}

	// email形式
	if !emailRe.MatchString(email) {
		return usecase.ErrValidation
	}

	// パスワード: 8文字以上、大文字・小文字・数字を各1つ以上
	if len(password) < 8 ||
		!lowerRe.MatchString(password) ||
		!upperRe.MatchString(password) ||
		!digitRe.MatchString(password) {
		return usecase.ErrValidation
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return usecase.ErrConflict
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return usecase.ErrValidation
	}

	// email形式
	if !emailRe.MatchString(email) {
		return usecase.ErrValidation
	}

	return nil
}
