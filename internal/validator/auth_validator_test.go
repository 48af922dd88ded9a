package validator

import (
	"context"
	"strings"
	"testing"

	"everest/internal/domain/model"
	"everest/internal/testutil"
	"everest/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegister(t *testing.T) {
	users := testutil.NewFakeUserRepo()
	users.Seed(&model.User{ID: "u1", Username: "taken", Email: "taken@example.com"})
	v := NewAuthValidator(users)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
		want     error
	}{
		{"正常", "valid_user", "new@example.com", "Passw0rdOK", nil},
		{"username最短3文字", "abc", "new@example.com", "Passw0rdOK", nil},
		{"username空", "", "new@example.com", "Passw0rdOK", usecase.ErrValidation},
		{"username短すぎ", "ab", "new@example.com", "Passw0rdOK", usecase.ErrValidation},
		{"username長すぎ", strings.Repeat("a", 31), "new@example.com", "Passw0rdOK", usecase.ErrValidation},
		{"usernameに記号", "bad-name!", "new@example.com", "Passw0rdOK", usecase.ErrValidation},
		{"email空", "valid_user", "", "Passw0rdOK", usecase.ErrValidation},
		{"email形式不正", "valid_user", "not-an-email", "Passw0rdOK", usecase.ErrValidation},
		{"email形式不正2", "valid_user", "a@b", "Passw0rdOK", usecase.ErrValidation},
		{"password空", "valid_user", "new@example.com", "", usecase.ErrValidation},
		{"password短すぎ", "valid_user", "new@example.com", "Pa1x", usecase.ErrValidation},
		{"password大文字なし", "valid_user", "new@example.com", "passw0rdok", usecase.ErrValidation},
		{"password小文字なし", "valid_user", "new@example.com", "PASSW0RDOK", usecase.ErrValidation},
		{"password数字なし", "valid_user", "new@example.com", "PasswordOK", usecase.ErrValidation},
		{"email重複", "valid_user", "taken@example.com", "Passw0rdOK", usecase.ErrConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateRegister(ctx, tc.username, tc.email, tc.password)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

// 前後空白はtrimしてから判定する
func TestValidateRegister_TrimsWhitespace(t *testing.T) {
	v := NewAuthValidator(testutil.NewFakeUserRepo())

	err := v.ValidateRegister(context.Background(), "  valid_user  ", "  new@example.com  ", "Passw0rdOK")
	require.NoError(t, err)
}

func TestValidateLogin(t *testing.T) {
	v := NewAuthValidator(testutil.NewFakeUserRepo())
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"正常", "user@example.com", "whatever", nil},
		{"email空", "", "whatever", usecase.ErrValidation},
		{"password空", "user@example.com", "", usecase.ErrValidation},
		{"email形式不正", "not-an-email", "whatever", usecase.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateLogin(ctx, tc.email, tc.password)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}
