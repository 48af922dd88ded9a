package token

import (
	"errors"
	"strconv"
	"time"

	"everest/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
)

var (
	//署名シークレットが未設定
	ErrNoSecret = errors.New("token secret not configured")
	//形式が壊れている（JWTとして読めない・claims不足）
	ErrMalformed = errors.New("malformed token")
	//署名が合わない
	ErrInvalidSignature = errors.New("invalid token signature")
	//期限切れ
	ErrExpired = errors.New("token expired")
	//nbfより前（まだ有効でない）
	ErrNotYetValid = errors.New("token not yet valid")
)

// access tokenに入れるclaims。
type AccessClaims struct {
	UserID         string
	Role           model.Role
	SessionVersion int
	Fingerprint    string
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// refresh tokenに入れるclaims。
type RefreshClaims struct {
	UserID         string
	SessionVersion int
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// 署名・検証を行うcodec。accessとrefreshで別シークレット。
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) *Codec {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// access tokenを発行。fingerprintとsession versionを埋め込む。
func (c *Codec) IssueAccessToken(userID string, role model.Role, sessionVersion int, fingerprint string) (string, time.Time, error) {
	if len(c.accessSecret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}

	now := time.Now()
	exp := now.Add(c.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"sv":   sessionVersion,
		"fp":   fingerprint,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString(c.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, exp, nil
}

// refresh tokenを発行。fingerprintは入れない。
func (c *Codec) IssueRefreshToken(userID string, sessionVersion int) (string, time.Time, error) {
	if len(c.refreshSecret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}

	now := time.Now()
	exp := now.Add(c.refreshTTL)

	claims := jwt.MapClaims{
		"sub": userID,
		"sv":  sessionVersion,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString(c.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, exp, nil
}

// access tokenを検証してclaimsを返す。
func (c *Codec) VerifyAccessToken(raw string) (*AccessClaims, error) {
	claims, err := c.verify(raw, c.accessSecret)
	if err != nil {
		return nil, err
	}

	userID, err := parseString(claims["sub"])
	if err != nil || userID == "" {
		return nil, ErrMalformed
	}

	role, err := parseString(claims["role"])
	if err != nil || role == "" {
		return nil, ErrMalformed
	}

	sv, err := parseInt(claims["sv"])
	if err != nil || sv < 0 {
		return nil, ErrMalformed
	}

	fp, err := parseString(claims["fp"])
	if err != nil || fp == "" {
		return nil, ErrMalformed
	}

	iat, err := parseInt64(claims["iat"])
	if err != nil {
		return nil, ErrMalformed
	}
	exp, err := parseInt64(claims["exp"])
	if err != nil {
		return nil, ErrMalformed
	}

	return &AccessClaims{
		UserID:         userID,
		Role:           model.Role(role),
		SessionVersion: sv,
		Fingerprint:    fp,
		IssuedAt:       time.Unix(iat, 0),
		ExpiresAt:      time.Unix(exp, 0),
	}, nil
}

// refresh tokenを検証してclaimsを返す。
func (c *Codec) VerifyRefreshToken(raw string) (*RefreshClaims, error) {
	claims, err := c.verify(raw, c.refreshSecret)
	if err != nil {
		return nil, err
	}

	userID, err := parseString(claims["sub"])
	if err != nil || userID == "" {
		return nil, ErrMalformed
	}

	sv, err := parseInt(claims["sv"])
	if err != nil || sv < 0 {
		return nil, ErrMalformed
	}

	iat, err := parseInt64(claims["iat"])
	if err != nil {
		return nil, ErrMalformed
	}
	exp, err := parseInt64(claims["exp"])
	if err != nil {
		return nil, ErrMalformed
	}

	return &RefreshClaims{
		UserID:         userID,
		SessionVersion: sv,
		IssuedAt:       time.Unix(iat, 0),
		ExpiresAt:      time.Unix(exp, 0),
	}, nil
}

func (c *Codec) verify(raw string, secret []byte) (jwt.MapClaims, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	if raw == "" {
		return nil, ErrMalformed
	}

	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, ErrExpired
			case ve.Errors&jwt.ValidationErrorNotValidYet != 0:
				return nil, ErrNotYetValid
			case ve.Errors&jwt.ValidationErrorSignatureInvalid != 0:
				return nil, ErrInvalidSignature
			case ve.Errors&jwt.ValidationErrorUnverifiable != 0:
				return nil, ErrInvalidSignature
			}
		}
		return nil, ErrMalformed
	}

	if t == nil || !t.Valid {
		return nil, ErrInvalidSignature
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}

	return claims, nil
}

func parseString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid string")
	}
	return s, nil
}

func parseInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		i64, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return 0, err
		}
		return int(i64), nil
	default:
		return 0, errors.New("invalid int")
	}
}

func parseInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case int64:
		return t, nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid int64")
	}
}
