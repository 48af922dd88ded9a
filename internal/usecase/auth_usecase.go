package usecase

import (
	"context"
	"errors"
	"time"

	"everest/internal/config"
	"everest/internal/domain/model"
	"everest/internal/repository"
	"everest/internal/revocation"
	"everest/internal/token"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, username string, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
}

// tokenの発行元クライアント情報。fingerprint計算に使う。
type ClientContext struct {
	UserAgent string
	IP        string
}

func (c ClientContext) Fingerprint() string {
	return token.Fingerprint(c.UserAgent, c.IP)
}

// 検証を通ったリクエストに付く本人情報。
type Identity struct {
	UserID          string
	Username        string
	Role            model.Role
	SessionVersion  int
	SessionIssuedAt time.Time
}

type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type UserDTO struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
}

type RegisterResult struct {
	User        UserDTO
	AccessToken string
}

type LoginResult struct {
	User UserDTO
	Pair TokenPair
}

type RotateResult struct {
	Identity Identity
	Pair     TokenPair
}

// 認証・セッション管理の本体。
type AuthUsecase struct {
	cfg       config.Config
	users     repository.UserRepository
	codec     *token.Codec
	revoked   revocation.Store
	validator AuthValidator
	log       *logrus.Logger
}

func NewAuthUsecase(
	cfg config.Config,
	users repository.UserRepository,
	codec *token.Codec,
	revoked revocation.Store,
	validator AuthValidator,
	log *logrus.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		codec:     codec,
		revoked:   revoked,
		validator: validator,
		log:       log,
	}
}

// 存在しないemailへのログイン試行でも照合時間を揃えるためのdummy（"dummy"のhash）。
const dummyPasswordHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// 会員登録。登録直後に使えるaccess tokenも返す（refreshはログインで）。
func (u *AuthUsecase) Register(ctx context.Context, username string, email string, password string, client ClientContext) (*RegisterResult, error) {
	if err := u.validator.ValidateRegister(ctx, username, email, password); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, ErrInternal
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		PasswordHash:   string(pwHash),
		Role:           model.RoleUser,
		Active:         true,
		SessionVersion: 0,
	}

	if err := u.users.Create(ctx, user); err != nil {
		// email uniqueIndex違反はここに来る
		return nil, ErrConflict
	}

	access, _, err := u.codec.IssueAccessToken(user.ID, user.Role, user.SessionVersion, client.Fingerprint())
	if err != nil {
		return nil, ErrInternal
	}

	return &RegisterResult{
		User:        toUserDTO(user),
		AccessToken: access,
	}, nil
}

// ログイン。token pairを発行してrefresh hashを保存する。
// ログインではsession versionは上げない（rotationでだけ上げる）。
func (u *AuthUsecase) Login(ctx context.Context, email string, password string, client ClientContext) (*LoginResult, error) {
	if err := u.validator.ValidateLogin(ctx, email, password); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil || user == nil {
		//存在しないemailでもbcryptを1回回して時間差を作らない
		_ = bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(password))
		return nil, ErrInvalidCredentials
	}

	//パスワード照合（bcrypt、定数時間比較）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	//凍結ユーザーも同じエラー（ユーザー列挙を防ぐ）
	if !user.Active {
		return nil, ErrInvalidCredentials
	}

	pair, err := u.issuePair(user, client)
	if err != nil {
		return nil, ErrInternal
	}

	//refresh hashを差し替え（ログインではversionは上げない）
	refreshHash := token.HashToken(pair.RefreshToken)
	if err := u.users.SetRefreshTokenHash(ctx, user.ID, refreshHash); err != nil {
		return nil, ErrInternal
	}

	//last_login更新（失敗してもログインは通す）。
	//Updateは全カラムを書くので、保存したばかりのhashを巻き戻さないよう
	//メモリ上のuserにも反映してから渡す。
	now := time.Now()
	user.LastLoginAt = &now
	user.RefreshTokenHash = &refreshHash
	if err := u.users.Update(ctx, user); err != nil {
		u.log.WithError(err).WithField("user_id", user.ID).Warn("failed to update last login")
	}

	return &LoginResult{
		User: toUserDTO(user),
		Pair: pair,
	}, nil
}

// access tokenを検証する。
// 検証順：revocation set → 署名/期限 → fingerprint → 絶対上限 → ユーザー実在/version。
// refreshRawが渡されていれば期限切れ・期限間近をrotationで救済し、
// 新しいpairを返す（cookie更新用）。救済しなかった場合pairはnil。
func (u *AuthUsecase) ValidateAccessToken(ctx context.Context, raw string, refreshRaw string, client ClientContext) (*Identity, *TokenPair, error) {
	if raw == "" {
		return nil, nil, ErrNoToken
	}

	//明示的に失効済みか（logout済みtokenの早期reject）
	if hit, err := u.revoked.Contains(ctx, token.HashToken(raw)); err != nil {
		u.log.WithError(err).Warn("revocation store lookup failed")
	} else if hit {
		return nil, nil, ErrRevoked
	}

	claims, err := u.codec.VerifyAccessToken(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			//soft-expiry：期限切れでもrefreshが有効ならrotationして続行
			if refreshRaw == "" {
				return nil, nil, ErrTokenExpired
			}
			res, rerr := u.Rotate(ctx, refreshRaw, client)
			if rerr != nil {
				u.log.WithError(rerr).Debug("expired token recovery failed")
				return nil, nil, ErrTokenExpired
			}
			return &res.Identity, &res.Pair, nil
		}
		return nil, nil, mapTokenError(err)
	}

	//fingerprint照合（盗まれたtokenの別クライアント再生を弾く）
	if claims.Fingerprint != client.Fingerprint() {
		u.log.WithFields(logrus.Fields{
			"user_id":    claims.UserID,
			"ip":         client.IP,
			"user_agent": client.UserAgent,
		}).Warn("possible session hijack attempt")
		return nil, nil, ErrSessionHijack
	}

	//token自体の期限とは別の絶対上限
	if time.Since(claims.IssuedAt) > u.cfg.SessionTimeout {
		return nil, nil, ErrSessionTimeout
	}

	user, err := u.users.FindByID(ctx, claims.UserID)
	if err != nil || user == nil || !user.Active {
		return nil, nil, ErrUserInactive
	}

	//古い世代のtokenは全部無効
	if claims.SessionVersion != user.SessionVersion {
		return nil, nil, ErrSessionRevoked
	}

	identity := Identity{
		UserID:          user.ID,
		Username:        user.Username,
		Role:            user.Role,
		SessionVersion:  user.SessionVersion,
		SessionIssuedAt: claims.IssuedAt,
	}

	//期限間近なら裏でrotationして延命（失敗しても本リクエストは通す）
	if refreshRaw != "" && time.Until(claims.ExpiresAt) < u.cfg.RefreshWindow {
		res, rerr := u.Rotate(ctx, refreshRaw, client)
		if rerr != nil {
			u.log.WithError(rerr).WithField("user_id", user.ID).Debug("opportunistic rotation failed")
			return &identity, nil, nil
		}
		return &res.Identity, &res.Pair, nil
	}

	return &identity, nil, nil
}

// rotation本体。/auth/refresh・期限切れ救済・期限間近の自動延長の3か所が全部これを通る。
// 成功するとsession versionが+1され、旧世代のaccess/refresh tokenは全て無効になる。
func (u *AuthUsecase) Rotate(ctx context.Context, refreshRaw string, client ClientContext) (*RotateResult, error) {
	if refreshRaw == "" {
		return nil, ErrMissingRefreshToken
	}

	claims, err := u.codec.VerifyRefreshToken(refreshRaw)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	oldHash := token.HashToken(refreshRaw)

	//rotation済みtokenの再利用を早期reject
	if hit, err := u.revoked.Contains(ctx, oldHash); err != nil {
		u.log.WithError(err).Warn("revocation store lookup failed")
	} else if hit {
		return nil, ErrInvalidRefreshToken
	}

	user, err := u.users.FindByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return nil, ErrInvalidRefreshToken
	}
	if !user.Active {
		return nil, ErrUserInactive
	}

	//保存hashとの一致が正本のチェック
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != oldHash {
		return nil, ErrInvalidRefreshToken
	}
	if claims.SessionVersion != user.SessionVersion {
		return nil, ErrSessionRevoked
	}

	//新pairは+1後のversionで発行する（発行直後のvalidationが通るように）
	newVersion := user.SessionVersion + 1

	fp := client.Fingerprint()
	access, accessExp, err := u.codec.IssueAccessToken(user.ID, user.Role, newVersion, fp)
	if err != nil {
		return nil, ErrInternal
	}
	refresh, refreshExp, err := u.codec.IssueRefreshToken(user.ID, newVersion)
	if err != nil {
		return nil, ErrInternal
	}

	//期待hash+versionの行だけ更新する1発のUPDATE。
	//並行rotationの負け側は0件更新になる。
	err = u.users.RotateRefreshToken(ctx, user.ID, oldHash, user.SessionVersion, token.HashToken(refresh))
	if err != nil {
		if errors.Is(err, repository.ErrStaleSession) {
			return nil, ErrSessionRevoked
		}
		return nil, ErrInternal
	}

	//使い終わったrefreshは念のため失効setにも入れる
	if err := u.revoked.Add(ctx, oldHash, time.Until(claims.ExpiresAt)); err != nil {
		u.log.WithError(err).Warn("failed to blacklist rotated refresh token")
	}

	return &RotateResult{
		Identity: Identity{
			UserID:          user.ID,
			Username:        user.Username,
			Role:            user.Role,
			SessionVersion:  newVersion,
			SessionIssuedAt: time.Now(),
		},
		Pair: TokenPair{
			AccessToken:      access,
			AccessExpiresAt:  accessExp,
			RefreshToken:     refresh,
			RefreshExpiresAt: refreshExp,
		},
	}, nil
}

// ログアウト。access tokenを失効setに入れ、refresh hashを消してversionを上げる。
func (u *AuthUsecase) Logout(ctx context.Context, userID string, accessRaw string) error {
	if accessRaw != "" {
		if err := u.revoked.Add(ctx, token.HashToken(accessRaw), u.codec.AccessTTL()); err != nil {
			u.log.WithError(err).Warn("failed to blacklist access token on logout")
		}
	}

	if err := u.users.ClearSession(ctx, userID); err != nil {
		return ErrInternal
	}

	return nil
}

// 現在のユーザー情報。
func (u *AuthUsecase) Profile(ctx context.Context, userID string) (*UserDTO, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrNotFound
	}

	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AuthUsecase) issuePair(user *model.User, client ClientContext) (TokenPair, error) {
	access, accessExp, err := u.codec.IssueAccessToken(user.ID, user.Role, user.SessionVersion, client.Fingerprint())
	if err != nil {
		return TokenPair{}, err
	}

	refresh, refreshExp, err := u.codec.IssueRefreshToken(user.ID, user.SessionVersion)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrMalformed):
		return ErrMalformedToken
	case errors.Is(err, token.ErrInvalidSignature):
		return ErrInvalidToken
	case errors.Is(err, token.ErrNotYetValid):
		return ErrTokenNotYetValid
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrNoSecret):
		return ErrInternal
	default:
		return ErrInvalidToken
	}
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}
