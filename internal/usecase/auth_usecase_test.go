package usecase

import (
	"context"
	"testing"
	"time"

	"everest/internal/config"
	"everest/internal/domain/model"
	"everest/internal/repository"
	"everest/internal/revocation"
	"everest/internal/testutil"
	"everest/internal/token"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessSecret  = "unit-access-secret"
	testRefreshSecret = "unit-refresh-secret"
	testPassword      = "Passw0rdOK"
)

// 入力検証は素通しするstub（validator本体は別パッケージで試験する）
type passValidator struct{}

func (passValidator) ValidateRegister(ctx context.Context, username, email, password string) error {
	return nil
}

func (passValidator) ValidateLogin(ctx context.Context, email, password string) error {
	return nil
}

type authFixture struct {
	uc      *AuthUsecase
	users   *testutil.FakeUserRepo
	revoked revocation.Store
	codec   *token.Codec
	cfg     config.Config
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := config.Config{
		JWTSecret:        testAccessSecret,
		JWTRefreshSecret: testRefreshSecret,
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  7 * 24 * time.Hour,
		SessionTimeout:   time.Hour,
		RefreshWindow:    5 * time.Minute,
		GoEnv:            "test",
	}

	users := testutil.NewFakeUserRepo()
	codec := token.NewCodec(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	revoked := revocation.NewMemoryStore()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return &authFixture{
		uc:      NewAuthUsecase(cfg, users, codec, revoked, passValidator{}, log),
		users:   users,
		revoked: revoked,
		codec:   codec,
		cfg:     cfg,
	}
}

func seedUser(t *testing.T, users *testutil.FakeUserRepo, role model.Role, active bool) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	u := &model.User{
		ID:             "user-" + string(role),
		Username:       "tester_" + string(role),
		Email:          string(role) + "@example.com",
		PasswordHash:   string(hash),
		Role:           role,
		Active:         active,
		SessionVersion: 0,
	}
	users.Seed(u)
	return u
}

func testClient() ClientContext {
	return ClientContext{UserAgent: "test-agent/1.0", IP: "10.1.2.3"}
}

// --- login ---

// 正しい資格情報でログイン → 返ったaccess tokenが同じクライアント文脈で即座に検証を通る
func TestLogin_IssuedTokenValidatesImmediately(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)
	assert.Equal(t, user.ID, out.User.ID)
	require.NotEmpty(t, out.Pair.AccessToken)
	require.NotEmpty(t, out.Pair.RefreshToken)

	identity, rotated, err := f.uc.ValidateAccessToken(ctx, out.Pair.AccessToken, "", testClient())
	require.NoError(t, err)
	assert.Nil(t, rotated)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, model.RoleUser, identity.Role)
	assert.Equal(t, 0, identity.SessionVersion)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	user := seedUser(t, f.users, model.RoleUser, true)

	_, err := f.uc.Login(context.Background(), user.Email, "WrongPass1", testClient())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.uc.Login(context.Background(), "nobody@example.com", testPassword, testClient())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// 凍結ユーザーもInvalidCredentials（エラーを分けるとユーザー列挙に使われる）
func TestLogin_InactiveUserSameError(t *testing.T) {
	f := newAuthFixture(t)
	user := seedUser(t, f.users, model.RoleUser, false)

	_, err := f.uc.Login(context.Background(), user.Email, testPassword, testClient())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// ログインではsession versionは上がらない
func TestLogin_KeepsSessionVersion(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	_, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.SessionVersion)
	require.NotNil(t, stored.RefreshTokenHash)
}

// last_login更新（全カラムUpdate）が保存済みのrefresh hashを巻き戻さないこと。
// ここが壊れるとログイン直後のrefresh tokenが全部rotationで弾かれる。
func TestLogin_PersistsRefreshHash(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	stored, err := f.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.Equal(t, token.HashToken(out.Pair.RefreshToken), *stored.RefreshTokenHash)
	require.NotNil(t, stored.LastLoginAt)

	//ログイン直後のrefresh tokenがそのままrotationに使える
	_, err = f.uc.Rotate(ctx, out.Pair.RefreshToken, testClient())
	assert.NoError(t, err)
}

// --- validate ---

// 別クライアント（UA/IP違い）からの再生はfingerprint不一致で弾く
func TestValidate_FingerprintMismatch(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	stolen := ClientContext{UserAgent: "evil-agent/6.6", IP: "203.0.113.9"}
	_, _, err = f.uc.ValidateAccessToken(ctx, out.Pair.AccessToken, "", stolen)
	assert.ErrorIs(t, err, ErrSessionHijack)
}

func TestValidate_NoToken(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.uc.ValidateAccessToken(context.Background(), "", "", testClient())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestValidate_MalformedToken(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.uc.ValidateAccessToken(context.Background(), "garbage", "", testClient())
	assert.ErrorIs(t, err, ErrMalformedToken)
}

// token自体のexpが残っていても発行からSessionTimeoutを超えたら落とす
func TestValidate_SessionTimeout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	raw := makeAccessToken(t, jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"sv":   0,
		"fp":   testClient().Fingerprint(),
		"iat":  time.Now().Add(-2 * time.Hour).Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	_, _, err := f.uc.ValidateAccessToken(ctx, raw, "", testClient())
	assert.ErrorIs(t, err, ErrSessionTimeout)
}

func TestValidate_InactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	//ログイン後に凍結された
	user.Active = false
	user.RefreshTokenHash = nil
	f.users.Seed(user)

	_, _, err = f.uc.ValidateAccessToken(ctx, out.Pair.AccessToken, "", testClient())
	assert.ErrorIs(t, err, ErrUserInactive)
}

// --- rotation ---

// rotationは一度きり。使用済みrefresh tokenの再利用は必ず失敗する
func TestRotate_SingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	first, err := f.uc.Rotate(ctx, out.Pair.RefreshToken, testClient())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Identity.SessionVersion)

	//同じtokenをもう一度
	_, err = f.uc.Rotate(ctx, out.Pair.RefreshToken, testClient())
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

// rotation後：新pairは即検証を通り、旧access tokenはSESSION_REVOKED
func TestRotate_InvalidatesPreviousGeneration(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	rotated, err := f.uc.Rotate(ctx, out.Pair.RefreshToken, testClient())
	require.NoError(t, err)

	//新世代は通る
	identity, _, err := f.uc.ValidateAccessToken(ctx, rotated.Pair.AccessToken, "", testClient())
	require.NoError(t, err)
	assert.Equal(t, 1, identity.SessionVersion)

	//旧世代はversion不一致
	_, _, err = f.uc.ValidateAccessToken(ctx, out.Pair.AccessToken, "", testClient())
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestRotate_MissingToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.uc.Rotate(context.Background(), "", testClient())
	assert.ErrorIs(t, err, ErrMissingRefreshToken)
}

func TestRotate_GarbageToken(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.uc.Rotate(context.Background(), "garbage", testClient())
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

// DBに保存されたhashと一致しないrefresh token（例：古いログインのもの）は拒否
func TestRotate_HashMismatch(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	first, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	//2回目のログインでhashが差し替わる
	_, err = f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	_, err = f.uc.Rotate(ctx, first.Pair.RefreshToken, testClient())
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

// 並行rotationの負け側（条件付きUPDATEが0件）はSESSION_REVOKED
func TestRotate_ConcurrentLoser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	//勝者のrotationがFindByIDとUPDATEの間に入り込んだ状況を再現
	raceRepo := &racingUserRepo{UserRepository: f.users, inner: f.users, refresh: out.Pair.RefreshToken}
	uc := NewAuthUsecase(f.cfg, raceRepo, f.codec, revocation.NewMemoryStore(), passValidator{}, quietLogger())

	_, err = uc.Rotate(ctx, out.Pair.RefreshToken, testClient())
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

// FindByIDの後・UPDATEの前に別のrotationを滑り込ませるrepo
type racingUserRepo struct {
	repository.UserRepository
	inner   *testutil.FakeUserRepo
	refresh string
	fired   bool
}

func (r *racingUserRepo) RotateRefreshToken(ctx context.Context, userID string, expectedHash string, expectedVersion int, newHash string) error {
	if !r.fired {
		r.fired = true
		//勝者：素のusecaseで同じrefresh tokenを先にrotationさせる
		winner := NewAuthUsecase(config.Config{
			JWTSecret:        testAccessSecret,
			JWTRefreshSecret: testRefreshSecret,
			AccessTokenTTL:   time.Hour,
			RefreshTokenTTL:  7 * 24 * time.Hour,
			SessionTimeout:   time.Hour,
			RefreshWindow:    5 * time.Minute,
		}, r.inner, token.NewCodec(testAccessSecret, testRefreshSecret, time.Hour, 7*24*time.Hour), revocation.NewMemoryStore(), passValidator{}, quietLogger())
		if _, err := winner.Rotate(ctx, r.refresh, testClient()); err != nil {
			return err
		}
	}
	return r.inner.RotateRefreshToken(ctx, userID, expectedHash, expectedVersion, newHash)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// --- 期限切れ救済と期限間近の自動延長 ---

// 期限切れaccess + 有効refresh = soft expiry：その場でrotationして続行
func TestValidate_ExpiredTokenRecoversViaRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	expired := makeAccessToken(t, jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"sv":   0,
		"fp":   testClient().Fingerprint(),
		"iat":  time.Now().Add(-2 * time.Hour).Unix(),
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	identity, rotated, err := f.uc.ValidateAccessToken(ctx, expired, out.Pair.RefreshToken, testClient())
	require.NoError(t, err)
	require.NotNil(t, rotated)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, 1, identity.SessionVersion)

	//新しいpairが次のリクエストで使える
	_, _, err = f.uc.ValidateAccessToken(ctx, rotated.AccessToken, "", testClient())
	assert.NoError(t, err)
}

// 期限切れaccessでrefreshが無ければTOKEN_EXPIRED
func TestValidate_ExpiredTokenWithoutRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	expired := makeAccessToken(t, jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"sv":   0,
		"fp":   testClient().Fingerprint(),
		"iat":  time.Now().Add(-2 * time.Hour).Unix(),
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	_, _, err := f.uc.ValidateAccessToken(ctx, expired, "", testClient())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

// 残り寿命がrefresh window未満なら裏でrotationして新pairを返す
func TestValidate_NearExpiryOpportunisticRotation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	nearExpiry := makeAccessToken(t, jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"sv":   0,
		"fp":   testClient().Fingerprint(),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Minute).Unix(), //window(5m)より短い
	})

	identity, rotated, err := f.uc.ValidateAccessToken(ctx, nearExpiry, out.Pair.RefreshToken, testClient())
	require.NoError(t, err)
	require.NotNil(t, rotated)
	assert.Equal(t, 1, identity.SessionVersion)
}

// 自動延長のrotation失敗はリクエストを落とさない（ログだけ）
func TestValidate_NearExpiryRotationFailureIsSwallowed(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	_, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	nearExpiry := makeAccessToken(t, jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"sv":   0,
		"fp":   testClient().Fingerprint(),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Minute).Unix(),
	})

	identity, rotated, err := f.uc.ValidateAccessToken(ctx, nearExpiry, "bogus-refresh-token", testClient())
	require.NoError(t, err)
	assert.Nil(t, rotated)
	assert.Equal(t, user.ID, identity.UserID)
}

// --- logout ---

// logout後：同じaccess tokenは即失効、refreshも使えない
func TestLogout_RevokesEverything(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	require.NoError(t, f.uc.Logout(ctx, user.ID, out.Pair.AccessToken))

	//revocation setによる早期reject
	_, _, err = f.uc.ValidateAccessToken(ctx, out.Pair.AccessToken, "", testClient())
	assert.ErrorIs(t, err, ErrRevoked)

	//refresh hashも消えている
	_, err = f.uc.Rotate(ctx, out.Pair.RefreshToken, testClient())
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

// version bumpだけでも旧tokenは死ぬ（revocation setはただの近道）
func TestLogout_VersionBumpAloneInvalidates(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := seedUser(t, f.users, model.RoleUser, true)

	out, err := f.uc.Login(ctx, user.Email, testPassword, testClient())
	require.NoError(t, err)

	//別インスタンスのrevocation setには入っていない状況を再現
	other := NewAuthUsecase(f.cfg, f.users, f.codec, revocation.NewMemoryStore(), passValidator{}, quietLogger())

	require.NoError(t, f.uc.Logout(ctx, user.ID, out.Pair.AccessToken))

	_, _, err = other.ValidateAccessToken(ctx, out.Pair.AccessToken, "", testClient())
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

// --- register ---

func TestRegister_Success(t *testing.T) {
	f := newAuthFixture(t)

	out, err := f.uc.Register(context.Background(), "newuser", "new@example.com", "Passw0rdOK", testClient())
	require.NoError(t, err)
	assert.Equal(t, "newuser", out.User.Username)
	assert.Equal(t, model.RoleUser, out.User.Role)
	assert.NotEmpty(t, out.AccessToken)

	//登録直後のtokenが同じクライアントで使える
	_, _, err = f.uc.ValidateAccessToken(context.Background(), out.AccessToken, "", testClient())
	assert.NoError(t, err)
}

func makeAccessToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testAccessSecret))
	require.NoError(t, err)
	return s
}
