package usecase

import (
	"context"
	"errors"
	"testing"

	"everest/internal/domain/model"
	"everest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	uc      *AdminUsecase
	users   *testutil.FakeUserRepo
	devices *testutil.FakeDeviceRepo
	audits  *testutil.FakeAuditRepo
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()

	users := testutil.NewFakeUserRepo()
	devices := testutil.NewFakeDeviceRepo()
	audits := testutil.NewFakeAuditRepo()
	return &adminFixture{
		uc:      NewAdminUsecase(users, devices, audits, quietLogger()),
		users:   users,
		devices: devices,
		audits:  audits,
	}
}

func adminIdentity() Identity {
	return Identity{UserID: "admin-1", Username: "admin_hanako", Role: model.RoleAdmin}
}

func TestSetDeviceBlocked(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	f.devices.Seed(&model.Device{ID: "device-1", Name: "Guest-abcd"})

	device, err := f.uc.SetDeviceBlocked(ctx, adminIdentity(), "device-1", true)
	require.NoError(t, err)
	assert.True(t, device.Blocked)

	//監査ログが残る
	require.Len(t, f.audits.Entries, 1)
	entry := f.audits.Entries[0]
	assert.Equal(t, "admin-1", entry.ActorUserID)
	assert.Equal(t, model.AuditActionBlockDevice, entry.Action)
	assert.Equal(t, model.AuditResourceDevice, entry.ResourceType)
	assert.Equal(t, "device-1", entry.ResourceID)
}

func TestSetDeviceBlocked_Unblock(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	f.devices.Seed(&model.Device{ID: "device-1", Blocked: true})

	device, err := f.uc.SetDeviceBlocked(ctx, adminIdentity(), "device-1", false)
	require.NoError(t, err)
	assert.False(t, device.Blocked)

	require.Len(t, f.audits.Entries, 1)
	assert.Equal(t, model.AuditActionUnblockDevice, f.audits.Entries[0].Action)
}

func TestSetDeviceBlocked_UnknownDevice(t *testing.T) {
	f := newAdminFixture(t)

	_, err := f.uc.SetDeviceBlocked(context.Background(), adminIdentity(), "ghost", true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.audits.Entries)
}

// 監査ログ書き込み失敗は操作自体を失敗させない
func TestSetDeviceBlocked_AuditFailureIsNonFatal(t *testing.T) {
	f := newAdminFixture(t)
	f.devices.Seed(&model.Device{ID: "device-1"})
	f.audits.FailWith = errors.New("audit db down")

	device, err := f.uc.SetDeviceBlocked(context.Background(), adminIdentity(), "device-1", true)
	require.NoError(t, err)
	assert.True(t, device.Blocked)
}

func TestForceLogout(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	hash := "stored-refresh-hash"
	f.users.Seed(&model.User{
		ID:               "user-1",
		Username:         "target",
		Email:            "target@example.com",
		Role:             model.RoleUser,
		Active:           true,
		SessionVersion:   3,
		RefreshTokenHash: &hash,
	})

	out, err := f.uc.ForceLogout(ctx, adminIdentity(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", out.UserID)
	//version bumpで既発行tokenが全部無効になる
	assert.Equal(t, 4, out.SessionVersion)

	stored, err := f.users.FindByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, stored.RefreshTokenHash)

	require.Len(t, f.audits.Entries, 1)
	entry := f.audits.Entries[0]
	assert.Equal(t, model.AuditActionForceLogout, entry.Action)
	assert.Equal(t, model.AuditResourceUser, entry.ResourceType)
	assert.Equal(t, "user-1", entry.ResourceID)
}

func TestForceLogout_UnknownUser(t *testing.T) {
	f := newAdminFixture(t)

	_, err := f.uc.ForceLogout(context.Background(), adminIdentity(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.audits.Entries)
}
