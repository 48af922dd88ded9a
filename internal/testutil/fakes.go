// Package testutil はテスト用のインメモリrepository実装。
// DBなしでusecase・middleware・handlerの流れを検証するために使う。
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"everest/internal/domain/model"
	"everest/internal/repository"
)

// UserRepositoryのインメモリ実装。
type FakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	//テストから差し込むエラー（nilなら正常動作）
	FailWith error
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{users: make(map[string]*model.User)}
}

func (f *FakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.FailWith != nil {
		return f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrUserNotFound //unique違反の代用
		}
	}

	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *FakeUserRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *FakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *FakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if f.FailWith != nil {
		return f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *FakeUserRepo) SetRefreshTokenHash(ctx context.Context, userID string, hash string) error {
	if f.FailWith != nil {
		return f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.RefreshTokenHash = &hash
	return nil
}

// 本物のSQL UPDATEと同じく、期待値が一致した時だけ更新する。
func (f *FakeUserRepo) RotateRefreshToken(ctx context.Context, userID string, expectedHash string, expectedVersion int, newHash string) error {
	if f.FailWith != nil {
		return f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return repository.ErrStaleSession
	}
	if u.RefreshTokenHash == nil || *u.RefreshTokenHash != expectedHash || u.SessionVersion != expectedVersion {
		return repository.ErrStaleSession
	}

	u.RefreshTokenHash = &newHash
	u.SessionVersion++
	return nil
}

func (f *FakeUserRepo) ClearSession(ctx context.Context, userID string) error {
	if f.FailWith != nil {
		return f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.RefreshTokenHash = nil
	u.SessionVersion++
	return nil
}

// テスト準備用：ユーザーを直接投入する。
func (f *FakeUserRepo) Seed(user *model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
}

var _ repository.UserRepository = (*FakeUserRepo)(nil)

// DeviceRepositoryのインメモリ実装。
type FakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]*model.Device

	FailWith error
}

func NewFakeDeviceRepo() *FakeDeviceRepo {
	return &FakeDeviceRepo{devices: make(map[string]*model.Device)}
}

func (f *FakeDeviceRepo) FindByID(ctx context.Context, deviceID string) (*model.Device, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[deviceID]
	if !ok {
		return nil, repository.ErrDeviceNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *FakeDeviceRepo) Upsert(ctx context.Context, deviceID string, class model.DeviceClass, defaultName string) (*model.Device, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	d, ok := f.devices[deviceID]
	if !ok {
		d = &model.Device{
			ID:         deviceID,
			Name:       defaultName,
			Class:      class,
			LastActive: now,
			CreatedAt:  now,
		}
		f.devices[deviceID] = d
	} else {
		d.LastActive = now
		d.Class = class
	}

	cp := *d
	return &cp, nil
}

func (f *FakeDeviceRepo) SetBlocked(ctx context.Context, deviceID string, blocked bool) error {
	if f.FailWith != nil {
		return f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[deviceID]
	if !ok {
		return repository.ErrDeviceNotFound
	}
	d.Blocked = blocked
	return nil
}

func (f *FakeDeviceRepo) List(ctx context.Context, page int, limit int) ([]model.Device, int64, error) {
	if f.FailWith != nil {
		return nil, 0, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	all := make([]model.Device, 0, len(f.devices))
	for _, d := range f.devices {
		all = append(all, *d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].LastActive.After(all[j].LastActive) })

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// テスト準備用：端末を直接投入する。
func (f *FakeDeviceRepo) Seed(d *model.Device) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.devices[d.ID] = &cp
}

var _ repository.DeviceRepository = (*FakeDeviceRepo)(nil)

// ChatMessageRepositoryのインメモリ実装。
type FakeChatRepo struct {
	mu       sync.Mutex
	messages []model.ChatMessage
	nextID   int64

	FailWith error
}

func NewFakeChatRepo() *FakeChatRepo {
	return &FakeChatRepo{nextID: 1}
}

func (f *FakeChatRepo) Create(ctx context.Context, msg *model.ChatMessage) error {
	if f.FailWith != nil {
		return f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	msg.ID = f.nextID
	f.nextID++
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *FakeChatRepo) FindByDeviceID(ctx context.Context, deviceID string, page int, limit int) ([]model.ChatMessage, int64, error) {
	if f.FailWith != nil {
		return nil, 0, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var thread []model.ChatMessage
	for _, m := range f.messages {
		if m.DeviceID == deviceID {
			thread = append(thread, m)
		}
	}
	sort.Slice(thread, func(i, j int) bool { return thread[i].CreatedAt.After(thread[j].CreatedAt) })

	total := int64(len(thread))
	start := (page - 1) * limit
	if start >= len(thread) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(thread) {
		end = len(thread)
	}
	return thread[start:end], total, nil
}

func (f *FakeChatRepo) CountUnreadFromStaff(ctx context.Context, deviceID string) (int64, error) {
	return f.countUnread(deviceID, false)
}

func (f *FakeChatRepo) CountUnreadFromGuest(ctx context.Context, deviceID string) (int64, error) {
	return f.countUnread(deviceID, true)
}

func (f *FakeChatRepo) countUnread(deviceID string, fromGuest bool) (int64, error) {
	if f.FailWith != nil {
		return 0, f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, m := range f.messages {
		if m.DeviceID != deviceID || m.Read {
			continue
		}
		if fromGuest == (m.SenderType == model.ParticipantGuest) {
			n++
		}
	}
	return n, nil
}

func (f *FakeChatRepo) MarkRead(ctx context.Context, deviceID string, fromGuest bool) error {
	if f.FailWith != nil {
		return f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.messages {
		m := &f.messages[i]
		if m.DeviceID != deviceID || m.Read {
			continue
		}
		if fromGuest == (m.SenderType == model.ParticipantGuest) {
			m.Read = true
		}
	}
	return nil
}

var _ repository.ChatMessageRepository = (*FakeChatRepo)(nil)

// AuditLogRepositoryのインメモリ実装。
type FakeAuditRepo struct {
	mu      sync.Mutex
	Entries []model.AuditLog

	FailWith error
}

func NewFakeAuditRepo() *FakeAuditRepo {
	return &FakeAuditRepo{}
}

func (f *FakeAuditRepo) Create(ctx context.Context, log *model.AuditLog) error {
	if f.FailWith != nil {
		return f.FailWith
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	log.ID = int64(len(f.Entries) + 1)
	f.Entries = append(f.Entries, *log)
	return nil
}

var _ repository.AuditLogRepository = (*FakeAuditRepo)(nil)
