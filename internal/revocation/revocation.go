package revocation

import (
	"context"
	"sync"
	"time"
)

// 明示的に失効させたtoken hashの置き場。
// 正本はDBのsession_version/refresh hash照合で、こちらは早期rejectの近道。
type Store interface {
	// hashをttlの間失効扱いにする
	Add(ctx context.Context, tokenHash string, ttl time.Duration) error
	// hashが失効済みか
	Contains(ctx context.Context, tokenHash string) (bool, error)
}

// プロセス内のTTL付きset。単一インスタンス向け。
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]time.Time)}
}

func (s *memoryStore) Add(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[tokenHash] = time.Now().Add(ttl)

	//ついでに期限切れを掃除（別goroutineは持たない）
	now := time.Now()
	for h, exp := range s.entries {
		if exp.Before(now) {
			delete(s.entries, h)
		}
	}

	return nil
}

func (s *memoryStore) Contains(ctx context.Context, tokenHash string) (bool, error) {
	s.mu.RLock()
	exp, ok := s.entries[tokenHash]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	return exp.After(time.Now()), nil
}
