package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/fyp/core/user"
)

const revokedSessionKeyPrefix = "revoked_session:"

// SessionStore blacklists the sessions of logged-out tokens until they expire.
type SessionStore struct {
	cache Cache
}

var _ user.SessionStore = (*SessionStore)(nil)

func NewSessionStore(cache Cache) *SessionStore {
	return &SessionStore{cache: cache}
}

func (s *SessionStore) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if sessionID == "" {
		return nil
	}
	if ttl <= 0 { // already expired
		return nil
	}
	return errors.Wrap(s.cache.Set(ctx, revokedSessionKeyPrefix+sessionID, []byte("1"), ttl), "revoking session")
}

func (s *SessionStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedSessionKeyPrefix+sessionID)
	if err != nil {
		return false, errors.Wrap(err, "checking session")
	}
	return data != nil, nil
}
