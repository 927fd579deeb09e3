package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when an operation needs Redis and none is configured.
var ErrUnavailable = errors.New("token store unavailable")

// TokenStore keeps short-lived auth secrets in Redis: revoked JWT ids,
// password reset tokens and email verification codes.
type TokenStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb, now: time.Now}
}

// Available reports whether a Redis client is configured.
func (s *TokenStore) Available() bool {
	return s != nil && s.rdb != nil
}

// RevokeToken blacklists jti until expiresAt. Already-expired tokens are a no-op.
func (s *TokenStore) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	if !s.Available() {
		return ErrUnavailable
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, RevokedTokenKey(jti), "1", ttl).Err()
}

// IsTokenRevoked fails open when Redis is not configured.
func (s *TokenStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" || !s.Available() {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *TokenStore) SaveResetToken(ctx context.Context, token string, userID uint) error {
	if !s.Available() {
		return ErrUnavailable
	}
	return s.rdb.Set(ctx, ResetTokenKey(token), userID, ResetTokenTTL).Err()
}

// ConsumeResetToken returns the owning user id and deletes the token.
// ok is false when the token is unknown or expired.
func (s *TokenStore) ConsumeResetToken(ctx context.Context, token string) (uint, bool, error) {
	if !s.Available() {
		return 0, false, ErrUnavailable
	}
	val, err := s.rdb.GetDel(ctx, ResetTokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt reset token entry: %w", err)
	}
	return uint(id), true, nil
}

func (s *TokenStore) SaveEmailCode(ctx context.Context, userID uint, code string) error {
	if !s.Available() {
		return ErrUnavailable
	}
	return s.rdb.Set(ctx, EmailCodeKey(userID), code, EmailCodeTTL).Err()
}

// VerifyEmailCode compares code with the stored one and deletes it on a match.
func (s *TokenStore) VerifyEmailCode(ctx context.Context, userID uint, code string) (bool, error) {
	if !s.Available() {
		return false, ErrUnavailable
	}
	stored, err := s.rdb.Get(ctx, EmailCodeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored != code {
		return false, nil
	}
	return true, s.rdb.Del(ctx, EmailCodeKey(userID)).Err()
}
