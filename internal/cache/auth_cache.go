package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ResetCode is the payload stored for a pending password reset.
type ResetCode struct {
	UserID   int       `json:"userId"`
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issuedAt"`
}

// AuthCache stores password reset state and revoked sessions.
type AuthCache struct {
	redis *RedisClient
}

// NewAuthCache creates a new AuthCache.
func NewAuthCache(redis *RedisClient) *AuthCache {
	return &AuthCache{redis: redis}
}

func (c *AuthCache) keyResetCooldown(email string) string {
	return fmt.Sprintf("auth:reset:cooldown:%s", strings.ToLower(strings.TrimSpace(email)))
}

func (c *AuthCache) keyResetCode(code string) string {
	return fmt.Sprintf("auth:reset:code:%s", code)
}

func (c *AuthCache) keyRevoked(jti string) string {
	return fmt.Sprintf("auth:session:revoked:%s", jti)
}

// AcquireResetCooldown starts the reset cooldown for email. When a cooldown
// is already running it returns false and the time left.
func (c *AuthCache) AcquireResetCooldown(ctx context.Context, email string, cooldown time.Duration) (bool, time.Duration, error) {
	key := c.keyResetCooldown(email)
	ok, err := c.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), cooldown)
	if err != nil {
		return false, 0, fmt.Errorf("failed to set reset cooldown: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	remaining, err := c.redis.TTL(ctx, key)
	if err != nil {
		return false, 0, fmt.Errorf("failed to read reset cooldown: %w", err)
	}
	return false, remaining, nil
}

// ReleaseResetCooldown clears the cooldown, used when sending the mail failed.
func (c *AuthCache) ReleaseResetCooldown(ctx context.Context, email string) error {
	return c.redis.Delete(ctx, c.keyResetCooldown(email))
}

// PutResetCode stores a single-use reset code.
func (c *AuthCache) PutResetCode(ctx context.Context, code string, data *ResetCode, ttl time.Duration) error {
	data.IssuedAt = time.Now()
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal reset code: %w", err)
	}
	return c.redis.Set(ctx, c.keyResetCode(code), string(jsonData), ttl)
}

// TakeResetCode returns and consumes a reset code. A missing or already used
// code yields ErrMiss.
func (c *AuthCache) TakeResetCode(ctx context.Context, code string) (*ResetCode, error) {
	jsonData, err := c.redis.GetDel(ctx, c.keyResetCode(code))
	if err != nil {
		return nil, err
	}

	var data ResetCode
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reset code: %w", err)
	}
	return &data, nil
}

// RevokeSession marks a session id as signed out until it would have expired.
func (c *AuthCache) RevokeSession(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return c.redis.Set(ctx, c.keyRevoked(jti), "1", ttl)
}

// IsRevoked reports whether the session id was signed out.
func (c *AuthCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return c.redis.Exists(ctx, c.keyRevoked(jti))
}
