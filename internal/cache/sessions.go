package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stagedoor/internal/models"

	"github.com/redis/go-redis/v9"
)

// Client caches resolved principals and holds the revoked-session set.
// Revocation is what makes forced sign-out effective before a token
// expires.
type Client struct {
	client       *redis.Client
	principalTTL time.Duration
}

type Config struct {
	Addr         string
	Password     string
	PrincipalTTL time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.PrincipalTTL
	if ttl == 0 {
		ttl = time.Minute
	}

	return &Client{client: rdb, principalTTL: ttl}, nil
}

func principalKey(uid string) string { return "principal:" + uid }
func revokedKey(jti string) string   { return "revoked:" + jti }

// GetPrincipal returns the cached principal for uid, or an error on
// miss. Callers fall through to the database on any error.
func (c *Client) GetPrincipal(ctx context.Context, uid string) (*models.Principal, error) {
	raw, err := c.client.Get(ctx, principalKey(uid)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("principal not cached")
		}
		return nil, err
	}

	var p models.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode cached principal: %w", err)
	}
	return &p, nil
}

// SetPrincipal caches a resolved principal with a short TTL.
func (c *Client) SetPrincipal(ctx context.Context, p *models.Principal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, principalKey(p.UID), raw, c.principalTTL).Err()
}

// InvalidatePrincipal drops the cached principal so role changes take
// effect on the next request.
func (c *Client) InvalidatePrincipal(ctx context.Context, uid string) error {
	return c.client.Del(ctx, principalKey(uid)).Err()
}

// RevokeSession marks a token id revoked until its natural expiry.
func (c *Client) RevokeSession(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return c.client.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

// SessionRevoked reports whether the token id has been revoked. Lookup
// errors are reported as revoked=false together with the error; the
// middleware decides how to degrade.
func (c *Client) SessionRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := c.client.Get(ctx, revokedKey(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
