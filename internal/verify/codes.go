package verify

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/storefront-engine/internal/cache"
	"github.com/noah-isme/storefront-engine/internal/common"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 5 * time.Minute

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

// Params keeps hashing cheap enough for a six-digit, five-minute code.
var Params = &argon2id.Params{
	Memory:      16 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Issued is returned to the caller once; only the hash is stored.
type Issued struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type record struct {
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Codes issues and checks one-shot verification codes in Redis.
type Codes struct {
	R        *redis.Client
	TTL      time.Duration
	Now      func() time.Time
	Generate func() (string, error)
}

func (c Codes) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

func (c Codes) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultTTL
}

// Issue creates a fresh code for subject and action, replacing any earlier one.
func (c Codes) Issue(ctx context.Context, subject, action string) (Issued, error) {
	if c.R == nil {
		return Issued{}, errors.New("verify: redis client not configured")
	}
	gen := c.Generate
	if gen == nil {
		gen = RandomCode
	}
	code, err := gen()
	if err != nil {
		return Issued{}, fmt.Errorf("verify: generate code: %w", err)
	}
	hash, err := argon2id.CreateHash(code, Params)
	if err != nil {
		return Issued{}, fmt.Errorf("verify: hash code: %w", err)
	}
	expires := c.now().Add(c.ttl())
	data, err := json.Marshal(record{Hash: hash, ExpiresAt: expires})
	if err != nil {
		return Issued{}, err
	}
	if err := c.R.Set(ctx, cache.KeyVerification(action, subject), data, c.ttl()).Err(); err != nil {
		return Issued{}, fmt.Errorf("verify: store code: %w", err)
	}
	return Issued{Code: code, ExpiresAt: expires}, nil
}

// Verify checks code against the stored hash. The stored code is removed on
// success and on mismatch, so every failure requires a fresh Issue.
func (c Codes) Verify(ctx context.Context, subject, action, code string) error {
	if c.R == nil {
		return errors.New("verify: redis client not configured")
	}
	key := cache.KeyVerification(action, subject)
	data, err := c.R.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return common.VerificationExpiredError()
		}
		return fmt.Errorf("verify: load code: %w", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		_ = c.R.Del(ctx, key).Err()
		return common.VerificationExpiredError()
	}
	if !c.now().Before(rec.ExpiresAt) {
		_ = c.R.Del(ctx, key).Err()
		return common.VerificationExpiredError()
	}
	code = strings.TrimSpace(code)
	match, err := argon2id.ComparePasswordAndHash(code, rec.Hash)
	if err != nil {
		return fmt.Errorf("verify: compare code: %w", err)
	}
	// Del decides the race between two concurrent correct submissions.
	deleted, err := c.R.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("verify: consume code: %w", err)
	}
	if !match {
		return common.VerificationMismatchError()
	}
	if deleted == 0 {
		return common.VerificationExpiredError()
	}
	return nil
}

// RandomCode returns a uniformly random zero-padded six-digit code.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
