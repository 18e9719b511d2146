package verify_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/verify"
)

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestIssueStoresHashOnly(t *testing.T) {
	mr, client := setup(t)
	codes := verify.Codes{R: client, Generate: func() (string, error) { return "123456", nil }}

	issued, err := codes.Issue(context.Background(), "prod-1", "archive")
	require.NoError(t, err)
	require.Equal(t, "123456", issued.Code)

	raw, err := mr.Get("verify:archive:prod-1")
	require.NoError(t, err)
	require.NotContains(t, raw, "123456")
	require.Contains(t, raw, "$argon2id$")
	require.InDelta(t, verify.DefaultTTL.Seconds(), mr.TTL("verify:archive:prod-1").Seconds(), 1)
}

func TestVerifyConsumesCode(t *testing.T) {
	_, client := setup(t)
	codes := verify.Codes{R: client, Generate: func() (string, error) { return "654321", nil }}
	ctx := context.Background()

	_, err := codes.Issue(ctx, "prod-1", "archive")
	require.NoError(t, err)
	require.NoError(t, codes.Verify(ctx, "prod-1", "archive", "654321"))

	err = codes.Verify(ctx, "prod-1", "archive", "654321")
	require.ErrorIs(t, err, common.ErrVerificationExpired)
}

func TestVerifyMismatchBurnsCode(t *testing.T) {
	_, client := setup(t)
	codes := verify.Codes{R: client, Generate: func() (string, error) { return "111111", nil }}
	ctx := context.Background()

	_, err := codes.Issue(ctx, "prod-1", "unarchive")
	require.NoError(t, err)

	err = codes.Verify(ctx, "prod-1", "unarchive", "222222")
	require.ErrorIs(t, err, common.ErrVerificationMismatch)

	err = codes.Verify(ctx, "prod-1", "unarchive", "111111")
	require.ErrorIs(t, err, common.ErrVerificationExpired)
}

func TestVerifyExpired(t *testing.T) {
	_, client := setup(t)
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	codes := verify.Codes{
		R:        client,
		Now:      func() time.Time { return now },
		Generate: func() (string, error) { return "333333", nil },
	}
	ctx := context.Background()

	_, err := codes.Issue(ctx, "prod-1", "archive")
	require.NoError(t, err)

	now = now.Add(verify.DefaultTTL)
	err = codes.Verify(ctx, "prod-1", "archive", "333333")
	require.ErrorIs(t, err, common.ErrVerificationExpired)
}

func TestVerifyScopedByAction(t *testing.T) {
	_, client := setup(t)
	codes := verify.Codes{R: client, Generate: func() (string, error) { return "444444", nil }}
	ctx := context.Background()

	_, err := codes.Issue(ctx, "prod-1", "archive")
	require.NoError(t, err)
	err = codes.Verify(ctx, "prod-1", "unarchive", "444444")
	require.ErrorIs(t, err, common.ErrVerificationExpired)
}

func TestReissueReplacesPreviousCode(t *testing.T) {
	_, client := setup(t)
	next := "100000"
	codes := verify.Codes{R: client, Generate: func() (string, error) { return next, nil }}
	ctx := context.Background()

	_, err := codes.Issue(ctx, "prod-1", "archive")
	require.NoError(t, err)
	next = "200000"
	_, err = codes.Issue(ctx, "prod-1", "archive")
	require.NoError(t, err)

	require.ErrorIs(t, codes.Verify(ctx, "prod-1", "archive", "100000"), common.ErrVerificationMismatch)
}

func TestRandomCodeShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := verify.RandomCode()
		require.NoError(t, err)
		require.Len(t, code, verify.CodeLength)
		require.Regexp(t, `^[0-9]{6}$`, code)
	}
}
