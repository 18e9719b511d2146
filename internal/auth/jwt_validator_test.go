package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func sellerToken(t *testing.T, now time.Time, mutate func(*jwt.Builder) *jwt.Builder) jwt.Token {
	t.Helper()
	b := jwt.NewBuilder().
		Issuer("storefront-engine").
		Audience([]string{"storefront-seller"}).
		Subject("seller-1").
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(time.Minute))
	if mutate != nil {
		b = mutate(b)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	return tok
}

func validator() TokenValidator {
	return TokenValidator{
		Issuer:     "storefront-engine",
		Audience:   "storefront-seller",
		ClockSkew:  time.Second,
		Algorithm:  jwa.HS256,
		KnownRoles: []string{RoleSeller, RoleAdmin, RoleSystem},
	}
}

func TestTokenValidatorValidateSuccess(t *testing.T) {
	now := time.Now()
	tok := sellerToken(t, now, func(b *jwt.Builder) *jwt.Builder { return b.Claim(rolesClaim, []string{RoleSeller}) })
	require.NoError(t, validator().Validate(tok, jwa.HS256, now))
}

func TestTokenValidatorIssuerMismatch(t *testing.T) {
	now := time.Now()
	tok := sellerToken(t, now, func(b *jwt.Builder) *jwt.Builder { return b.Issuer("other") })
	require.Error(t, validator().Validate(tok, jwa.HS256, now))
}

func TestTokenValidatorExpiry(t *testing.T) {
	now := time.Now()
	tok := sellerToken(t, now, nil)
	require.Error(t, validator().Validate(tok, jwa.HS256, now.Add(2*time.Minute)))
}

func TestTokenValidatorNotBefore(t *testing.T) {
	now := time.Now()
	tok := sellerToken(t, now, func(b *jwt.Builder) *jwt.Builder { return b.NotBefore(now.Add(time.Minute)) })
	require.Error(t, validator().Validate(tok, jwa.HS256, now))
}

func TestTokenValidatorAlgorithmMismatch(t *testing.T) {
	now := time.Now()
	require.Error(t, validator().Validate(sellerToken(t, now, nil), jwa.RS256, now))
}

func TestTokenValidatorRequiresSubject(t *testing.T) {
	now := time.Now()
	tok := sellerToken(t, now, func(b *jwt.Builder) *jwt.Builder { return b.Subject("") })
	require.Error(t, validator().Validate(tok, jwa.HS256, now))
}

func TestTokenValidatorRejectsUnknownRole(t *testing.T) {
	now := time.Now()
	tok := sellerToken(t, now, func(b *jwt.Builder) *jwt.Builder { return b.Claim(rolesClaim, []string{"buyer"}) })
	require.Error(t, validator().Validate(tok, jwa.HS256, now))
}
