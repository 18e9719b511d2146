package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenValidator checks the claims a seller or system token must carry:
// issuer, audience, time bounds, a subject, and only roles this service knows.
type TokenValidator struct {
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
	Algorithm  jwa.SignatureAlgorithm
	KnownRoles []string
}

func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	if tok == nil {
		return errors.New("auth: token is nil")
	}
	if algorithm == "" {
		return errors.New("auth: token missing algorithm")
	}
	if v.Algorithm != "" && algorithm != v.Algorithm {
		return fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}

	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}
	if len(v.KnownRoles) > 0 {
		options = append(options, jwt.WithValidator(jwt.ValidatorFunc(v.checkRoles)))
	}
	if err := jwt.Validate(tok, options...); err != nil {
		return err
	}
	if tok.Subject() == "" {
		return errors.New("auth: token missing subject")
	}
	return nil
}

func (v TokenValidator) checkRoles(_ context.Context, tok jwt.Token) jwt.ValidationError {
	for _, role := range rolesOf(tok) {
		if !slices.Contains(v.KnownRoles, role) {
			return jwt.NewValidationError(fmt.Errorf("auth: unknown role %q", role))
		}
	}
	return nil
}
