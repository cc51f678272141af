package auth

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures a verifier for signed bearer tokens. Exactly one of
// JWKSURL and PublicKeyFile must be set.
type JWTConfig struct {
	JWKSURL       string
	PublicKeyFile string

	Issuer     string
	Audience   []string
	Algorithms []string
	Leeway     time.Duration
}

// JWTVerifier checks JWT bearer credentials. Its Verify method is a
// bearer.AuthFunc.
type JWTVerifier struct {
	cfg     JWTConfig
	keyfunc jwt.Keyfunc
	cancel  context.CancelFunc
}

// NewJWTVerifier loads the verification keys. A JWKS endpoint is fetched once
// here and refreshed in the background until Close.
func NewJWTVerifier(ctx context.Context, cfg JWTConfig) (*JWTVerifier, error) {
	if (cfg.JWKSURL == "") == (cfg.PublicKeyFile == "") {
		return nil, errors.New("auth: jwt needs exactly one of jwks_url or public_key_file")
	}
	if len(cfg.Algorithms) == 0 {
		cfg.Algorithms = []string{"RS256"}
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = 60 * time.Second
	}

	v := &JWTVerifier{cfg: cfg, cancel: func() {}}

	if cfg.PublicKeyFile != "" {
		pub, err := loadPublicKey(cfg.PublicKeyFile)
		if err != nil {
			return nil, err
		}
		v.keyfunc = func(*jwt.Token) (any, error) { return pub, nil }
		return v, nil
	}

	kctx, cancel := context.WithCancel(ctx)
	kf, err := keyfunc.NewDefaultCtx(kctx, []string{cfg.JWKSURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("auth: jwks init failed: %w", err)
	}
	v.keyfunc = kf.Keyfunc
	v.cancel = cancel
	return v, nil
}

// Verify reports whether token is a valid JWT for this verifier. Tokens that
// fail parsing, signature or claim checks are rejected without an error so
// they are answered with 401.
func (v *JWTVerifier) Verify(_ context.Context, token string, _ *http.Request) (bool, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.cfg.Algorithms),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.Leeway),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	var claims jwt.RegisteredClaims
	tok, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, v.keyfunc)
	if err != nil || !tok.Valid {
		return false, nil
	}

	if len(v.cfg.Audience) > 0 && !audienceMatches(claims.Audience, v.cfg.Audience) {
		return false, nil
	}
	return true, nil
}

// Close stops background JWKS refresh.
func (v *JWTVerifier) Close() { v.cancel() }

func audienceMatches(got jwt.ClaimStrings, want []string) bool {
	for _, a := range got {
		for _, w := range want {
			if a == w {
				return true
			}
		}
	}
	return false
}

func loadPublicKey(path string) (any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("auth: public key: %w", err)
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("auth: public key %s: no PEM block", path)
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("auth: public key %s: %w", path, err)
	}
	return pub, nil
}
