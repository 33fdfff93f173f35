package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/misgastos/expenses-api/internal/domain/auth/errors"
	domain "github.com/misgastos/expenses-api/internal/domain/auth/token"
	"github.com/misgastos/expenses-api/internal/infra/config"
)

// HMACCodec signs claims with a shared secret. The algorithm is pinned at
// construction time and enforced again when decoding.
type HMACCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   string
}

func NewHMACCodec(cfg *config.Config) (*HMACCodec, error) {
	var method jwt.SigningMethod
	switch cfg.JWTAlgorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.JWTAlgorithm)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("signing secret is empty")
	}

	return &HMACCodec{
		secret:     []byte(cfg.JWTSecret),
		method:     method,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
	}, nil
}

func (c *HMACCodec) IssueAccess(userID int64, email string) (string, time.Time, error) {
	return c.issue(userID, email, domain.KindAccess, c.accessTTL)
}

func (c *HMACCodec) IssueRefresh(userID int64, email string) (string, time.Time, error) {
	return c.issue(userID, email, domain.KindRefresh, c.refreshTTL)
}

func (c *HMACCodec) issue(userID int64, email string, kind domain.Kind, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()

	claims := domain.Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (c *HMACCodec) Decode(raw string) (domain.Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &domain.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithIssuedAt())

	if err != nil || !parsed.Valid {
		return domain.Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*domain.Claims)
	if !ok {
		return domain.Claims{}, customErrors.ErrInvalidToken
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return domain.Claims{}, customErrors.ErrInvalidToken
	}

	if c.audience != "" {
		okAudi := false
		for _, a := range claims.Audience {
			if a == c.audience {
				okAudi = true
				break
			}
		}
		if !okAudi {
			return domain.Claims{}, customErrors.ErrInvalidToken
		}
	}

	return *claims, nil
}
