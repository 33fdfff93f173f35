package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes the two credentials the service issues.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the signed payload. Subject carries the user's email, UserID the
// primary key. Decode returns whatever kind is embedded; asserting the kind
// against the use site is the caller's job.
type Claims struct {
	UserID int64 `json:"user_id"`
	Kind   Kind  `json:"type"`
	jwt.RegisteredClaims
}

type Codec interface {
	IssueAccess(userID int64, email string) (token string, expiresAt time.Time, err error)
	IssueRefresh(userID int64, email string) (token string, expiresAt time.Time, err error)

	// Decode verifies the signature and expiry. It fails with
	// errors.ErrInvalidToken for any malformed, forged or expired input.
	Decode(raw string) (Claims, error)
}
