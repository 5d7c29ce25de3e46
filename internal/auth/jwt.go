package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"schoolattend/internal/model"
)

// Session is the identity a request acts under.
type Session struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Class   string `json:"class,omitempty"`
}

// Staff reports whether the session belongs to a teacher or an admin.
func (s Session) Staff() bool {
	return s.Role == model.RoleTeacher || s.Role == model.RoleAdmin
}

// SessionFor builds the session of a directory user.
func SessionFor(u model.User) Session {
	return Session{Subject: u.ID, Name: u.Name, Role: u.Role, Class: u.Class}
}

// Token is a signed access token.
type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Claims represents JWT payload.
type Claims struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Class string `json:"class,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs an access token for a session.
func Issue(s Session, issuer, key string, ttl time.Duration) (Token, error) {
	if key == "" {
		return Token{}, errors.New("signing key not configured")
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		Name:  s.Name,
		Role:  s.Role,
		Class: s.Class,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.Subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresAt: exp}, nil
}

// Parse validates a token and returns its session.
func Parse(tokenStr, key, issuer string) (Session, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Session{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Session{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Session{}, errors.New("issuer mismatch")
	}
	return Session{Subject: claims.Subject, Name: claims.Name, Role: claims.Role, Class: claims.Class}, nil
}
