package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	domain "userauth/backend/internal/domain/auth"
	usecase "userauth/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSubject means the token verified but names no usable subject.
var ErrInvalidSubject = errors.New("token subject missing or not numeric")

// JWTManager issues and validates HS256 tokens for one token category.
// Access and refresh tokens each get their own manager.
type JWTManager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	nowFunc    func() time.Time
}

// NewJWTManager constructs a manager with the provided secret and expiration.
func NewJWTManager(secret string, expiration time.Duration, issuer string) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     issuer,
		nowFunc:    time.Now,
	}
}

// Ensure JWTManager implements the TokenManager interface.
var _ usecase.TokenManager = (*JWTManager)(nil)

// Claims represents token claims.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Generate creates a signed JWT carrying the subject id and username.
func (m *JWTManager) Generate(c domain.Claims) (string, error) {
	now := m.nowFunc().UTC()
	claims := Claims{
		Username: c.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(c.Subject, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and verifies the token, returning its payload when valid.
func (m *JWTManager) Validate(tokenString string) (domain.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return domain.Claims{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Claims{}, jwt.ErrTokenInvalidClaims
	}

	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subject <= 0 {
		return domain.Claims{}, ErrInvalidSubject
	}
	return domain.Claims{Subject: subject, Username: claims.Username}, nil
}
