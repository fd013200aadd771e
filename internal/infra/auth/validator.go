package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer: издатель токенов консоли.
const Issuer = "awip-mission-control"

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrAuthMisconfigured = errors.New("auth is misconfigured")
)

// RSAValidator принимает только токены консоли: RS256, издатель Issuer,
// обязательные exp и session_id.
type RSAValidator struct {
	publicKey *rsa.PublicKey
	parser    *jwt.Parser
}

func NewRSAValidator(pub *rsa.PublicKey) *RSAValidator {
	return &RSAValidator{
		publicKey: pub,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// VerifyToken принимает значение заголовка Authorization ("Bearer <jwt>") или голый jwt.
func (v *RSAValidator) VerifyToken(header string) (*domain.CustomClaims, error) {
	raw := bearerToken(header)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &domain.CustomClaims{}
	if _, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.publicKey, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("%w: no session id", ErrInvalidToken)
	}
	return claims, nil
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		header = rest
	}
	return strings.TrimSpace(header)
}

// Locked отклоняет любой токен. Ставится вместо RSAValidator, когда auth
// настроен, но ключи не годятся: защищенные роуты отвечают 401.
func Locked(reason error) TokenValidator {
	return lockedValidator{reason: reason}
}

type lockedValidator struct {
	reason error
}

func (l lockedValidator) VerifyToken(string) (*domain.CustomClaims, error) {
	return nil, fmt.Errorf("%w: %w", ErrAuthMisconfigured, l.reason)
}

// ParseKeyPair разбирает PEM-ключи и проверяет, что они из одной пары.
func ParseKeyPair(publicPEM, privatePEM []byte) (*rsa.PublicKey, *rsa.PrivateKey, error) {
	if len(publicPEM) == 0 || len(privatePEM) == 0 {
		return nil, nil, errors.New("key data is empty")
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("public key: %w", err)
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, nil, fmt.Errorf("private key: %w", err)
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, nil, errors.New("public key does not match private key")
	}
	return pub, priv, nil
}
