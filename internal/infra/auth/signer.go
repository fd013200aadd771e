package auth

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Signer выпускает токены, которые принимает RSAValidator.
type Signer struct {
	privateKey *rsa.PrivateKey
	ttl        time.Duration
}

func NewSigner(key *rsa.PrivateKey, ttl time.Duration) *Signer {
	return &Signer{privateKey: key, ttl: ttl}
}

// Issue подписывает claims ЗАКРЫТЫМ КЛЮЧОМ (RS256).
func (s *Signer) Issue(userID, sessionID string, scopes map[string]bool) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := &domain.CustomClaims{
		UserID:    userID,
		SessionID: sessionID,
		Scopes:    scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}
