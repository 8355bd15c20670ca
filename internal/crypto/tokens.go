package crypto

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Peer roles carried in token claims.
const (
	// RoleAgent marks a token issued to a page agent.
	RoleAgent = "agent"

	// RolePanel marks a token issued to a panel.
	RolePanel = "panel"
)

// PeerClaims are the claims carried by a peer token.
type PeerClaims struct {
	// Role is RoleAgent or RolePanel.
	Role string `json:"role"`

	// TabID names the tab an agent token is bound to. Empty for panels.
	TabID string `json:"tabId,omitempty"`

	jwt.RegisteredClaims
}

// TokenManager issues and verifies Ed25519-signed peer tokens. The signing
// key is derived from the hub's master secret, so every hub with the same
// secret accepts each other's tokens.
type TokenManager struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewTokenManager derives the signing keypair from the master secret.
func NewTokenManager(masterSecret []byte) (*TokenManager, error) {
	seed, err := DeriveKey(masterSecret, UsageTokenSeed, ed25519.SeedSize)
	if err != nil {
		return nil, err
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &TokenManager{
		privateKey: priv,
		publicKey:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// Issue signs a token for a peer. Agent tokens carry the tab they serve.
func (m *TokenManager) Issue(role, tabID string, ttl time.Duration) (string, error) {
	if role != RoleAgent && role != RolePanel {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if role == RoleAgent && tabID == "" {
		return "", fmt.Errorf("agent token requires a tab id")
	}
	now := time.Now()
	claims := PeerClaims{
		Role:  role,
		TabID: tabID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "webinsight-hub",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(m.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a peer token, returning its claims.
func (m *TokenManager) Verify(tokenString string) (*PeerClaims, error) {
	claims := &PeerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Role != RoleAgent && claims.Role != RolePanel {
		return nil, fmt.Errorf("token carries unknown role %q", claims.Role)
	}
	return claims, nil
}
