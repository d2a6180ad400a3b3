package transport

import (
	"crypto/sha256"
	"time"

	"github.com/dmitrijs2005/waterlog/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pairingSalt   = "waterlog-pairing-v1"
	pairingKeyLen = 32
	pairingIters  = 4096

	tokenValidity = 2 * time.Minute
)

// PairingKey derives the HMAC signing key from the human pairing phrase the
// user entered on both devices.
func PairingKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), []byte(pairingSalt), pairingIters, pairingKeyLen, sha256.New)
}

// Claims carries the standard claims plus the sender's device name.
type Claims struct {
	jwt.RegisteredClaims
	Device string
}

// GenerateToken builds a short-lived handshake token proving the sender
// knows the pairing key.
func GenerateToken(device string, key []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenValidity)),
		},
		Device: device,
	})

	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken validates a handshake token and returns the peer device name.
func VerifyToken(tokenString string, key []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Device, nil
}
