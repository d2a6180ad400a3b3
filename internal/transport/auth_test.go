package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairingKey_Deterministic(t *testing.T) {
	a := PairingKey("correct horse")
	b := PairingKey("correct horse")
	c := PairingKey("battery staple")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestGenerateVerifyToken(t *testing.T) {
	key := PairingKey("shared phrase")

	token, err := GenerateToken("watch", key)
	require.NoError(t, err)

	device, err := VerifyToken(token, key)
	require.NoError(t, err)
	assert.Equal(t, "watch", device)
}

func TestVerifyToken_WrongKey(t *testing.T) {
	token, err := GenerateToken("watch", PairingKey("phrase one"))
	require.NoError(t, err)

	_, err = VerifyToken(token, PairingKey("phrase two"))
	assert.Error(t, err)
}

func TestVerifyToken_Garbage(t *testing.T) {
	_, err := VerifyToken("not-a-token", PairingKey("phrase"))
	assert.Error(t, err)
}
