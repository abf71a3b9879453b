package chain

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSecretKey() (string, ed25519.PublicKey) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return base58.Encode(priv), priv.Public().(ed25519.PublicKey)
}

func TestNewWallet(t *testing.T) {
	secret, pub := testSecretKey()

	w, err := NewWallet(WalletConf{SecretKey: secret})
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(pub), w.Identity())
}

func TestNewWalletRejectsBadKey(t *testing.T) {
	_, err := NewWallet(WalletConf{})
	assert.Error(t, err)

	_, err = NewWallet(WalletConf{SecretKey: "not-base58-!!"})
	assert.Error(t, err)
}

func TestWalletSignMessage(t *testing.T) {
	secret, pub := testSecretKey()
	w, err := NewWallet(WalletConf{SecretKey: secret})
	require.NoError(t, err)

	msg := []byte("decrypt-challenge")
	sig, err := w.SignMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Len(t, sig, ed25519.SignatureSize)
	assert.True(t, ed25519.Verify(pub, msg, sig))

	// 同一消息签名确定，可安全缓存复用
	sig2, err := w.SignMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, sig, sig2)
}
