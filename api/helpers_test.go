package api

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/tunnelhub/tunnelhub/crypto"
)

var (
	testKeyOnce sync.Once
	testKey     *crypto.KeyPair
	testKeyErr  error
)

// testKeyPair returns a process-wide 2048-bit pair so each test does not
// pay for key generation.
func testKeyPair(t *testing.T) *crypto.KeyPair {
	t.Helper()
	testKeyOnce.Do(func() {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			testKeyErr = err
			return
		}
		pubPEM, err := crypto.MarshalPublicKeyPEM(&priv.PublicKey)
		if err != nil {
			testKeyErr = err
			return
		}
		testKey = &crypto.KeyPair{
			Private:   priv,
			PublicPEM: pubPEM,
			BitSize:   2048,
			Source:    crypto.SourceVolatile,
		}
	})
	if testKeyErr != nil {
		t.Fatalf("generating test key pair: %v", testKeyErr)
	}
	return testKey
}
