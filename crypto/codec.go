package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
)

// ErrDecryption is returned for every decryption failure: bad base64,
// ciphertext that does not match the key modulus, or padding errors.
// Callers must not surface which of those occurred — collapsing them into
// one opaque error is what keeps padding-oracle signals out of responses.
var ErrDecryption = errors.New("decryption failed")

// EncryptWithPublicKey encrypts plaintext with RSA PKCS#1 v1.5. The padding
// is randomized, so repeated encryptions of the same plaintext yield
// different ciphertexts. In production this runs in the browser; the server
// side exists for the protocol tests and CLI tooling.
func EncryptWithPublicKey(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	return rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
}

// DecryptBase64 decodes a base64 ciphertext and decrypts it with the
// private key. Any failure is reported as ErrDecryption without detail.
func DecryptBase64(priv *rsa.PrivateKey, ciphertextB64 string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, ErrDecryption
	}
	plaintext, err := rsa.DecryptPKCS1v15(nil, priv, ciphertext)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}
