package util

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
)

const coordinateSize = 32 // P-256 field element, bytes

// GenerateKeyPair genera un par de claves ECDSA sobre P-256
func GenerateKeyPair() (*ecdsa.PrivateKey, []byte, error) {
	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return private, PublicKeyBytes(&private.PublicKey), nil
}

// PublicKeyBytes encodes a public key as the fixed-width X||Y point.
func PublicKeyBytes(pub *ecdsa.PublicKey) []byte {
	out := make([]byte, 2*coordinateSize)
	pub.X.FillBytes(out[:coordinateSize])
	pub.Y.FillBytes(out[coordinateSize:])
	return out
}

// PublicKeyHex convierte una clave pública a formato hexadecimal
func PublicKeyHex(pubKey []byte) string {
	return hex.EncodeToString(pubKey)
}

// SignData signs the SHA256 digest of message with the private key and
// returns the fixed-width r||s signature.
func SignData(message []byte, private *ecdsa.PrivateKey) ([]byte, error) {
	digest := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, private, digest[:])
	if err != nil {
		return nil, err
	}

	sig := make([]byte, 2*coordinateSize)
	r.FillBytes(sig[:coordinateSize])
	s.FillBytes(sig[coordinateSize:])
	return sig, nil
}

// VerifySignature checks an r||s signature over message against an
// X||Y encoded public key.
func VerifySignature(message, signature, pubKey []byte) (bool, error) {
	if len(signature) != 2*coordinateSize {
		return false, errors.New("invalid signature length")
	}
	if len(pubKey) != 2*coordinateSize {
		return false, errors.New("invalid public key length")
	}

	public := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(pubKey[:coordinateSize]),
		Y:     new(big.Int).SetBytes(pubKey[coordinateSize:]),
	}

	r := new(big.Int).SetBytes(signature[:coordinateSize])
	s := new(big.Int).SetBytes(signature[coordinateSize:])

	digest := sha256.Sum256(message)
	return ecdsa.Verify(public, digest[:], r, s), nil
}
