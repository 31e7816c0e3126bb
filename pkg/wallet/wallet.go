package wallet

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"math/big"
	"os"

	"golang.org/x/crypto/ripemd160"

	"example.com/anctoken/pkg/util"
)

const (
	addressVersion = byte(0x00) // Address version (0x00 for mainnet)
	checksumLength = 4
	addressLength  = 1 + ripemd160.Size + checksumLength // version + pubkey hash + checksum
)

// Wallet stores a key pair in a form that survives gob encoding: the
// raw private scalar and the X||Y public point.
type Wallet struct {
	D         []byte
	PublicKey []byte
}

// NewWallet creates and returns a new wallet
func NewWallet() (*Wallet, error) {
	private, pubKey, err := util.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return &Wallet{D: private.D.Bytes(), PublicKey: pubKey}, nil
}

// PrivateKey reconstructs the ECDSA private key from the stored scalar.
func (w *Wallet) PrivateKey() (*ecdsa.PrivateKey, error) {
	if len(w.D) == 0 || len(w.PublicKey) != 64 {
		return nil, errors.New("wallet holds no key material")
	}
	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(w.PublicKey[:32]),
			Y:     new(big.Int).SetBytes(w.PublicKey[32:]),
		},
		D: new(big.Int).SetBytes(w.D),
	}, nil
}

// PublicKeyHex returns the public key in hexadecimal format
func (w *Wallet) PublicKeyHex() string {
	return util.PublicKeyHex(w.PublicKey)
}

// GetAddress generates and returns the wallet address
func (w *Wallet) GetAddress() string {
	pubKeyHash := hashPublicKey(w.PublicKey)
	payload := append([]byte{addressVersion}, pubKeyHash...)
	checksum := calculateChecksum(payload)
	fullPayload := append(payload, checksum...)
	return hex.EncodeToString(fullPayload)
}

// ValidateAddress verifies if an address is well formed
func ValidateAddress(address string) (bool, error) {
	addressBytes, err := hex.DecodeString(address)
	if err != nil {
		return false, err
	}
	if len(addressBytes) != addressLength {
		return false, errors.New("invalid address length")
	}

	payload := addressBytes[:len(addressBytes)-checksumLength]
	checksum := addressBytes[len(addressBytes)-checksumLength:]
	expectedChecksum := calculateChecksum(payload)

	return bytes.Equal(checksum, expectedChecksum), nil
}

// Backup saves the wallet to a file
func (w *Wallet) Backup(filename string) error {
	data, err := w.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return errors.New("failed to backup wallet")
	}
	return nil
}

// Restore loads a wallet from a file
func Restore(filename string) (*Wallet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.New("failed to restore wallet")
	}

	wallet, err := Deserialize(data)
	if err != nil {
		return nil, errors.New("failed to deserialize wallet")
	}
	return wallet, nil
}

// SignMessage signs a message using the wallet's private key
func (w *Wallet) SignMessage(message []byte) ([]byte, error) {
	private, err := w.PrivateKey()
	if err != nil {
		return nil, err
	}
	return util.SignData(message, private)
}

// VerifySignature verifies the signature of a given message
func VerifySignature(message, signature, publicKey []byte) (bool, error) {
	return util.VerifySignature(message, signature, publicKey)
}

// Serialize converts a wallet to bytes for storage
func (w *Wallet) Serialize() ([]byte, error) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(w); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Deserialize converts bytes into a wallet
func Deserialize(data []byte) (*Wallet, error) {
	var wallet Wallet
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// hashPublicKey performs SHA256 followed by RIPEMD160 on the public key
func hashPublicKey(pubKey []byte) []byte {
	pubHash := sha256.Sum256(pubKey)
	ripeHasher := ripemd160.New()
	ripeHasher.Write(pubHash[:])
	return ripeHasher.Sum(nil)
}

// calculateChecksum computes the first 4 bytes of the double SHA256 hash
func calculateChecksum(payload []byte) []byte {
	firstHash := sha256.Sum256(payload)
	secondHash := sha256.Sum256(firstHash[:])
	return secondHash[:checksumLength]
}
