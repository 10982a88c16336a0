package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	apperrors "github.com/jorgepascosoto/mysql-snapshot/internal/errors"
)

const (
	NonceSize = 12 // GCM standard nonce size
	KeySize   = 32 // AES-256

	// Extension is appended to the encrypted output file.
	Extension = ".enc"
)

// AESEncryptor encrypts finished dump files at rest with AES-256-GCM before
// they leave the machine. The nonce is prepended to the ciphertext.
type AESEncryptor struct {
	gcm cipher.AEAD
}

func NewAESEncryptor(key []byte) (*AESEncryptor, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be exactly %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.NewSnapshotError(apperrors.ErrEncryptionFailed, "", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperrors.NewSnapshotError(apperrors.ErrEncryptionFailed, "", err)
	}
	return &AESEncryptor{gcm: gcm}, nil
}

// EncryptFile seals the file at path into path+".enc" and removes the
// plaintext original. GCM authenticates the whole message at once, so the
// file is read fully into memory; dump files at this stage are already
// gzip-compressed.
func (e *AESEncryptor) EncryptFile(path string) (string, error) {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewSnapshotError(apperrors.ErrEncryptionFailed, "", err)
	}

	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", apperrors.NewSnapshotError(apperrors.ErrEncryptionFailed, "",
			fmt.Errorf("failed to generate nonce: %w", err))
	}

	out := path + Extension
	sealed := e.gcm.Seal(nonce, nonce, plaintext, nil)
	if err := os.WriteFile(out, sealed, 0o600); err != nil {
		return "", apperrors.NewSnapshotError(apperrors.ErrEncryptionFailed, "", err)
	}
	if err := os.Remove(path); err != nil {
		return "", apperrors.NewSnapshotError(apperrors.ErrEncryptionFailed, "",
			fmt.Errorf("failed to remove plaintext file: %w", err))
	}
	return out, nil
}

// DecryptFile reverses EncryptFile, writing the plaintext to dst.
func (e *AESEncryptor) DecryptFile(path, dst string) error {
	sealed, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewSnapshotError(apperrors.ErrEncryptionFailed, "", err)
	}
	if len(sealed) < e.gcm.NonceSize() {
		return apperrors.NewSnapshotError(apperrors.ErrEncryptionFailed, "",
			fmt.Errorf("file too short to contain a nonce"))
	}
	nonce, ciphertext := sealed[:e.gcm.NonceSize()], sealed[e.gcm.NonceSize():]
	plaintext, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return apperrors.NewSnapshotError(apperrors.ErrEncryptionFailed, "", err)
	}
	if err := os.WriteFile(dst, plaintext, 0o600); err != nil {
		return apperrors.NewSnapshotError(apperrors.ErrEncryptionFailed, "", err)
	}
	return nil
}
