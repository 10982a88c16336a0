package encrypt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNewAESEncryptor_RejectsBadKeyLength(t *testing.T) {
	t.Parallel()

	_, err := NewAESEncryptor([]byte("too short"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestEncryptFile_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "dump.sql")
	original := []byte("INSERT INTO `users` (`id`) VALUES (1);\n")
	require.NoError(t, os.WriteFile(path, original, 0o644))

	e, err := NewAESEncryptor(testKey())
	require.NoError(t, err)

	encPath, err := e.EncryptFile(path)
	require.NoError(t, err)
	assert.Equal(t, path+Extension, encPath)

	// The plaintext original is gone.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Ciphertext does not contain the plaintext.
	sealed, err := os.ReadFile(encPath)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "INSERT INTO")

	restored := filepath.Join(dir, "restored.sql")
	require.NoError(t, e.DecryptFile(encPath, restored))

	data, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestEncryptFile_MissingSource(t *testing.T) {
	t.Parallel()

	e, err := NewAESEncryptor(testKey())
	require.NoError(t, err)

	_, err = e.EncryptFile(filepath.Join(t.TempDir(), "nope.sql"))
	require.Error(t, err)
}

func TestDecryptFile_WrongKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "dump.sql")
	require.NoError(t, os.WriteFile(path, []byte("secret data"), 0o644))

	e, err := NewAESEncryptor(testKey())
	require.NoError(t, err)
	encPath, err := e.EncryptFile(path)
	require.NoError(t, err)

	otherKey := testKey()
	otherKey[0] ^= 0xFF
	other, err := NewAESEncryptor(otherKey)
	require.NoError(t, err)

	err = other.DecryptFile(encPath, filepath.Join(dir, "out.sql"))
	require.Error(t, err)
}

func TestDecryptFile_TruncatedInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "short.enc")
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x02}, 0o644))

	e, err := NewAESEncryptor(testKey())
	require.NoError(t, err)

	err = e.DecryptFile(path, filepath.Join(dir, "out.sql"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestEncryptFile_NoncesDiffer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e, err := NewAESEncryptor(testKey())
	require.NoError(t, err)

	var sealed [][]byte
	for _, name := range []string{"a.sql", "b.sql"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("same plaintext"), 0o644))
		encPath, err := e.EncryptFile(path)
		require.NoError(t, err)
		data, err := os.ReadFile(encPath)
		require.NoError(t, err)
		sealed = append(sealed, data)
	}
	assert.NotEqual(t, sealed[0], sealed[1], "same plaintext must not produce the same ciphertext")
}
