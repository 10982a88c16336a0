// Usage: go run scripts/restore-snapshot.go <snapshot-file> <output-file>
// Recovers the replayable .sql text from a snapshot produced by
// mysql-snapshot: decrypts when the input ends in .enc (requires the
// ENCRYPTION_KEY environment variable, base64-encoded 32-byte key) and
// decompresses the gzip stream.
package main

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <snapshot-file> <output-file>\n", os.Args[0])
		os.Exit(1)
	}
	if err := restore(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Snapshot restored successfully")
}

func restore(in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	name := in
	if strings.HasSuffix(name, ".enc") {
		data, err = decrypt(data)
		if err != nil {
			return err
		}
		name = strings.TrimSuffix(name, ".enc")
	}

	if strings.HasSuffix(name, ".gz") || isGzip(data) {
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to open gzip stream: %w", err)
		}
		data, err = io.ReadAll(gr)
		if err != nil {
			return fmt.Errorf("failed to decompress: %w", err)
		}
		if err := gr.Close(); err != nil {
			return fmt.Errorf("corrupt gzip stream: %w", err)
		}
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func decrypt(sealed []byte) ([]byte, error) {
	keyBase64 := os.Getenv("ENCRYPTION_KEY")
	if keyBase64 == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY environment variable not set")
	}
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("encrypted data too short")
	}
	plaintext, err := gcm.Open(nil, sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func isGzip(data []byte) bool {
	return len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b
}
