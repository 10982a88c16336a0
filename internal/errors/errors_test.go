package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotError_Message(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewSnapshotError(ErrQueryStream, "users", cause)

	assert.Equal(t, "query stream failed for table 'users': connection reset", err.Error())
}

func TestSnapshotError_MessageWithoutTable(t *testing.T) {
	t.Parallel()

	cause := errors.New("denied")
	err := NewSnapshotError(ErrLockAcquisition, "", cause)

	assert.Equal(t, "lock acquisition failed: denied", err.Error())
}

func TestSnapshotError_UnwrapsKindAndCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := NewSnapshotError(ErrSinkWrite, "orders", cause)

	assert.ErrorIs(t, err, ErrSinkWrite)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrQueryStream)
}

func TestSnapshotError_As(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("outer: %w", NewSnapshotError(ErrEncoding, "users", errors.New("bad value")))

	var se *SnapshotError
	require.ErrorAs(t, wrapped, &se)
	assert.Equal(t, "users", se.Table)
	assert.ErrorIs(t, se.Kind, ErrEncoding)
}

func TestCompressionError(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such file")
	err := NewCompressionError(ErrCompressionSourceMissing, "/tmp/dump.sql", cause)

	assert.Equal(t, "compression source missing for '/tmp/dump.sql': no such file", err.Error())
	assert.ErrorIs(t, err, ErrCompressionSourceMissing)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrCompressionIO)
}

func TestStorageError(t *testing.T) {
	t.Parallel()

	cause := errors.New("timeout")
	err := NewStorageError("upload", "bucket", "snapshots/db.sql", cause)

	assert.Equal(t, "storage upload failed for bucket 'bucket', key 'snapshots/db.sql': timeout", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestConfigError(t *testing.T) {
	t.Parallel()

	err := NewConfigError("connection", "must be a mysql:// URL")
	assert.Equal(t, "configuration error for 'connection': must be a mysql:// URL", err.Error())
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrLockAcquisition,
		ErrQueryStream,
		ErrEncoding,
		ErrSinkWrite,
		ErrUnlock,
		ErrCompressionSourceMissing,
		ErrCompressionIO,
		ErrEncryptionFailed,
		ErrUploadFailed,
		ErrConnectionFailed,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b)
		}
	}
}
