package errors

import (
	"errors"
	"fmt"
)

var (
	ErrLockAcquisition          = errors.New("lock acquisition failed")
	ErrQueryStream              = errors.New("query stream failed")
	ErrEncoding                 = errors.New("value encoding failed")
	ErrSinkWrite                = errors.New("sink write failed")
	ErrUnlock                   = errors.New("unlock failed")
	ErrCompressionSourceMissing = errors.New("compression source missing")
	ErrCompressionIO            = errors.New("compression failed")
	ErrEncryptionFailed         = errors.New("encryption failed")
	ErrUploadFailed             = errors.New("upload failed")
	ErrConnectionFailed         = errors.New("database connection failed")
)

// SnapshotError ties a failure during a dump to the error kind the caller
// can match with errors.Is and, when relevant, the table being processed.
type SnapshotError struct {
	Kind  error
	Table string
	Err   error
}

func (e *SnapshotError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%v for table '%s': %v", e.Kind, e.Table, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *SnapshotError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func NewSnapshotError(kind error, table string, err error) *SnapshotError {
	return &SnapshotError{
		Kind:  kind,
		Table: table,
		Err:   err,
	}
}

type CompressionError struct {
	Kind error
	Path string
	Err  error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("%v for '%s': %v", e.Kind, e.Path, e.Err)
}

func (e *CompressionError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func NewCompressionError(kind error, path string, err error) *CompressionError {
	return &CompressionError{
		Kind: kind,
		Path: path,
		Err:  err,
	}
}

type StorageError struct {
	Operation string
	Bucket    string
	Key       string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for bucket '%s', key '%s': %v", e.Operation, e.Bucket, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op, bucket, key string, err error) *StorageError {
	return &StorageError{
		Operation: op,
		Bucket:    bucket,
		Key:       key,
		Err:       err,
	}
}

type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for '%s': %s", e.Field, e.Message)
}

func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}
