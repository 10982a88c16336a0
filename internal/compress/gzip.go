package compress

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"

	apperrors "github.com/jorgepascosoto/mysql-snapshot/internal/errors"
)

const (
	// TempSuffix is appended to the source file while it is being replaced
	// by its compressed form.
	TempSuffix = ".temp"

	// tempDeleteDelay is how long to wait before the best-effort removal of
	// the temp file. The close of the source handle may complete
	// asynchronously on some filesystems, so removal is deferred rather
	// than attempted inline.
	tempDeleteDelay = 100 * time.Millisecond
)

// CompressFile atomically replaces the file at path with a gzip-compressed
// version of itself: the source is renamed to path+".temp", its contents are
// stream-compressed into a fresh file at the original path, and the temp
// file is scheduled for deferred best-effort deletion. Success requires a
// confirmed finish of the gzip stream, not merely all bytes submitted.
func CompressFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewCompressionError(apperrors.ErrCompressionSourceMissing, path, err)
		}
		return apperrors.NewCompressionError(apperrors.ErrCompressionIO, path, err)
	}

	tmp := path + TempSuffix
	if err := os.Rename(path, tmp); err != nil {
		return apperrors.NewCompressionError(apperrors.ErrCompressionIO, path, err)
	}

	if err := compressInto(tmp, path); err != nil {
		scheduleRemove(tmp)
		return apperrors.NewCompressionError(apperrors.ErrCompressionIO, path, err)
	}

	scheduleRemove(tmp)
	return nil
}

func compressInto(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	gw, err := gzip.NewWriterLevel(out, gzip.BestCompression)
	if err != nil {
		out.Close()
		return err
	}

	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		return err
	}
	// Close flushes the final block and the gzip trailer; only after it
	// returns is the output a complete stream.
	if err := gw.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// scheduleRemove deletes the temp file off the completion path. A file that
// is already gone is not an error, and a failed removal never fails the
// compression itself.
func scheduleRemove(path string) {
	time.AfterFunc(tempDeleteDelay, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: could not remove temp file %s: %v", path, err)
		}
	})
}
