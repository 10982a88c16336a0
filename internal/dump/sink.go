package dump

import (
	"bufio"
	"os"

	apperrors "github.com/jorgepascosoto/mysql-snapshot/internal/errors"
)

// sink fans dump output to an append-only file stream and/or a per-table
// in-memory line accumulator. Both sides preserve write order.
type sink struct {
	file   *os.File
	buf    *bufio.Writer
	lines  []string
	retain bool
}

// newSink opens the file side of the sink in append mode. An empty path
// means no file sink; writes then only feed the in-memory accumulator.
func newSink(path string) (*sink, error) {
	s := &sink{}
	if path == "" {
		return s, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, apperrors.NewSnapshotError(apperrors.ErrSinkWrite, "", err)
	}
	s.file = f
	s.buf = bufio.NewWriter(f)
	return s, nil
}

// beginTable resets the accumulator for the next table. Retention is decided
// per table so skipped views never leave stale lines behind.
func (s *sink) beginTable(retain bool) {
	s.retain = retain
	s.lines = nil
	if retain {
		s.lines = []string{}
	}
}

// endTable hands back the lines accumulated since beginTable and stops
// retaining until the next beginTable.
func (s *sink) endTable() []string {
	lines := s.lines
	s.lines = nil
	s.retain = false
	return lines
}

// write appends every line, newline-terminated, to the file stream, and the
// raw lines to the accumulator when retention is on for the current table.
func (s *sink) write(lines ...string) error {
	for _, line := range lines {
		if s.buf != nil {
			if _, err := s.buf.WriteString(line); err != nil {
				return apperrors.NewSnapshotError(apperrors.ErrSinkWrite, "", err)
			}
			if err := s.buf.WriteByte('\n'); err != nil {
				return apperrors.NewSnapshotError(apperrors.ErrSinkWrite, "", err)
			}
		}
		if s.retain {
			s.lines = append(s.lines, line)
		}
	}
	return nil
}

// close flushes buffered output and waits for the file handle to confirm the
// flush before closing, so the caller never observes a half-written dump.
func (s *sink) close() error {
	if s.file == nil {
		return nil
	}
	if err := s.buf.Flush(); err != nil {
		s.file.Close()
		return apperrors.NewSnapshotError(apperrors.ErrSinkWrite, "", err)
	}
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return apperrors.NewSnapshotError(apperrors.ErrSinkWrite, "", err)
	}
	if err := s.file.Close(); err != nil {
		return apperrors.NewSnapshotError(apperrors.ErrSinkWrite, "", err)
	}
	s.file = nil
	return nil
}
