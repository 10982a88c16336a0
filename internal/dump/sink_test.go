package dump

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_FileWritesAreNewlineTerminatedAndOrdered(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.sql")
	s, err := newSink(path)
	require.NoError(t, err)

	require.NoError(t, s.write("one", "two"))
	require.NoError(t, s.write("three"))
	require.NoError(t, s.close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\n", string(data))
}

func TestSink_AppendsToExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.sql")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	s, err := newSink(path)
	require.NoError(t, err)
	require.NoError(t, s.write("appended"))
	require.NoError(t, s.close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\nappended\n", string(data))
}

func TestSink_NoFileSink(t *testing.T) {
	t.Parallel()

	s, err := newSink("")
	require.NoError(t, err)

	s.beginTable(true)
	require.NoError(t, s.write("line1", "line2"))
	assert.Equal(t, []string{"line1", "line2"}, s.endTable())
	require.NoError(t, s.close())
}

func TestSink_RetentionIsPerTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.sql")
	s, err := newSink(path)
	require.NoError(t, err)

	s.beginTable(true)
	require.NoError(t, s.write("t1-line"))
	assert.Equal(t, []string{"t1-line"}, s.endTable())

	// After endTable nothing accumulates until the next beginTable.
	require.NoError(t, s.write("separator"))

	s.beginTable(false)
	require.NoError(t, s.write("t2-line"))
	assert.Nil(t, s.endTable())

	s.beginTable(true)
	require.NoError(t, s.write("t3-line"))
	assert.Equal(t, []string{"t3-line"}, s.endTable())

	require.NoError(t, s.close())

	// The file side saw everything regardless of retention.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "t1-line\nseparator\nt2-line\nt3-line\n", string(data))
}

func TestSink_EmptyRetainedTableYieldsEmptySlice(t *testing.T) {
	t.Parallel()

	s, err := newSink("")
	require.NoError(t, err)

	s.beginTable(true)
	lines := s.endTable()
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestSink_CloseIsIdempotentWithoutFile(t *testing.T) {
	t.Parallel()

	s, err := newSink("")
	require.NoError(t, err)
	require.NoError(t, s.close())
	require.NoError(t, s.close())
}

func TestSink_OpenFailure(t *testing.T) {
	t.Parallel()

	_, err := newSink(filepath.Join(t.TempDir(), "missing", "out.sql"))
	require.Error(t, err)
}
