package workspace

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefreshesAccessTime(t *testing.T) {
	dir := t.TempDir()
	old := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(dir, old, old))

	before := time.Now().Add(-time.Second)
	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	st, ok := info.Sys().(*syscall.Stat_t)
	require.True(t, ok)

	atime := time.Unix(int64(st.Atim.Sec), int64(st.Atim.Nsec))
	assert.True(t, atime.After(old), "atime %v not refreshed", atime)
	assert.False(t, atime.Before(before), "atime %v older than startup", atime)
	assert.True(t, info.ModTime().Equal(old))
}
