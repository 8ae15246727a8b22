package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDirPrefersExplicit(t *testing.T) {
	t.Setenv(EnvLogDir, "/from/env")
	assert.Equal(t, "/tmp/explicit", ResolveDir("/tmp/explicit"))
	assert.Equal(t, "/from/env", ResolveDir(""))
}

func TestWriterAppendsToDailyFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, TodayFilename(time.Now())))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}
