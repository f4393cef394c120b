package benchconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	content := `
name: smoke
max_threads: 8
jobs:
  - kind: fast
    count: 100
  - kind: sleep
    count: 5
    duration: 10ms
  - kind: fail
    count: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke", s.Name)
	assert.Equal(t, uint(8), s.MaxThreads)
	require.Len(t, s.Jobs, 3)
	assert.Equal(t, KindSleep, s.Jobs[1].Kind)
	assert.Equal(t, 10*time.Millisecond, s.Jobs[1].Duration)
}

func TestLoadDefaultsMaxThreadsWhenUnset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: bare\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint(4), s.MaxThreads)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
