package debugflags_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/glox/internal/debugflags"
)

func TestLoadParsesCLIValue(t *testing.T) {
	os.Unsetenv("GLOX_DEBUG")
	set, err := debugflags.Load("trace,code")
	require.NoError(t, err)
	assert.True(t, set.Trace)
	assert.True(t, set.Code)
	assert.False(t, set.Scanning)
	assert.False(t, set.StressGC)
	assert.False(t, set.LogGC)
}

func TestLoadIsCaseInsensitiveAndTrims(t *testing.T) {
	os.Unsetenv("GLOX_DEBUG")
	set, err := debugflags.Load(" STRESS_GC , LOG_GC ")
	require.NoError(t, err)
	assert.True(t, set.StressGC)
	assert.True(t, set.LogGC)
}

func TestLoadMergesEnvironmentAndCLI(t *testing.T) {
	t.Setenv("GLOX_DEBUG", "scanning")
	set, err := debugflags.Load("code")
	require.NoError(t, err)
	assert.True(t, set.Scanning)
	assert.True(t, set.Code)
}

func TestLoadRejectsUnknownFlag(t *testing.T) {
	os.Unsetenv("GLOX_DEBUG")
	_, err := debugflags.Load("not_a_flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestSetStringIsSortedAndStable(t *testing.T) {
	os.Unsetenv("GLOX_DEBUG")
	set, err := debugflags.Load("trace,code,scanning")
	require.NoError(t, err)
	assert.Equal(t, "code,scanning,trace", set.String())
}

func TestSetStringEmptyWhenNoFlags(t *testing.T) {
	os.Unsetenv("GLOX_DEBUG")
	set, err := debugflags.Load("")
	require.NoError(t, err)
	assert.Equal(t, "", set.String())
}
