package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvPrefersLoadedMap(t *testing.T) {
	t.Setenv("CLIPFOX_TEST_KEY", "from-os")
	Env = map[string]string{"CLIPFOX_TEST_KEY": "from-file"}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, "from-file", GetEnv("CLIPFOX_TEST_KEY", "def"))
}

func TestGetEnvFallsBackToOSAndDefault(t *testing.T) {
	Env = nil
	t.Setenv("CLIPFOX_TEST_KEY", "from-os")

	assert.Equal(t, "from-os", GetEnv("CLIPFOX_TEST_KEY", "def"))
	assert.Equal(t, "def", GetEnv("CLIPFOX_TEST_MISSING", "def"))
}

func TestGetEnvInt(t *testing.T) {
	Env = map[string]string{"A": "42", "B": "nope"}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, 42, GetEnvInt("A", 1))
	assert.Equal(t, 7, GetEnvInt("B", 7))
	assert.Equal(t, 3, GetEnvInt("C", 3))
}

func TestGetEnvSeconds(t *testing.T) {
	Env = map[string]string{"T": "9", "Z": "0"}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, 9*time.Second, GetEnvSeconds("T", time.Second))
	assert.Equal(t, 5*time.Second, GetEnvSeconds("Z", 5*time.Second))
}
