package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("IF_TEST_STR", "  value ")
	assert.Equal(t, "value", GetEnv("IF_TEST_STR", "def"))
	assert.Equal(t, "def", GetEnv("IF_TEST_MISSING", "def"))

	t.Setenv("IF_TEST_BLANK", "   ")
	assert.Equal(t, "def", GetEnv("IF_TEST_BLANK", "def"))
}

func TestGetEnvNumbers(t *testing.T) {
	t.Setenv("IF_TEST_INT", "42")
	t.Setenv("IF_TEST_BAD_INT", "forty")
	t.Setenv("IF_TEST_INT64", "33554432")

	assert.Equal(t, 42, GetEnvInt("IF_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("IF_TEST_BAD_INT", 1))
	assert.Equal(t, int64(33554432), GetEnvInt64("IF_TEST_INT64", 0))
	assert.Equal(t, int64(7), GetEnvInt64("IF_TEST_BAD_INT", 7))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("IF_TEST_BOOL", "true")
	t.Setenv("IF_TEST_BAD_BOOL", "maybe")

	assert.True(t, GetEnvBool("IF_TEST_BOOL", false))
	assert.False(t, GetEnvBool("IF_TEST_BAD_BOOL", false))
	assert.True(t, GetEnvBool("IF_TEST_MISSING", true))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("IF_TEST_DUR", "1500ms")
	t.Setenv("IF_TEST_BAD_DUR", "soon")

	assert.Equal(t, 1500*time.Millisecond, GetEnvDuration("IF_TEST_DUR", time.Second))
	assert.Equal(t, time.Second, GetEnvDuration("IF_TEST_BAD_DUR", time.Second))
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("IF_TEST_LIST", "Apple, Amazon,,Tesla ")
	assert.Equal(t, []string{"Apple", "Amazon", "Tesla"}, GetEnvList("IF_TEST_LIST", nil))

	t.Setenv("IF_TEST_EMPTY_LIST", " , ")
	assert.Equal(t, []string{"x"}, GetEnvList("IF_TEST_EMPTY_LIST", []string{"x"}))
	assert.Nil(t, GetEnvList("IF_TEST_MISSING_LIST", nil))
}
