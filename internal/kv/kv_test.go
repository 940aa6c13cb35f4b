package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	s := NewMemory()

	require.NoError(t, s.Set("a", []byte("hello")))

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	_, err = s.Get("missing")
	assert.True(t, IsNotFound(err))

	require.NoError(t, s.Delete("a"))
	_, err = s.Get("a")
	assert.True(t, IsNotFound(err))
}

func TestMemoryQuota(t *testing.T) {
	s := NewMemoryWithQuota(10)

	require.NoError(t, s.Set("a", []byte("12345")))
	err := s.Set("b", []byte("123456789")) // 5+9 > 10
	assert.True(t, IsQuotaExceeded(err))

	// Replacing an existing key frees its old bytes first.
	require.NoError(t, s.Set("a", []byte("1234567890")))
}

func TestLoadJSONStates(t *testing.T) {
	s := NewMemory()

	type state struct {
		Tokens float64 `json:"tokens"`
	}

	var v state
	assert.Equal(t, Absent, LoadJSON(s, "k", &v))

	require.NoError(t, s.Set("k", []byte(`{"tokens": 3.5}`)))
	assert.Equal(t, Found, LoadJSON(s, "k", &v))
	assert.Equal(t, 3.5, v.Tokens)

	require.NoError(t, s.Set("k", []byte(`{not json`)))
	assert.Equal(t, Corrupt, LoadJSON(s, "k", &v))
}

func TestSaveJSON(t *testing.T) {
	s := NewMemory()

	require.NoError(t, SaveJSON(s, "k", map[string]int{"n": 7}))

	data, err := s.Get("k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":7}`, string(data))
}

func TestSQLiteRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("zenspace_sessions", []byte(`[]`)))
	require.NoError(t, s.Set("zenspace_sessions", []byte(`[{"id":"x"}]`))) // upsert

	got, err := s.Get("zenspace_sessions")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"x"}]`, string(got))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"zenspace_sessions"}, keys)

	_, err = s.Get("zenspace_rate_limit")
	assert.True(t, IsNotFound(err))
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set("k", []byte("v")))
	require.NoError(t, s1.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestSQLiteQuota(t *testing.T) {
	s, err := OpenWithQuota(t.TempDir(), 8)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("a", []byte("1234")))
	err = s.Set("b", []byte("123456"))
	assert.True(t, IsQuotaExceeded(err))

	// Shrinking an existing key is always allowed.
	require.NoError(t, s.Set("a", []byte("12")))
	require.NoError(t, s.Set("b", []byte("123456")))
}
