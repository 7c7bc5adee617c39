package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/inkwell/internal/apperr"
)

func TestMemoryMatchesStoreSemantics(t *testing.T) {
	m := NewMemory()

	for _, body := range []string{"one", "two", "three"} {
		_, err := m.Record("k", []byte(body), false, "save")
		require.NoError(t, err)
	}
	versions, err := m.List("k")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, int64(3), versions[2].Seq)

	data, v, err := m.Restore("k", 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
	assert.Equal(t, int64(2), v.Seq)

	_, _, err = m.Restore("k", 4)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	require.NoError(t, m.Archive("k"))
	versions, err = m.List("k")
	require.NoError(t, err)
	assert.Empty(t, versions)
	_, _, err = m.Restore("k", 1)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	keys, err := m.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryDiscardResetsSequence(t *testing.T) {
	m := NewMemory()
	_, err := m.Record("k", []byte("a"), false, "")
	require.NoError(t, err)
	require.NoError(t, m.Discard("k"))

	_, _, err = m.Restore("k", 1)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
