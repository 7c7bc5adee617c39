package vault

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
)

func TestTags(t *testing.T) {
	root := t.TempDir()
	v := openVault(t, root)
	work := mustFolder(t, v, "Work")
	a := mustNote(t, v, work, "A")
	b := mustNote(t, v, work, "B")

	urgent, err := v.CreateTag("urgent", models.Color{R: 200, G: 10, B: 10})
	require.NoError(t, err)
	later, err := v.CreateTag("later", models.Color{})
	require.NoError(t, err)

	_, err = v.CreateTag("urgent", models.Color{})
	assert.True(t, errors.Is(err, apperr.ErrDuplicateName))
	_, err = v.CreateTag("", models.Color{})
	assert.True(t, errors.Is(err, apperr.ErrInvalidName))

	tags := v.Tags()
	require.Len(t, tags, 2)
	c := tags[1].Color
	for _, ch := range []uint8{c.R, c.G, c.B} {
		assert.GreaterOrEqual(t, ch, uint8(50))
		assert.Less(t, ch, uint8(200))
	}

	require.NoError(t, v.SetTags(a, []int{later, urgent, urgent}))
	require.NoError(t, v.SetTags(b, []int{urgent}))
	n, err := v.Note(a)
	require.NoError(t, err)
	assert.Equal(t, []int{urgent, later}, n.Tags)

	assert.True(t, errors.Is(v.SetTags(a, []int{99}), apperr.ErrNotFound))

	withUrgent, err := v.NotesWithTag(urgent)
	require.NoError(t, err)
	assert.Len(t, withUrgent, 2)

	require.NoError(t, v.RenameTag(later, "someday", models.Color{}))
	assert.True(t, errors.Is(v.RenameTag(later, "urgent", models.Color{}), apperr.ErrDuplicateName))

	require.NoError(t, v.RemoveTag(urgent))
	assert.True(t, errors.Is(v.RemoveTag(urgent), apperr.ErrNotFound))
	_, err = v.NotesWithTag(urgent)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	reopened := openVault(t, root)
	na, err := reopened.Note(a)
	require.NoError(t, err)
	assert.Equal(t, []int{later}, na.Tags)
	nb, err := reopened.Note(b)
	require.NoError(t, err)
	assert.Empty(t, nb.Tags)

	tags = reopened.Tags()
	require.Len(t, tags, 1)
	assert.Equal(t, "someday", tags[0].Name)
	assert.Empty(t, reopened.Diagnostics())

	next, err := reopened.CreateTag("fresh", models.Color{R: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, next, "tag slots are not reused")
}

func TestFavorites(t *testing.T) {
	root := t.TempDir()
	v := openVault(t, root)
	work := mustFolder(t, v, "Work")
	a := mustNote(t, v, work, "A")
	mustNote(t, v, work, "B")

	fav, err := v.ToggleFavorite(a)
	require.NoError(t, err)
	assert.True(t, fav)

	favs := openVault(t, root).Favorites()
	require.Len(t, favs, 1)
	assert.Equal(t, a, favs[0].ID)

	fav, err = v.ToggleFavorite(a)
	require.NoError(t, err)
	assert.False(t, fav)
	assert.Empty(t, v.Favorites())
}
