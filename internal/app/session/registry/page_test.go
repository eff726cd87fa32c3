package registry

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRegistry(t *testing.T) {
	r := NewPageRegistry(2)
	now := time.Now()

	require.NoError(t, r.Add(&Page{ID: "b", MountedAt: now.Add(time.Second)}))
	require.NoError(t, r.Add(&Page{ID: "a", MountedAt: now}))
	assert.True(t, errors.Is(r.Add(&Page{ID: "a"}), ErrDuplicatePage))
	assert.True(t, errors.Is(r.Add(&Page{ID: "c"}), ErrTooManyPages))
	assert.Equal(t, 2, r.Count())

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)

	p, err := r.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "b", p.ID)

	_, err = r.Get("missing")
	assert.True(t, errors.Is(err, ErrInvalidPage))

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	require.NoError(t, r.Add(&Page{ID: "c"}))
}

func TestPageRegistry_Unlimited(t *testing.T) {
	r := NewPageRegistry(0)
	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, r.Add(&Page{ID: id}))
	}
	assert.Equal(t, 4, r.Count())
}
