package usecases

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
)

func TestRegistry_ProducerIsLazyAndMemoized(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	reg.Register("expensive", func() (string, error) {
		calls++
		return "value", nil
	})

	assert.Equal(t, 0, calls, "producer must not run on registration")

	for i := 0; i < 3; i++ {
		got, err := reg.Get("expensive")
		require.NoError(t, err)
		assert.Equal(t, "value", got)
	}
	assert.Equal(t, 1, calls)
}

func TestRegistry_ErrorIsMemoized(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	reg.Register("broken", func() (string, error) {
		calls++
		return "", errors.New("walk failed")
	})

	_, err1 := reg.Get("broken")
	_, err2 := reg.Get("broken")

	require.Error(t, err1)
	assert.Equal(t, err1, err2)
	assert.Equal(t, 1, calls)
}

func TestRegistry_UnknownKey(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingPlaceholder)
	assert.Contains(t, err.Error(), "nope")
	assert.False(t, reg.Has("nope"))
}

func TestRegistry_EmptyValueIsNotMissing(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterValue("dirty", "")

	got, err := reg.Get("dirty")

	require.NoError(t, err)
	assert.Equal(t, "", got)
	assert.True(t, reg.Has("dirty"))
}

func TestRegistry_ChildSharesParentMemo(t *testing.T) {
	parent := NewRegistry()
	calls := 0
	parent.Register("shared", func() (string, error) {
		calls++
		return "once", nil
	})

	first := parent.Child()
	first.RegisterValue("value", "a")
	second := parent.Child()
	second.RegisterValue("value", "b")

	v1, err := first.Get("value")
	require.NoError(t, err)
	v2, err := second.Get("value")
	require.NoError(t, err)
	assert.Equal(t, "a", v1)
	assert.Equal(t, "b", v2)

	_, err = first.Get("shared")
	require.NoError(t, err)
	_, err = second.Get("shared")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	assert.False(t, parent.Has("value"), "child entries must not leak into the parent")
}
