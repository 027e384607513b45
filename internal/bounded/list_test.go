package bounded

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_Push(t *testing.T) {
	var l List[int]
	assert.Equal(t, 0, l.Len())

	require.NoError(t, l.Push(7))
	require.NoError(t, l.Push(9))
	assert.Equal(t, 2, l.Len())

	err := l.Push(11)
	assert.ErrorIs(t, err, ErrFull)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []int{7, 9}, l.Slice())
}

func TestList_At(t *testing.T) {
	var l List[string]
	require.NoError(t, l.Push("a"))

	assert.Equal(t, "a", l.At(0))
	assert.Panics(t, func() { l.At(1) })
	assert.Panics(t, func() { l.At(-1) })
}

func TestList_All(t *testing.T) {
	var l List[int]
	assert.Empty(t, slices.Collect(l.All()))

	require.NoError(t, l.Push(1))
	require.NoError(t, l.Push(2))
	assert.Equal(t, []int{1, 2}, slices.Collect(l.All()))

	// early break
	for v := range l.All() {
		assert.Equal(t, 1, v)
		break
	}
}

func TestList_SliceIsCopy(t *testing.T) {
	var l List[int]
	require.NoError(t, l.Push(1))
	s := l.Slice()
	s[0] = 42
	assert.Equal(t, 1, l.At(0))
}
