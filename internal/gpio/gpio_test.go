package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeRpio(t *testing.T) (*int, *int) {
	t.Helper()
	opens, closes := 0, 0
	openFn = func() error {
		opens++
		return nil
	}
	closeFn = func() error {
		closes++
		return nil
	}
	t.Cleanup(func() {
		users = 0
	})
	return &opens, &closes
}

func TestSharedMapping(t *testing.T) {
	opens, closes := fakeRpio(t)

	require.NoError(t, Open())
	require.NoError(t, Open())
	assert.Equal(t, 1, *opens)
	assert.Equal(t, 2, Users())

	require.NoError(t, Close())
	assert.Equal(t, 0, *closes)
	require.NoError(t, Close())
	assert.Equal(t, 1, *closes)
	assert.Equal(t, 0, Users())

	require.NoError(t, Close())
	assert.Equal(t, 1, *closes, "extra close is ignored")
}

func TestOpenFailureIsNotCounted(t *testing.T) {
	fakeRpio(t)
	openFn = func() error { return errors.New("no /dev/gpiomem") }

	assert.ErrorContains(t, Open(), "gpiomem")
	assert.Equal(t, 0, Users())
}

func TestCloseError(t *testing.T) {
	fakeRpio(t)
	closeFn = func() error { return errors.New("munmap failed") }

	require.NoError(t, Open())
	assert.Error(t, Close())
	assert.Equal(t, 0, Users())
}
