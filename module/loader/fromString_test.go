package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromString(t *testing.T) {
	t.Parallel()

	t.Run("trims and reads", func(t *testing.T) {
		l, err := NewFromString("\n  def greet():\n    return 'hi'\n  ")
		require.NoError(t, err)
		assert.Equal(t, "def greet():\n    return 'hi'", string(readAll(t, l)))
		assert.True(t, strings.HasPrefix(l.GetSourceURL().String(), "string://inline/"))
		assert.Contains(t, l.String(), "Chars:")
	})

	t.Run("empty", func(t *testing.T) {
		l, err := NewFromString(" \n\t ")
		require.ErrorIs(t, err, ErrModuleUnavailable)
		assert.Nil(t, l)
	})
}
