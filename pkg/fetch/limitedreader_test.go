package fetch

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitBody(t *testing.T) {
	data := []byte("Hello, World!")

	t.Run("Under Limit", func(t *testing.T) {
		b, err := io.ReadAll(LimitBody(bytes.NewReader(data), 20))
		assert.NoError(t, err)
		assert.Equal(t, "Hello, World!", string(b))
	})

	t.Run("Exact Limit", func(t *testing.T) {
		b, err := io.ReadAll(LimitBody(bytes.NewReader(data), int64(len(data))))
		assert.NoError(t, err)
		assert.Equal(t, "Hello, World!", string(b))
	})

	t.Run("Beyond Limit", func(t *testing.T) {
		_, err := io.ReadAll(LimitBody(bytes.NewReader(data), 5))
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	})

	t.Run("Partial Read", func(t *testing.T) {
		lr := LimitBody(bytes.NewReader(data), 5)
		buf := make([]byte, 10)
		n, err := lr.Read(buf)
		assert.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, "Hello", string(buf[:n]))
	})

	t.Run("Empty Body", func(t *testing.T) {
		b, err := io.ReadAll(LimitBody(bytes.NewReader(nil), 0))
		assert.NoError(t, err)
		assert.Empty(t, b)
	})
}
