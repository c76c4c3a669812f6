package vectorstore

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	t.Run("reports on interval", func(t *testing.T) {
		var buf bytes.Buffer
		p := newProgress(&buf, 100, 10)

		p.add(5)
		assert.Empty(t, buf.String())

		p.add(5)
		assert.Contains(t, buf.String(), "10/100 chunks (10.0%)")
	})

	t.Run("caps at total", func(t *testing.T) {
		var buf bytes.Buffer
		p := newProgress(&buf, 10, 1)

		p.add(50)
		assert.Contains(t, buf.String(), "10/10 chunks (100.0%)")
	})

	t.Run("finish prints newline", func(t *testing.T) {
		var buf bytes.Buffer
		p := newProgress(&buf, 3, 10)

		p.add(1)
		p.finish()
		assert.Contains(t, buf.String(), "3/3")
		assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	})

	t.Run("nil writer is silent", func(t *testing.T) {
		p := newProgress(nil, 3, 1)
		p.add(3)
		p.finish()
	})
}
