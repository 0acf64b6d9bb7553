package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	var out bytes.Buffer
	p := NewProgress(&out, 3, "Categorizing transactions...")

	p.Tick(1, 3)
	p.Tick(2, 3)
	assert.Equal(t, int64(2), p.Current())

	p.Tick(3, 3)
	p.Finish()
	assert.Equal(t, int64(3), p.Current())
	assert.Contains(t, out.String(), "Categorizing transactions...")
}
