package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexable(t *testing.T) {
	assert.True(t, Indexable("views/partner.xml"))
	assert.True(t, Indexable("models/partner.py"))
	assert.True(t, Indexable("static/src/widget.js"))
	assert.False(t, Indexable("README.md"))
	assert.False(t, Indexable("data.csv"))
}

func TestHashChangesWithContent(t *testing.T) {
	p := NewParser()
	defer p.Close()

	a, err := p.ParseFile("a.xml", "base", []byte(`<data/>`))
	require.NoError(t, err)
	b, err := p.ParseFile("a.xml", "base", []byte(`<data></data>`))
	require.NoError(t, err)
	c, err := p.ParseFile("a.xml", "base", []byte(`<data/>`))
	require.NoError(t, err)

	assert.NotEqual(t, a.Hash, b.Hash)
	assert.Equal(t, a.Hash, c.Hash)
}

func TestLineIndex(t *testing.T) {
	li := newLineIndex([]byte("first\nsecond\nthird"))

	line, col := li.locate(0)
	assert.Equal(t, uint32(1), line)
	assert.Equal(t, uint32(0), col)

	line, col = li.locate(6) // 's' of "second"
	assert.Equal(t, uint32(2), line)
	assert.Equal(t, uint32(0), col)

	line, col = li.locate(15) // 'i' of "third"
	assert.Equal(t, uint32(3), line)
	assert.Equal(t, uint32(2), col)
}
