package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitWithFrontMatter(t *testing.T) {
	page := []byte("---\ntitle: About Me\nhidden: true\n---\nBody text.\n")

	meta, body, had, err := Split(page)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, "title: About Me\nhidden: true\n", string(meta))
	assert.Equal(t, "Body text.\n", string(body))
}

func TestSplitWithoutFrontMatter(t *testing.T) {
	page := []byte("# Just markdown\n")

	meta, body, had, err := Split(page)
	require.NoError(t, err)
	assert.False(t, had)
	assert.Nil(t, meta)
	assert.Equal(t, page, body)
}

func TestSplitEmptyBlock(t *testing.T) {
	page := []byte("---\n---\nbody\n")

	meta, body, had, err := Split(page)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Empty(t, meta)
	assert.Equal(t, "body\n", string(body))
}

func TestSplitUnclosed(t *testing.T) {
	_, _, _, err := Split([]byte("---\ntitle: Oops\nno closing line\n"))
	assert.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestSplitCRLF(t *testing.T) {
	page := []byte("---\r\ntitle: Windows\r\n---\r\nbody\r\n")

	meta, body, had, err := Split(page)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, "title: Windows\r\n", string(meta))
	assert.Equal(t, "body\r\n", string(body))
}

func TestSplitDelimiterAtEOF(t *testing.T) {
	page := []byte("---\ntitle: Tail\n---")

	meta, _, had, err := Split(page)
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, "title: Tail\n", string(meta))
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte("title: Contact\nhidden: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "Contact", m.Title)
	assert.True(t, m.Hidden)

	m, err = Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, m.Title)
	assert.False(t, m.Hidden)

	_, err = Parse([]byte("title: [unclosed"))
	assert.Error(t, err)
}

func TestSerializeSortsKeys(t *testing.T) {
	out, err := Serialize(map[string]any{
		"title":  "New Page",
		"hidden": false,
		"tags":   []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hidden: false\ntags:\n  - a\n  - b\ntitle: New Page\n", string(out))
}

func TestComposeRoundTripsThroughSplit(t *testing.T) {
	page, err := Compose(map[string]any{"title": "Notes"}, []byte("# Notes\n"))
	require.NoError(t, err)

	meta, body, had, err := Split(page)
	require.NoError(t, err)
	assert.True(t, had)

	parsed, err := Parse(meta)
	require.NoError(t, err)
	assert.Equal(t, "Notes", parsed.Title)
	assert.Equal(t, "\n# Notes\n", string(body))
}

func TestSerializeRejectsOddTypes(t *testing.T) {
	_, err := Serialize(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}
