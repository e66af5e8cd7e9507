package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	t.Run("Reads plain text files as is", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("plain content"), 0o644))

		text, err := Text(path)

		require.NoError(t, err)
		assert.Equal(t, "plain content", text)
	})

	t.Run("Markdown is treated as plain text", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "readme.md")
		require.NoError(t, os.WriteFile(path, []byte("# Heading\n\nBody."), 0o644))

		text, err := Text(path)

		require.NoError(t, err)
		assert.Equal(t, "# Heading\n\nBody.", text)
	})

	t.Run("HTML files are stripped to their text content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "page.html")
		markup := "<html><head><style>body{}</style></head><body><h1>Title</h1><p>Paragraph.</p></body></html>"
		require.NoError(t, os.WriteFile(path, []byte(markup), 0o644))

		text, err := Text(path)

		require.NoError(t, err)
		assert.Contains(t, text, "Title")
		assert.Contains(t, text, "Paragraph.")
		assert.NotContains(t, text, "body{}")
	})

	t.Run("Missing file fails", func(t *testing.T) {
		_, err := Text(filepath.Join(t.TempDir(), "nope.txt"))
		assert.Error(t, err)
	})
}

func TestHTMLText(t *testing.T) {
	t.Run("Drops script and style contents", func(t *testing.T) {
		markup := "<html><body><script>var x = 1;</script><p>Visible</p></body></html>"

		text, err := HTMLText(markup)

		require.NoError(t, err)
		assert.Equal(t, "Visible", text)
	})

	t.Run("Joins block texts with newlines", func(t *testing.T) {
		markup := "<div>First</div><div>Second</div>"

		text, err := HTMLText(markup)

		require.NoError(t, err)
		assert.Equal(t, "First\nSecond", text)
	})
}
