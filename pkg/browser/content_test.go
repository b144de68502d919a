package browser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractContent(t *testing.T) {
	page := `<html>
<head><title>Store</title><style>body { color: red }</style></head>
<body>
  <script>var tracking = true;</script>
  <h1>Welcome</h1>
  <p>Browse our catalog below.</p>
  <a href="/bikes">Used bikes</a>
  <a href="https://example.com/help">Help</a>
  <a>no href</a>
  <img src="/logo.png" alt="Store logo">
  <noscript>Enable JavaScript</noscript>
</body>
</html>`

	content, err := ExtractContent(page, "Store", "https://store.test")
	require.NoError(t, err)

	assert.Equal(t, "Store", content.Title)
	assert.Equal(t, "https://store.test", content.URL)

	assert.Contains(t, content.Text, "Welcome")
	assert.Contains(t, content.Text, "Browse our catalog below.")
	assert.NotContains(t, content.Text, "tracking")
	assert.NotContains(t, content.Text, "color: red")
	assert.NotContains(t, content.Text, "Enable JavaScript")

	require.Len(t, content.Links, 2)
	assert.Equal(t, Link{Text: "Used bikes", Href: "/bikes"}, content.Links[0])
	assert.Equal(t, Link{Text: "Help", Href: "https://example.com/help"}, content.Links[1])

	require.Len(t, content.Images, 1)
	assert.Equal(t, Image{Alt: "Store logo", Src: "/logo.png"}, content.Images[0])
}

func TestExtractContent_Limits(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(strings.Repeat("lorem ipsum dolor ", 600))
	for i := 0; i < maxLinks+10; i++ {
		fmt.Fprintf(&b, `<a href="/p/%d">link %d</a>`, i, i)
	}
	for i := 0; i < maxImages+5; i++ {
		fmt.Fprintf(&b, `<img src="/img/%d.png">`, i)
	}
	b.WriteString("</body></html>")

	content, err := ExtractContent(b.String(), "", "")
	require.NoError(t, err)

	assert.LessOrEqual(t, len(content.Text), maxContentText)
	assert.Len(t, content.Links, maxLinks)
	assert.Len(t, content.Images, maxImages)
}

func TestExtractContent_EmptyAndMalformed(t *testing.T) {
	content, err := ExtractContent("", "t", "u")
	require.NoError(t, err)
	assert.Empty(t, content.Text)
	assert.Empty(t, content.Links)

	// The tokenizer is forgiving; broken markup still yields text.
	content, err = ExtractContent("<p>unclosed <b>bold", "", "")
	require.NoError(t, err)
	assert.Contains(t, content.Text, "unclosed")
	assert.Contains(t, content.Text, "bold")
}
