package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	text, err := Extract([]byte("hello\nworld"), "notes.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", text)
}

func TestExtractHTMLStripsMarkup(t *testing.T) {
	page := `<html><head>
		<style>.hidden { display: none; }</style>
		<script>alert("nope");</script>
	</head><body>
		<h1>Employee Handbook</h1>
		<p>Vacation policy applies to all staff.</p>
		<div>Remote work is allowed.</div>
	</body></html>`

	text, err := Extract([]byte(page), "handbook.html", "text/html")
	require.NoError(t, err)

	assert.Contains(t, text, "Employee Handbook")
	assert.Contains(t, text, "Vacation policy applies to all staff.")
	assert.Contains(t, text, "Remote work is allowed.")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "display: none")

	// Block boundaries survive as newlines.
	assert.Less(t,
		strings.Index(text, "Employee Handbook"),
		strings.Index(text, "Vacation policy"))
	assert.Contains(t, text, "\n")
}

func TestExtractHTMLByContentType(t *testing.T) {
	text, err := Extract([]byte("<p>from a url</p>"), "page", "text/html; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "from a url", text)
}

func TestExtractUnknownTypeBestEffort(t *testing.T) {
	data := append([]byte("readable "), 0xff, 0xfe)
	data = append(data, []byte(" text")...)

	text, err := Extract(data, "mystery.bin", "application/octet-stream")
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(text))
	assert.Contains(t, text, "readable")
	assert.Contains(t, text, "text")
}

func TestExtractCorruptPDFFails(t *testing.T) {
	_, err := Extract([]byte("this is not a pdf at all"), "report.pdf", "application/pdf")
	assert.Error(t, err)
}

func TestExtractEmptyPDF(t *testing.T) {
	text, err := Extract(nil, "empty.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Empty(t, text)
}
