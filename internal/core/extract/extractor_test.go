package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	e := New()

	result, err := e.Extract([]byte("\xef\xbb\xbfplain body"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain body", result.Text)
	assert.Empty(t, result.Records)
}

func TestExtractMarkdown(t *testing.T) {
	e := New()

	result, err := e.Extract([]byte("# Heading\n\nbody"), "README.md")
	require.NoError(t, err)
	assert.Equal(t, "# Heading\n\nbody", result.Text)
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := New()

	_, err := e.Extract([]byte("binary"), "report.xlsx")
	require.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestExtractSelectsByExtensionCaseInsensitive(t *testing.T) {
	e := New()

	result, err := e.Extract([]byte("upper"), "NOTES.TXT")
	require.NoError(t, err)
	assert.Equal(t, "upper", result.Text)
}

func TestExtractCSVDefaultsToPlainText(t *testing.T) {
	e := New()

	csvBody := "name,score\nalice,10\n"
	result, err := e.Extract([]byte(csvBody), "scores.csv")
	require.NoError(t, err)
	assert.Equal(t, csvBody, result.Text)
	assert.Empty(t, result.Records)
}

func TestExtractCSVRowMode(t *testing.T) {
	e := New(WithCSVRowMode(true))

	csvBody := "name,score,comment\nalice,10,\nbob,,fast\n"
	result, err := e.Extract([]byte(csvBody), "scores.csv")
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	assert.Equal(t, []string{
		"name: alice | score: 10",
		"name: bob | comment: fast",
	}, result.Records)
}

func TestExtractCSVRowModeHeaderOnly(t *testing.T) {
	e := New(WithCSVRowMode(true))

	result, err := e.Extract([]byte("name,score\n"), "scores.csv")
	require.NoError(t, err)
	assert.Empty(t, result.Records)
}
