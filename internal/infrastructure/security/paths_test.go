package security

import (
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePathStripsTraversal(t *testing.T) {
	assert.Equal(t, "etc/passwd", SanitizePath("../../../etc/passwd"))
	assert.Equal(t, "etc/passwd", SanitizePath("..%2f..%2fetc/passwd"))
	assert.Equal(t, "etc/passwd", SanitizePath("%2e%2e%2f%2e%2e%2fetc/passwd"))
}

func TestSanitizePathIdempotent(t *testing.T) {
	once := SanitizePath("../../../etc/passwd")
	assert.Equal(t, once, SanitizePath(once))
}

func TestSanitizePathDefeatsNestedEncoding(t *testing.T) {
	// removing the inner sequence must not leave an outer one behind
	assert.NotContains(t, SanitizePath("..%2e%2e%2f/x"), "../")
}

func TestValidateFileName(t *testing.T) {
	assert.NoError(t, ValidateFileName("notes.txt"))
	assert.Error(t, ValidateFileName(""))
	assert.Error(t, ValidateFileName("con"))
	assert.Error(t, ValidateFileName("COM1.log"))
	assert.Error(t, ValidateFileName("bad|name.txt"))
	assert.Error(t, ValidateFileName("bad\x07name"))

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidateFileName(string(long)))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://example.com/path"))
	assert.Error(t, ValidateURL("ftp://example.com"))
	assert.Error(t, ValidateURL("https://localhost:8080"))
	assert.Error(t, ValidateURL("http://127.0.0.1/admin"))
	assert.Error(t, ValidateURL("http://10.0.0.5"))
	assert.Error(t, ValidateURL("http://169.254.169.254/latest/meta-data"))
}

func TestEscapeShellArgumentPlainPassthrough(t *testing.T) {
	assert.Equal(t, "abc_123./x-y", EscapeShellArgument("abc_123./x-y"))
}

func TestEscapeShellArgumentRoundTrip(t *testing.T) {
	for _, arg := range []string{
		"it's a test",
		`double "quoted" words`,
		"spaces and\ttabs",
		"'''",
		"$HOME is not expanded",
	} {
		escaped := EscapeShellArgument(arg)
		parsed, err := shellquote.Split(escaped)
		require.NoError(t, err, "arg %q escaped to %q", arg, escaped)
		require.Len(t, parsed, 1)
		assert.Equal(t, arg, parsed[0])
	}
}
