package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInputSizeCap(t *testing.T) {
	atLimit := strings.Repeat("a", DefaultMaxInputSize)

	got, err := SanitizeInput(atLimit)
	require.NoError(t, err)
	assert.Equal(t, atLimit, got)

	_, err = SanitizeInput(atLimit + "a")
	require.ErrorIs(t, err, ErrInputTooLarge)
}

func TestSanitizeInputStripsControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "Hello World", "Hello World"},
		{"safe controls kept", "Line1\nLine2\tTabbed\r", "Line1\nLine2\tTabbed\r"},
		{"ansi escape dropped", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"nul dropped", "Null\x00Byte", "NullByte"},
		{"bel dropped", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInputEnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := SanitizeInput("12345678901")
	require.ErrorIs(t, err, ErrInputTooLarge)

	got, err := SanitizeInput("12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", got)
}

func TestSanitizeInputRejectsInvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	require.ErrorIs(t, err, ErrInvalidUTF8)
}
