package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 64KB. Agent prompts carry pasted context, so the
	// cap is generous while still bounding a runaway pipe.
	DefaultMaxInputSize = 64 * 1024
	// EnvMaxInputSize overrides the cap.
	EnvMaxInputSize = "TENDRIL_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput hardens a prompt before it reaches the executor: it enforces
// the size cap, validates UTF-8, and strips control characters that would
// poison logs or corrupt the terminal. Newline, tab, and carriage return
// survive; the rest of the control range (ESC, NUL, BEL, ...) is dropped.
//
// Oversized input is rejected, not truncated: a clipped prompt or resume
// payload must never reach the executor looking complete.
func SanitizeInput(input string) (string, error) {
	limit := maxInputSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// strings.Map leaves the input unallocated until the first dropped rune.
	return strings.Map(dropUnsafeControl, input), nil
}

func dropUnsafeControl(r rune) rune {
	switch r {
	case '\n', '\t', '\r':
		return r
	}
	if unicode.IsControl(r) {
		return -1
	}
	return r
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
