package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripANSISequences(t *testing.T) {
	assert.Equal(t, "error: x", StripANSISequences("\x1b[1;31merror\x1b[0m: x"))
	assert.Equal(t, "plain", StripANSISequences("plain"))
}
