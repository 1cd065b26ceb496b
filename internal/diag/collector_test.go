package diag

import (
	"errors"
	"testing"

	"github.com/ttcn3tools/ttcnsem/internal/sourcecode"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	c := NewCollector(zerolog.Nop())

	c.Report(sourcecode.MakeSpan(0, 1), Error, "a")
	c.Report(sourcecode.MakeSpan(1, 2), Warning, "b")
	c.Report(sourcecode.MakeSpan(2, 3), Ignore, "c")

	assert.Equal(t, []string{"a", "b"}, c.Messages())
	assert.Len(t, c.Errors(), 1)
	assert.Len(t, c.Warnings(), 1)
	assert.True(t, c.HasErrors())

	t.Run("internal errors are kept apart", func(t *testing.T) {
		c := NewCollector(zerolog.Nop())
		c.Internal(errors.New("unreachable"))

		assert.Empty(t, c.Diagnostics())
		assert.Len(t, c.InternalErrors(), 1)
		assert.True(t, c.HasErrors())
	})
}

func TestParseSeverity(t *testing.T) {
	for input, expected := range map[string]Severity{"error": Error, "Warning": Warning, "ignore": Ignore, " warn ": Warning} {
		severity, err := ParseSeverity(input)
		if assert.NoError(t, err) {
			assert.Equal(t, expected, severity)
		}
	}

	_, err := ParseSeverity("fatal")
	assert.ErrorIs(t, err, ErrUnknownSeverity)
}
