package slog

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input string
		level zerolog.Level
		ok    bool
	}{
		{"", InfoLevel, true},
		{"debug", DebugLevel, true},
		{" WARN ", WarnLevel, true},
		{"loud", zerolog.NoLevel, false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			level, err := ParseLevel(testCase.input)
			if !testCase.ok {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, testCase.level, level)
		})
	}
}

func TestChildLoggerForSource(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	logger := ChildLoggerForSource(zerolog.New(buf), "semantic")
	logger.Info().Msg("checked")

	assert.Contains(t, buf.String(), `"src":"semantic"`)
	assert.Contains(t, buf.String(), `"msg":"checked"`)
}
