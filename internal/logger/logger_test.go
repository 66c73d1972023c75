package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"":        InfoLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "1")
	assert.Equal(t, DebugLevel, LevelFromEnv())

	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, ErrorLevel, LevelFromEnv())
}

func TestZerologAdapter_WritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerolog(&buf, DebugLevel)

	l.Info("PairFinder", "pairs resolved", map[string]interface{}{"pairs": 3})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "PairFinder", entry["component"])
	assert.Equal(t, "pairs resolved", entry["message"])
	assert.EqualValues(t, 3, entry["pairs"])
}

func TestZerologAdapter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerolog(&buf, WarnLevel)

	l.Debug("x", "hidden", nil)
	l.Info("x", "hidden", nil)
	assert.Zero(t, buf.Len())

	l.Error("x", errors.New("boom"), nil)
	assert.Contains(t, buf.String(), "boom")
}

func TestOrNop(t *testing.T) {
	assert.IsType(t, NopLogger{}, OrNop(nil))

	var buf bytes.Buffer
	z := NewZerolog(&buf, InfoLevel)
	assert.Same(t, z, OrNop(z))
}
