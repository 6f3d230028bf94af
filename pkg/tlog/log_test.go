package tlog

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestLogFallsBackToGlobalLogger(t *testing.T) {
	assert.Same(t, &log.Logger, Log(context.Background()))
}

func TestLogFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("transfer", "a.bin").Logger()
	ctx := WithLogger(context.Background(), logger)

	Log(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"transfer":"a.bin"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestConsoleWriterUnquotesTraces(t *testing.T) {
	var buf bytes.Buffer
	writer := ConsoleWriter(&buf)
	writer.NoColor = true

	logger := zerolog.New(writer)
	logger.Info().Str("trace", "line1\n\tline2").Msg("failed")

	assert.Contains(t, buf.String(), "line1\n\tline2")
	assert.Contains(t, buf.String(), "failed")
}
