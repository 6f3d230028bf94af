package tlog

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type logPtr struct{}

// WithLogger stores logger in the context so that Log() can retrieve it
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, logPtr{}, &logger)
}

// Log returns a zerolog Logger with additional context information (i.e. the transfer name)
func Log(ctx context.Context) *zerolog.Logger {
	logger := ctx.Value(logPtr{})
	if logger == nil {
		return &log.Logger
	}

	return logger.(*zerolog.Logger)
}

// ConsoleWriter returns a human readable zerolog writer. Stack traces rendered by eris are printed unquoted.
func ConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	writer := zerolog.ConsoleWriter{Out: out}
	writer.TimeFormat = "02.01.2006 15:04:05 MST"
	writer.PartsOrder = []string{
		zerolog.TimestampFieldName,
		"transfer",
		zerolog.LevelFieldName,
		zerolog.CallerFieldName,
		zerolog.MessageFieldName,
	}

	writer.FormatFieldValue = func(value interface{}) string {
		if value == nil {
			return ""
		}

		str, ok := value.(string)
		if ok && strings.Contains(str, "\\n") && strings.Contains(str, "\\t") {
			str, err := strconv.Unquote(str)
			if err == nil {
				return str
			}
		}

		return fmt.Sprintf("%s", value)
	}
	return writer
}

// Setup configures the global logger. With json set, errors are logged as structured eris traces.
func Setup(out io.Writer, level zerolog.Level, json bool) {
	if json {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		zerolog.ErrorStackMarshaler = func(err error) interface{} {
			return eris.ToJSON(err, true)
		}
	} else {
		log.Logger = log.Output(ConsoleWriter(out))
		zerolog.ErrorStackMarshaler = func(err error) interface{} {
			return eris.ToString(err, true)
		}
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = log.Logger.With().Stack().Logger()
}
