package adapters

import (
	"io"
	"os"
	"voice-campaign-api/application/ports/outbound"

	"github.com/rs/zerolog"
)

type zerologWrapper struct {
	logger zerolog.Logger
}

func NewZerologWrapper(level string) outbound.LoggerPort {
	return NewZerologWrapperWithWriter(os.Stderr, level)
}

func NewZerologWrapperWithWriter(w io.Writer, level string) outbound.LoggerPort {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return &zerologWrapper{
		logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
	}
}

func NewNopLogger() outbound.LoggerPort {
	return &zerologWrapper{logger: zerolog.Nop()}
}

func (z *zerologWrapper) Info(msg string) {
	z.logger.Info().Msg(msg)
}

func (z *zerologWrapper) Error(err error, msg string) {
	z.logger.Error().Err(err).Msg(msg)
}

func (z *zerologWrapper) Debug(msg string) {
	z.logger.Debug().Msg(msg)
}

func (z *zerologWrapper) Warn(msg string) {
	z.logger.Warn().Msg(msg)
}

func (z *zerologWrapper) InfoWithFields(msg string, fields map[string]interface{}) {
	z.logger.Info().Fields(fields).Msg(msg)
}

func (z *zerologWrapper) ErrorWithFields(err error, msg string, fields map[string]interface{}) {
	z.logger.Error().Err(err).Fields(fields).Msg(msg)
}

func (z *zerologWrapper) DebugWithFields(msg string, fields map[string]interface{}) {
	z.logger.Debug().Fields(fields).Msg(msg)
}

func (z *zerologWrapper) WarnWithFields(msg string, fields map[string]interface{}) {
	z.logger.Warn().Fields(fields).Msg(msg)
}
